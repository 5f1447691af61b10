package convert

import (
	"context"
	"fmt"

	"github.com/formaflow/converter_api/internal/models"
	"github.com/formaflow/converter_api/internal/registry"
	"github.com/formaflow/converter_api/internal/tempfile"
)

// Output bitrate is fixed per target format, not user-tunable.
var audioCodecs = map[string]struct {
	codec   string
	bitrate string
}{
	"mp3":  {codec: "libmp3lame", bitrate: "192k"},
	"ogg":  {codec: "libvorbis", bitrate: "160k"},
	"wav":  {codec: "pcm_s16le"},
	"flac": {codec: "flac"},
}

// audioConverter reformats audio through ffmpeg with an optional trim
// window. It works on file paths; the dispatcher materializes the input.
type audioConverter struct {
	id     string
	target string
	tmp    *tempfile.Manager
}

func newAudioConverter(p registry.Preset, tmp *tempfile.Manager) *audioConverter {
	return &audioConverter{id: p.ID, target: p.ToExtension, tmp: tmp}
}

func (c *audioConverter) convertPath(ctx context.Context, inputPath string, opts *models.AdvancedOptions) ([]byte, error) {
	enc, ok := audioCodecs[c.target]
	if !ok {
		return nil, fmt.Errorf("no audio codec configured for %s", c.target)
	}

	args := []string{"-i", inputPath, "-vn"}

	// trimStart defaults to 0; a missing trimEnd leaves the window open to
	// the natural end of the stream.
	if opts != nil {
		if opts.TrimStart != nil && *opts.TrimStart > 0 {
			args = append(args, "-ss", fmt.Sprintf("%.3f", *opts.TrimStart))
		}
		if opts.TrimEnd != nil {
			args = append(args, "-to", fmt.Sprintf("%.3f", *opts.TrimEnd))
		}
	}

	args = append(args, "-c:a", enc.codec)
	if enc.bitrate != "" {
		args = append(args, "-b:a", enc.bitrate)
	}

	return c.tmp.WithOutputFile(c.target, func(outputPath string) error {
		return runFFmpeg(ctx, append(args, "-y", outputPath)...)
	})
}
