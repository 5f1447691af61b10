package convert

import (
	"context"
	"fmt"
	"regexp"

	"github.com/formaflow/converter_api/internal/models"
	"github.com/formaflow/converter_api/internal/registry"
	"github.com/formaflow/converter_api/internal/tempfile"
)

// One codec pair per output container, by convention.
var videoCodecs = map[string]struct {
	video string
	audio string
	extra []string
}{
	"mp4":  {video: "libx264", audio: "aac", extra: []string{"-movflags", "+faststart"}},
	"webm": {video: "libvpx-vp9", audio: "libopus"},
}

var resolutionRe = regexp.MustCompile(`^(\d+)x(\d+)$`)

// videoConverter reformats video through ffmpeg with an optional
// resolution downscale parsed from a "WxH" string.
type videoConverter struct {
	id     string
	target string
	tmp    *tempfile.Manager
}

func newVideoConverter(p registry.Preset, tmp *tempfile.Manager) *videoConverter {
	return &videoConverter{id: p.ID, target: p.ToExtension, tmp: tmp}
}

func (c *videoConverter) convertPath(ctx context.Context, inputPath string, opts *models.AdvancedOptions) ([]byte, error) {
	enc, ok := videoCodecs[c.target]
	if !ok {
		return nil, fmt.Errorf("no video codec configured for %s", c.target)
	}

	args := []string{"-i", inputPath}

	// A malformed resolution string is ignored, not resized and not an
	// error.
	if opts != nil && opts.Resolution != "" {
		if m := resolutionRe.FindStringSubmatch(opts.Resolution); m != nil {
			scale := fmt.Sprintf("scale=%s:%s:force_original_aspect_ratio=decrease", m[1], m[2])
			args = append(args, "-vf", scale)
		}
	}

	args = append(args, "-c:v", enc.video, "-c:a", enc.audio)
	args = append(args, enc.extra...)

	return c.tmp.WithOutputFile(c.target, func(outputPath string) error {
		return runFFmpeg(ctx, append(args, "-y", outputPath)...)
	})
}
