package convert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"

	// Input-side decoders beyond what imaging registers itself.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/formaflow/converter_api/internal/models"
	"github.com/formaflow/converter_api/internal/registry"
)

const defaultJPEGQuality = 90

// imageConverter reformats and/or resizes images entirely in memory. An
// empty target keeps the source format (the same-format resize transform).
type imageConverter struct {
	id     string
	target string
}

func newImageConverter(p registry.Preset) *imageConverter {
	return &imageConverter{id: p.ID, target: p.ToExtension}
}

func (c *imageConverter) convert(ctx context.Context, input []byte, opts *models.AdvancedOptions) ([]byte, error) {
	img, srcFormat, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, validationf("input is not a decodable image: %v", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts != nil && (opts.Width != nil || opts.Height != nil) {
		img = fitWithin(img, opts.Width, opts.Height)
	}

	target := c.target
	if target == "" {
		target = srcFormat
	}
	format, err := encodeFormat(target)
	if err != nil {
		return nil, err
	}

	quality := defaultJPEGQuality
	if opts != nil && opts.Quality != nil {
		quality = *opts.Quality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode %s: %w", target, err)
	}
	return buf.Bytes(), nil
}

// fitWithin applies the contain fit policy: the image is scaled down to fit
// inside the requested box with its aspect ratio preserved, and is never
// upscaled. A missing dimension is unconstrained.
func fitWithin(img image.Image, width, height *int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	tw, th := w, h
	if width != nil {
		tw = *width
	}
	if height != nil {
		th = *height
	}
	if tw >= w && th >= h {
		return img
	}
	return imaging.Fit(img, tw, th, imaging.Lanczos)
}

func encodeFormat(target string) (imaging.Format, error) {
	switch strings.ToLower(target) {
	case "jpg", "jpeg":
		return imaging.JPEG, nil
	case "png":
		return imaging.PNG, nil
	case "gif":
		return imaging.GIF, nil
	case "bmp":
		return imaging.BMP, nil
	case "tif", "tiff":
		return imaging.TIFF, nil
	default:
		return 0, fmt.Errorf("cannot encode images as %s", target)
	}
}
