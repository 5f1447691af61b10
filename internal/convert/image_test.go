package convert

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/formaflow/converter_api/internal/models"
	"github.com/formaflow/converter_api/internal/registry"
)

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (string, int, int) {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return format, img.Bounds().Dx(), img.Bounds().Dy()
}

func imagePreset(t *testing.T, id string) registry.Preset {
	t.Helper()
	p, ok := registry.PresetByID(id)
	if !ok {
		t.Fatalf("preset %s not registered", id)
	}
	return p
}

func TestPNGToJPG(t *testing.T) {
	c := newImageConverter(imagePreset(t, "png-to-jpg"))

	out, err := c.convert(context.Background(), testPNG(t, 40, 30), nil)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	format, w, h := decodeDims(t, out)
	if format != "jpeg" {
		t.Errorf("output format = %q, want jpeg", format)
	}
	if w != 40 || h != 30 {
		t.Errorf("dimensions = %dx%d, want 40x30 unchanged", w, h)
	}
}

func TestResizeContains(t *testing.T) {
	c := newImageConverter(imagePreset(t, "image-resize"))

	width, height := 50, 20
	out, err := c.convert(context.Background(), testPNG(t, 200, 100), &models.AdvancedOptions{
		Width:  &width,
		Height: &height,
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	format, w, h := decodeDims(t, out)
	if format != "png" {
		t.Errorf("resize changed format to %q, want png preserved", format)
	}
	// Contain fit: scaled to fit inside 50x20 with aspect preserved.
	if w > 50 || h > 20 {
		t.Errorf("dimensions = %dx%d, exceed the 50x20 box", w, h)
	}
	if w != 40 || h != 20 {
		t.Errorf("dimensions = %dx%d, want 40x20 (aspect-preserving contain)", w, h)
	}
}

func TestResizeNeverUpscales(t *testing.T) {
	c := newImageConverter(imagePreset(t, "image-resize"))

	width, height := 500, 500
	out, err := c.convert(context.Background(), testPNG(t, 60, 40), &models.AdvancedOptions{
		Width:  &width,
		Height: &height,
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	_, w, h := decodeDims(t, out)
	if w != 60 || h != 40 {
		t.Errorf("dimensions = %dx%d, want 60x40 (no upscaling)", w, h)
	}
}

func TestResizeSingleDimension(t *testing.T) {
	c := newImageConverter(imagePreset(t, "image-resize"))

	width := 100
	out, err := c.convert(context.Background(), testPNG(t, 200, 100), &models.AdvancedOptions{Width: &width})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	_, w, h := decodeDims(t, out)
	if w != 100 || h != 50 {
		t.Errorf("dimensions = %dx%d, want 100x50 (height unconstrained)", w, h)
	}
}

func TestResizeSourcesAreEncodable(t *testing.T) {
	// Resize keeps the source format, so every extension the preset accepts
	// must have an encoder. Decode-only formats like webp stay off the list.
	p := imagePreset(t, "image-resize")
	for _, ext := range p.FromExtensions {
		if _, err := encodeFormat(ext); err != nil {
			t.Errorf("image-resize accepts %s but cannot encode it back: %v", ext, err)
		}
	}
}

func TestNonImageInputRejected(t *testing.T) {
	c := newImageConverter(imagePreset(t, "png-to-jpg"))

	_, err := c.convert(context.Background(), []byte("definitely not an image"), nil)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}
