// Package registry holds the static catalog of supported conversions.
// Every conversion the service can perform has exactly one preset here;
// adding a conversion means adding a preset and a converter registration,
// never touching a central branch.
package registry

import (
	"strings"

	"github.com/formaflow/converter_api/internal/models"
)

// Preset binds a conversion identifier to its source extensions, target
// extension, category, and option requirements.
type Preset struct {
	ID               string          `json:"id"`
	Label            string          `json:"label"`
	FromExtensions   []string        `json:"fromExtensions"`
	ToExtension      string          `json:"toExtension"`
	Category         models.Category `json:"category"`
	RequiresAdvanced bool            `json:"requiresAdvanced"`
}

var presets = []Preset{
	// image
	{ID: "png-to-jpg", Label: "PNG to JPG", FromExtensions: []string{"png"}, ToExtension: "jpg", Category: models.CategoryImage},
	{ID: "jpg-to-png", Label: "JPG to PNG", FromExtensions: []string{"jpg", "jpeg"}, ToExtension: "png", Category: models.CategoryImage},
	{ID: "png-to-bmp", Label: "PNG to BMP", FromExtensions: []string{"png"}, ToExtension: "bmp", Category: models.CategoryImage},
	{ID: "bmp-to-png", Label: "BMP to PNG", FromExtensions: []string{"bmp"}, ToExtension: "png", Category: models.CategoryImage},
	{ID: "png-to-tiff", Label: "PNG to TIFF", FromExtensions: []string{"png"}, ToExtension: "tiff", Category: models.CategoryImage},
	{ID: "tiff-to-png", Label: "TIFF to PNG", FromExtensions: []string{"tif", "tiff"}, ToExtension: "png", Category: models.CategoryImage},
	{ID: "gif-to-png", Label: "GIF to PNG", FromExtensions: []string{"gif"}, ToExtension: "png", Category: models.CategoryImage},
	{ID: "webp-to-png", Label: "WebP to PNG", FromExtensions: []string{"webp"}, ToExtension: "png", Category: models.CategoryImage},
	// webp is decode-only (x/image/webp has no encoder), so it can be a
	// conversion source but not a resize source: resize keeps the input
	// format.
	{ID: "image-resize", Label: "Resize Image", FromExtensions: []string{"png", "jpg", "jpeg", "bmp", "gif", "tif", "tiff"}, ToExtension: "", Category: models.CategoryImage, RequiresAdvanced: true},

	// audio
	{ID: "mp3-to-wav", Label: "MP3 to WAV", FromExtensions: []string{"mp3"}, ToExtension: "wav", Category: models.CategoryAudio},
	{ID: "wav-to-mp3", Label: "WAV to MP3", FromExtensions: []string{"wav"}, ToExtension: "mp3", Category: models.CategoryAudio},
	{ID: "mp3-to-ogg", Label: "MP3 to OGG", FromExtensions: []string{"mp3"}, ToExtension: "ogg", Category: models.CategoryAudio},
	{ID: "ogg-to-mp3", Label: "OGG to MP3", FromExtensions: []string{"ogg"}, ToExtension: "mp3", Category: models.CategoryAudio},
	{ID: "flac-to-mp3", Label: "FLAC to MP3", FromExtensions: []string{"flac"}, ToExtension: "mp3", Category: models.CategoryAudio},
	{ID: "wav-to-flac", Label: "WAV to FLAC", FromExtensions: []string{"wav"}, ToExtension: "flac", Category: models.CategoryAudio},

	// video
	{ID: "mp4-to-webm", Label: "MP4 to WebM", FromExtensions: []string{"mp4"}, ToExtension: "webm", Category: models.CategoryVideo},
	{ID: "webm-to-mp4", Label: "WebM to MP4", FromExtensions: []string{"webm"}, ToExtension: "mp4", Category: models.CategoryVideo},
	{ID: "mov-to-mp4", Label: "MOV to MP4", FromExtensions: []string{"mov"}, ToExtension: "mp4", Category: models.CategoryVideo},
	{ID: "avi-to-mp4", Label: "AVI to MP4", FromExtensions: []string{"avi"}, ToExtension: "mp4", Category: models.CategoryVideo},

	// document
	{ID: "pdf-to-txt", Label: "PDF to Text", FromExtensions: []string{"pdf"}, ToExtension: "txt", Category: models.CategoryDocument},
	{ID: "md-to-pdf", Label: "Markdown to PDF", FromExtensions: []string{"md", "markdown"}, ToExtension: "pdf", Category: models.CategoryDocument},
	{ID: "html-to-pdf", Label: "HTML to PDF", FromExtensions: []string{"html", "htm"}, ToExtension: "pdf", Category: models.CategoryDocument},
	{ID: "txt-to-pdf", Label: "Text to PDF", FromExtensions: []string{"txt"}, ToExtension: "pdf", Category: models.CategoryDocument},
	// Known capability gap in this deployment profile: both directions are
	// listed so clients get a direct answer, but dispatch refuses them.
	{ID: "docx-to-pdf", Label: "DOCX to PDF", FromExtensions: []string{"docx"}, ToExtension: "pdf", Category: models.CategoryDocument},
	{ID: "pdf-to-docx", Label: "PDF to DOCX", FromExtensions: []string{"pdf"}, ToExtension: "docx", Category: models.CategoryDocument},

	// data
	{ID: "csv-to-json", Label: "CSV to JSON", FromExtensions: []string{"csv"}, ToExtension: "json", Category: models.CategoryData},
	{ID: "json-to-csv", Label: "JSON to CSV", FromExtensions: []string{"json"}, ToExtension: "csv", Category: models.CategoryData},
	{ID: "csv-to-xlsx", Label: "CSV to XLSX", FromExtensions: []string{"csv"}, ToExtension: "xlsx", Category: models.CategoryData},
	{ID: "xlsx-to-csv", Label: "XLSX to CSV", FromExtensions: []string{"xlsx"}, ToExtension: "csv", Category: models.CategoryData},
	{ID: "json-to-yaml", Label: "JSON to YAML", FromExtensions: []string{"json"}, ToExtension: "yaml", Category: models.CategoryData},
	{ID: "yaml-to-json", Label: "YAML to JSON", FromExtensions: []string{"yaml", "yml"}, ToExtension: "json", Category: models.CategoryData},
	{ID: "csv-to-tsv", Label: "CSV to TSV", FromExtensions: []string{"csv"}, ToExtension: "tsv", Category: models.CategoryData},
	{ID: "tsv-to-csv", Label: "TSV to CSV", FromExtensions: []string{"tsv"}, ToExtension: "csv", Category: models.CategoryData},
	{ID: "json-to-xml", Label: "JSON to XML", FromExtensions: []string{"json"}, ToExtension: "xml", Category: models.CategoryData},
	{ID: "md-to-csv", Label: "Markdown to CSV", FromExtensions: []string{"md", "markdown"}, ToExtension: "csv", Category: models.CategoryData},
}

var byID = func() map[string]Preset {
	m := make(map[string]Preset, len(presets))
	for _, p := range presets {
		m[p.ID] = p
	}
	return m
}()

// PresetByID looks up a preset by its conversion identifier.
func PresetByID(id string) (Preset, bool) {
	p, ok := byID[id]
	return p, ok
}

// PresetsForExtension returns every preset that accepts the given source
// extension. The match is case-insensitive and tolerates a leading dot.
// An unsupported extension yields an empty slice, not an error.
func PresetsForExtension(ext string) []Preset {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	out := []Preset{}
	for _, p := range presets {
		for _, from := range p.FromExtensions {
			if from == ext {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// All returns the full catalog in registration order.
func All() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}
