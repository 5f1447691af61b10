package convert

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/formaflow/converter_api/internal/models"
	"github.com/formaflow/converter_api/internal/registry"
	"github.com/formaflow/converter_api/internal/tempfile"
)

// documentConverter covers text extraction (poppler's pdftotext) and
// HTML/Markdown/plain-text rendering to PDF (pandoc). Office conversions
// are excluded at the dispatcher before anything reaches this type.
type documentConverter struct {
	id      string
	target  string
	fromExt string
	tmp     *tempfile.Manager
}

func newDocumentConverter(p registry.Preset, tmp *tempfile.Manager) *documentConverter {
	fromExt := ""
	if len(p.FromExtensions) > 0 {
		fromExt = p.FromExtensions[0]
	}
	return &documentConverter{id: p.ID, target: p.ToExtension, fromExt: fromExt, tmp: tmp}
}

func (c *documentConverter) convertPath(ctx context.Context, inputPath string, opts *models.AdvancedOptions) ([]byte, error) {
	switch c.target {
	case "txt":
		return c.extractText(ctx, inputPath)
	case "pdf":
		return c.renderPDF(ctx, inputPath)
	default:
		return nil, fmt.Errorf("no document renderer configured for %s", c.target)
	}
}

func (c *documentConverter) extractText(ctx context.Context, inputPath string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", inputPath, "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("pdftotext: %v: %s", err, lastStderrLine(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func (c *documentConverter) renderPDF(ctx context.Context, inputPath string) ([]byte, error) {
	return c.tmp.WithOutputFile("pdf", func(outputPath string) error {
		args := []string{inputPath, "-o", outputPath}
		if format := pandocFormat(c.fromExt); format != "" {
			args = append([]string{"-f", format}, args...)
		}
		cmd := exec.CommandContext(ctx, "pandoc", args...)
		output, err := cmd.CombinedOutput()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("pandoc: %v: %s", err, lastStderrLine(string(output)))
		}
		return nil
	})
}

// pandocFormat pins the reader so pandoc does not guess from the temp
// file's extension hint.
func pandocFormat(ext string) string {
	switch ext {
	case "md", "markdown":
		return "markdown"
	case "html", "htm":
		return "html"
	case "txt":
		// pandoc treats plain text as markdown; markdown_strict keeps
		// literal text from being reinterpreted.
		return "markdown_strict"
	default:
		return ""
	}
}
