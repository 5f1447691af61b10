package services

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/formaflow/converter_api/internal/convert"
	"github.com/formaflow/converter_api/internal/models"
)

// Packager turns a completed job's artifacts into a download: one file
// streamed with its detected content type, or a zip archive of all of
// them.
type Packager struct{}

func NewPackager() *Packager {
	return &Packager{}
}

// File returns the artifact at index with its content type. The index is
// into the job's resultFiles; 0 is the common single-artifact case.
func (p *Packager) File(job models.Job, index int) ([]byte, string, string, error) {
	if job.Status != models.StatusCompleted {
		return nil, "", "", convert.ValidationErrorf("job %s is %s, not completed", job.ID, job.Status)
	}
	if index < 0 || index >= len(job.ResultPaths) {
		return nil, "", "", &convert.NotFoundError{Resource: "artifact", ID: fmt.Sprintf("%s[%d]", job.ID, index)}
	}

	data, err := os.ReadFile(job.ResultPaths[index])
	if err != nil {
		return nil, "", "", fmt.Errorf("read artifact: %w", err)
	}

	name := filepath.Base(job.ResultPaths[index])
	if index < len(job.ResultFiles) {
		name = job.ResultFiles[index]
	}
	return data, name, mimetype.Detect(data).String(), nil
}

// Zip bundles every artifact of a completed job into one archive. An
// unreadable artifact fails the whole archive; the caller never gets a
// partial zip.
func (p *Packager) Zip(job models.Job) ([]byte, error) {
	if job.Status != models.StatusCompleted {
		return nil, convert.ValidationErrorf("job %s is %s, not completed", job.ID, job.Status)
	}
	if len(job.ResultPaths) == 0 {
		return nil, &convert.NotFoundError{Resource: "artifact", ID: job.ID}
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i, path := range job.ResultPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("read artifact %d for archive: %w", i, err)
		}

		name := filepath.Base(path)
		if i < len(job.ResultFiles) {
			name = job.ResultFiles[i]
		}
		entry, err := w.Create(name)
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("create archive entry: %w", err)
		}
		if _, err := entry.Write(data); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("write archive entry: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
