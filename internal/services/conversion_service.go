package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/formaflow/converter_api/internal/convert"
	"github.com/formaflow/converter_api/internal/models"
	"github.com/formaflow/converter_api/internal/pool"
	"github.com/formaflow/converter_api/internal/registry"
)

// dispatcher is the part of convert.Dispatcher the service uses.
type dispatcher interface {
	Validate(conversionType string, input []byte, opts *models.AdvancedOptions) error
	Convert(ctx context.Context, conversionType string, input []byte, opts *models.AdvancedOptions) ([]byte, error)
}

// ConversionService is the core entrypoint: it validates a conversion
// request fully before any job or temp resource exists, then runs the work
// on the bounded pool while the caller polls the job.
type ConversionService struct {
	dispatcher dispatcher
	jobs       *JobManager
	uploads    *UploadStore
	workers    *pool.WorkerPool
	outputDir  string
	log        zerolog.Logger
}

func NewConversionService(
	dispatcher dispatcher,
	jobs *JobManager,
	uploads *UploadStore,
	workers *pool.WorkerPool,
	outputDir string,
	log zerolog.Logger,
) (*ConversionService, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &ConversionService{
		dispatcher: dispatcher,
		jobs:       jobs,
		uploads:    uploads,
		workers:    workers,
		outputDir:  outputDir,
		log:        log,
	}, nil
}

// StartConversion validates and enqueues one conversion, returning the new
// job's id immediately. Validation failures happen before a job exists, so
// nothing needs cleanup. Jobs from a batch submission are independent; one
// failing never touches another.
func (s *ConversionService) StartConversion(fileID, conversionType string, opts *models.AdvancedOptions) (string, error) {
	input, err := s.uploads.Bytes(fileID)
	if err != nil {
		return "", err
	}
	if err := s.dispatcher.Validate(conversionType, input, opts); err != nil {
		return "", err
	}
	info, err := s.uploads.Info(fileID)
	if err != nil {
		return "", err
	}

	job := s.jobs.Create(conversionType, fileID)
	if err := s.workers.Submit(func(ctx context.Context) {
		s.run(ctx, job.ID, conversionType, info, input, opts)
	}); err != nil {
		s.jobs.Fail(job.ID, "service is shutting down")
		return "", err
	}
	return job.ID, nil
}

func (s *ConversionService) run(ctx context.Context, jobID, conversionType string, info models.FileInfo, input []byte, opts *models.AdvancedOptions) {
	s.jobs.MarkProcessing(jobID)
	s.jobs.SendProgressUpdate(jobID, 5)

	ctx = convert.WithProgress(ctx, func(progress int) {
		s.jobs.SendProgressUpdate(jobID, progress)
	})

	output, err := s.dispatcher.Convert(ctx, conversionType, input, opts)
	if err != nil {
		s.jobs.Fail(jobID, userFacingMessage(err))
		s.uploads.Remove(info.ID)
		return
	}

	name := resultFileName(info.Name, conversionType)
	path := filepath.Join(s.outputDir, jobID+"_"+name)
	if err := os.WriteFile(path, output, 0o644); err != nil {
		s.log.Error().Err(err).Str("job", jobID).Msg("failed to store result artifact")
		s.jobs.Fail(jobID, "failed to store conversion result")
		s.uploads.Remove(info.ID)
		return
	}

	s.jobs.Complete(jobID, []string{name}, []string{path})
	s.uploads.Remove(info.ID)
}

// userFacingMessage keeps taxonomy errors verbatim and hides everything
// else behind a generic line.
func userFacingMessage(err error) string {
	var vErr *convert.ValidationError
	var uErr *convert.UnsupportedConversionError
	var tErr *convert.TimeoutError
	var cErr *convert.ConversionError
	switch {
	case errors.As(err, &vErr), errors.As(err, &uErr), errors.As(err, &tErr), errors.As(err, &cErr):
		return err.Error()
	default:
		return "conversion failed"
	}
}

// resultFileName swaps the source name's extension for the conversion's
// target, falling back to the source extension for same-format transforms.
func resultFileName(sourceName, conversionType string) string {
	base := strings.TrimSuffix(filepath.Base(sourceName), filepath.Ext(sourceName))
	if base == "" {
		base = "converted"
	}

	ext := strings.TrimPrefix(filepath.Ext(sourceName), ".")
	if preset, ok := registry.PresetByID(conversionType); ok && preset.ToExtension != "" {
		ext = preset.ToExtension
	}
	if ext == "" {
		return base
	}
	return base + "." + ext
}
