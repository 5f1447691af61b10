package convert

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/formaflow/converter_api/internal/models"
	"github.com/formaflow/converter_api/internal/registry"
	"github.com/formaflow/converter_api/internal/tempfile"
)

// disabledConversions are registered presets this deployment profile
// refuses up front. Attempting a docx/pdf office conversion without a
// LibreOffice install is slow and doomed; callers get told directly
// instead.
var disabledConversions = map[string]string{
	"docx-to-pdf": "office document rendering is not available in this deployment",
	"pdf-to-docx": "office document rendering is not available in this deployment",
}

// Dispatcher resolves a conversion type to its converter and runs it. The
// routing table is built once at startup from the registry; adding a
// conversion never touches a central branch.
type Dispatcher struct {
	table   map[string]byteConverter
	paths   map[string]pathConverter
	hints   map[string]string // input extension hint for temp materialization
	tmp     *tempfile.Manager
	log     zerolog.Logger
	timeout time.Duration
}

func NewDispatcher(tmp *tempfile.Manager, log zerolog.Logger, timeout time.Duration) *Dispatcher {
	d := &Dispatcher{
		table:   make(map[string]byteConverter),
		paths:   make(map[string]pathConverter),
		hints:   make(map[string]string),
		tmp:     tmp,
		log:     log,
		timeout: timeout,
	}

	for _, p := range registry.All() {
		if _, off := disabledConversions[p.ID]; off {
			continue
		}
		hint := ""
		if len(p.FromExtensions) > 0 {
			hint = p.FromExtensions[0]
		}
		switch p.Category {
		case models.CategoryImage:
			d.table[p.ID] = newImageConverter(p)
		case models.CategoryAudio:
			d.paths[p.ID] = newAudioConverter(p, tmp)
			d.hints[p.ID] = hint
		case models.CategoryVideo:
			d.paths[p.ID] = newVideoConverter(p, tmp)
			d.hints[p.ID] = hint
		case models.CategoryDocument:
			d.paths[p.ID] = newDocumentConverter(p, tmp)
			d.hints[p.ID] = hint
		case models.CategoryData:
			d.table[p.ID] = newDataConverter(p)
		}
	}
	return d
}

// Validate checks a conversion request without performing any I/O. It is
// called before a job or temp resource exists, so a failed request never
// needs cleanup.
func (d *Dispatcher) Validate(conversionType string, input []byte, opts *models.AdvancedOptions) error {
	if reason, off := disabledConversions[conversionType]; off {
		return &UnsupportedConversionError{ConversionType: conversionType, Reason: reason}
	}
	preset, ok := registry.PresetByID(conversionType)
	if !ok {
		return &UnsupportedConversionError{ConversionType: conversionType}
	}
	if len(input) == 0 {
		return validationf("input file is empty")
	}
	if preset.RequiresAdvanced {
		if err := validateRequired(preset, opts); err != nil {
			return err
		}
	}
	if opts != nil {
		if err := validateOptionRanges(opts); err != nil {
			return err
		}
	}
	return nil
}

func validateRequired(preset registry.Preset, opts *models.AdvancedOptions) error {
	switch preset.ID {
	case "image-resize":
		if opts == nil || (opts.Width == nil && opts.Height == nil) {
			return validationf("%s requires a target width and/or height", preset.ID)
		}
	default:
		if opts == nil {
			return validationf("%s requires advanced options", preset.ID)
		}
	}
	return nil
}

func validateOptionRanges(opts *models.AdvancedOptions) error {
	if opts.Width != nil && *opts.Width <= 0 {
		return validationf("width must be positive, got %d", *opts.Width)
	}
	if opts.Height != nil && *opts.Height <= 0 {
		return validationf("height must be positive, got %d", *opts.Height)
	}
	if opts.Quality != nil && (*opts.Quality < 1 || *opts.Quality > 100) {
		return validationf("quality must be between 1 and 100, got %d", *opts.Quality)
	}
	if opts.TrimStart != nil && *opts.TrimStart < 0 {
		return validationf("trimStart must not be negative, got %v", *opts.TrimStart)
	}
	if opts.TrimEnd != nil {
		start := 0.0
		if opts.TrimStart != nil {
			start = *opts.TrimStart
		}
		if *opts.TrimEnd <= start {
			return validationf("trimEnd must be greater than trimStart")
		}
	}
	return nil
}

// Convert runs the converter registered for conversionType against input.
// Subprocess-backed converters get the input materialized as a scoped temp
// file; the file is gone by the time Convert returns, on every path.
func (d *Dispatcher) Convert(ctx context.Context, conversionType string, input []byte, opts *models.AdvancedOptions) ([]byte, error) {
	if err := d.Validate(conversionType, input, opts); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var out []byte
	var err error
	if pc, ok := d.paths[conversionType]; ok {
		err = d.tmp.WithFile(input, d.hints[conversionType], func(path string) error {
			var convErr error
			out, convErr = pc.convertPath(ctx, path, opts)
			return convErr
		})
	} else if bc, ok := d.table[conversionType]; ok {
		out, err = bc.convert(ctx, input, opts)
	} else {
		return nil, &UnsupportedConversionError{ConversionType: conversionType}
	}

	if err != nil {
		return nil, d.wrapFailure(ctx, conversionType, len(input), err)
	}
	return out, nil
}

// wrapFailure turns converter-level failures into the typed taxonomy and
// logs them with conversion type and input size, never raw paths.
func (d *Dispatcher) wrapFailure(ctx context.Context, conversionType string, inputSize int, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		d.log.Error().Str("conversion", conversionType).Int("inputSize", inputSize).
			Dur("limit", d.timeout).Msg("conversion timed out")
		return &TimeoutError{ConversionType: conversionType, Limit: d.timeout}
	}

	var vErr *ValidationError
	var uErr *UnsupportedConversionError
	if errors.As(err, &vErr) || errors.As(err, &uErr) {
		return err
	}

	d.log.Error().Err(err).Str("conversion", conversionType).Int("inputSize", inputSize).
		Msg("conversion failed")

	var cErr *ConversionError
	if errors.As(err, &cErr) {
		return err
	}
	return &ConversionError{ConversionType: conversionType, Msg: err.Error(), Err: err}
}
