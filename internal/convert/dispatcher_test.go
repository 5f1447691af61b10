package convert

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/formaflow/converter_api/internal/models"
	"github.com/formaflow/converter_api/internal/tempfile"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, string) {
	t.Helper()
	dir := t.TempDir()
	tmp, err := tempfile.NewManager(dir, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return NewDispatcher(tmp, zerolog.Nop(), time.Minute), dir
}

func TestValidate(t *testing.T) {
	d, _ := newTestDispatcher(t)
	width := 100

	tests := []struct {
		name           string
		conversionType string
		input          []byte
		opts           *models.AdvancedOptions
		wantErr        interface{}
	}{
		{
			name:           "unknown conversion",
			conversionType: "png-to-nothing",
			input:          []byte("x"),
			wantErr:        &UnsupportedConversionError{},
		},
		{
			name:           "disabled docx to pdf",
			conversionType: "docx-to-pdf",
			input:          []byte("x"),
			wantErr:        &UnsupportedConversionError{},
		},
		{
			name:           "disabled pdf to docx",
			conversionType: "pdf-to-docx",
			input:          []byte("x"),
			wantErr:        &UnsupportedConversionError{},
		},
		{
			name:           "empty input",
			conversionType: "csv-to-json",
			input:          nil,
			wantErr:        &ValidationError{},
		},
		{
			name:           "resize without dimensions",
			conversionType: "image-resize",
			input:          []byte("x"),
			wantErr:        &ValidationError{},
		},
		{
			name:           "quality out of range",
			conversionType: "png-to-jpg",
			input:          []byte("x"),
			opts:           &models.AdvancedOptions{Quality: intPtr(150)},
			wantErr:        &ValidationError{},
		},
		{
			name:           "negative trim start",
			conversionType: "mp3-to-wav",
			input:          []byte("x"),
			opts:           &models.AdvancedOptions{TrimStart: floatPtr(-1)},
			wantErr:        &ValidationError{},
		},
		{
			name:           "trim end before start",
			conversionType: "mp3-to-wav",
			input:          []byte("x"),
			opts:           &models.AdvancedOptions{TrimStart: floatPtr(10), TrimEnd: floatPtr(5)},
			wantErr:        &ValidationError{},
		},
		{
			name:           "valid request",
			conversionType: "csv-to-json",
			input:          []byte("a\n1"),
		},
		{
			name:           "resize with width only",
			conversionType: "image-resize",
			input:          []byte("x"),
			opts:           &models.AdvancedOptions{Width: &width},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := d.Validate(tc.conversionType, tc.input, tc.opts)
			switch want := tc.wantErr.(type) {
			case nil:
				if err != nil {
					t.Fatalf("Validate: %v, want nil", err)
				}
			case *ValidationError:
				var got *ValidationError
				if !errors.As(err, &got) {
					t.Fatalf("error = %v, want ValidationError", err)
				}
			case *UnsupportedConversionError:
				var got *UnsupportedConversionError
				if !errors.As(err, &got) {
					t.Fatalf("error = %v, want UnsupportedConversionError", err)
				}
			default:
				t.Fatalf("unhandled want type %T", want)
			}
		})
	}
}

func TestDisabledConversionNamesTheGap(t *testing.T) {
	d, _ := newTestDispatcher(t)

	err := d.Validate("docx-to-pdf", []byte("x"), nil)
	var uErr *UnsupportedConversionError
	if !errors.As(err, &uErr) {
		t.Fatalf("error = %v, want UnsupportedConversionError", err)
	}
	if uErr.Reason == "" {
		t.Error("disabled conversion should carry a reason, not a bare unsupported error")
	}
}

func TestConvertRoutesDataConversion(t *testing.T) {
	d, _ := newTestDispatcher(t)

	out, err := d.Convert(context.Background(), "csv-to-json", []byte("name,age\nAlice,30"), nil)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	var rows []map[string]string
	if err := json.Unmarshal(out, &rows); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Alice" {
		t.Errorf("rows = %v", rows)
	}
}

func TestConvertWrapsConverterFailures(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Convert(context.Background(), "csv-to-json", []byte(`a,"b\n1`), nil)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		// Broken-quote CSV surfaces as a validation problem, not a wrapped
		// internal error.
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

// fakePathConverter stands in for a subprocess-backed converter so the
// materialization contract can be checked without ffmpeg installed.
type fakePathConverter struct {
	sawPath string
	fail    bool
}

func (f *fakePathConverter) convertPath(_ context.Context, inputPath string, _ *models.AdvancedOptions) ([]byte, error) {
	f.sawPath = inputPath
	if f.fail {
		return nil, errors.New("codec exploded")
	}
	return []byte("converted"), nil
}

func TestPathConverterTempFileLifecycle(t *testing.T) {
	tests := []struct {
		name string
		fail bool
	}{
		{name: "success path"},
		{name: "failure path", fail: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, dir := newTestDispatcher(t)
			fake := &fakePathConverter{fail: tc.fail}
			d.paths["mp3-to-wav"] = fake

			out, err := d.Convert(context.Background(), "mp3-to-wav", []byte("audio bytes"), nil)
			if tc.fail {
				var cErr *ConversionError
				if !errors.As(err, &cErr) {
					t.Fatalf("error = %v, want ConversionError", err)
				}
				if cErr.ConversionType != "mp3-to-wav" {
					t.Errorf("ConversionType = %q, want mp3-to-wav", cErr.ConversionType)
				}
			} else {
				if err != nil {
					t.Fatalf("Convert: %v", err)
				}
				if string(out) != "converted" {
					t.Errorf("output = %q", out)
				}
			}

			if fake.sawPath == "" {
				t.Fatal("path converter never received a materialized file")
			}
			if filepath.Dir(fake.sawPath) != dir {
				t.Errorf("temp file %s not under managed dir %s", fake.sawPath, dir)
			}
			if _, statErr := os.Stat(fake.sawPath); !os.IsNotExist(statErr) {
				t.Errorf("temp file still on disk after Convert returned: %s", fake.sawPath)
			}
		})
	}
}

// blockingPathConverter never finishes on its own; only the deadline ends
// it.
type blockingPathConverter struct{}

func (blockingPathConverter) convertPath(ctx context.Context, _ string, _ *models.AdvancedOptions) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestConvertDeadlineBecomesTimeoutError(t *testing.T) {
	tmp, err := tempfile.NewManager(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	limit := 30 * time.Millisecond
	d := NewDispatcher(tmp, zerolog.Nop(), limit)
	d.paths["mp3-to-wav"] = blockingPathConverter{}

	_, err = d.Convert(context.Background(), "mp3-to-wav", []byte("audio bytes"), nil)
	var tErr *TimeoutError
	if !errors.As(err, &tErr) {
		t.Fatalf("error = %v, want TimeoutError", err)
	}
	if tErr.ConversionType != "mp3-to-wav" {
		t.Errorf("ConversionType = %q, want mp3-to-wav", tErr.ConversionType)
	}
	if tErr.Limit != limit {
		t.Errorf("Limit = %v, want %v", tErr.Limit, limit)
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
