// Package convert routes conversion requests to category converters and
// owns everything those converters need along the way: request validation,
// temp-file materialization for subprocess-backed codecs, execution
// timeouts, and the typed error taxonomy.
package convert

import (
	"context"

	"github.com/formaflow/converter_api/internal/models"
)

// byteConverter is the unified converter contract: bytes in, bytes out.
// Every category converter satisfies it directly or is adapted to it by
// the dispatcher.
type byteConverter interface {
	convert(ctx context.Context, input []byte, opts *models.AdvancedOptions) ([]byte, error)
}

// pathConverter is implemented by converters that shell out to external
// tools and need the input on disk. Only the dispatcher consumes it; file
// materialization never leaks into a converter's public contract.
type pathConverter interface {
	convertPath(ctx context.Context, inputPath string, opts *models.AdvancedOptions) ([]byte, error)
}

// convertFunc adapts a plain function to byteConverter.
type convertFunc func(ctx context.Context, input []byte, opts *models.AdvancedOptions) ([]byte, error)

func (f convertFunc) convert(ctx context.Context, input []byte, opts *models.AdvancedOptions) ([]byte, error) {
	return f(ctx, input, opts)
}

type progressKey struct{}

// WithProgress attaches a progress callback to the context. Converters that
// can report incremental progress (the ffmpeg-backed ones) invoke it with a
// 0-100 value; everything else ignores it.
func WithProgress(ctx context.Context, fn func(int)) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

func progressFrom(ctx context.Context) func(int) {
	if fn, ok := ctx.Value(progressKey{}).(func(int)); ok {
		return fn
	}
	return func(int) {}
}
