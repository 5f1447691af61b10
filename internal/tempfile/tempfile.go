// Package tempfile manages the short-lived on-disk files that
// subprocess-backed converters require. Callers never see a path outlive
// the callback that received it.
package tempfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manager creates collision-free scratch files under a single directory and
// guarantees their removal on every exit path, including panics. Removal
// failures are logged, never propagated; a response must not depend on
// cleanup succeeding.
type Manager struct {
	dir string
	log zerolog.Logger
}

func NewManager(dir string, log zerolog.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &Manager{dir: dir, log: log}, nil
}

// WithFile writes data to a uniquely named file, invokes fn with its path,
// and removes the file afterward regardless of how fn exits.
func (m *Manager) WithFile(data []byte, extHint string, fn func(path string) error) error {
	path := m.newPath(extHint)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	defer m.remove(path)
	return fn(path)
}

// WithOutputFile invokes fn with a path that does not yet exist, for
// converters that write their result themselves, then reads the result
// back. The file is removed before returning.
func (m *Manager) WithOutputFile(extHint string, fn func(path string) error) ([]byte, error) {
	path := m.newPath(extHint)
	defer m.remove(path)
	if err := fn(path); err != nil {
		return nil, err
	}
	out, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read converter output: %w", err)
	}
	return out, nil
}

func (m *Manager) newPath(extHint string) string {
	ext := strings.TrimPrefix(extHint, ".")
	name := "conv_" + uuid.New().String()
	if ext != "" {
		name += "." + ext
	}
	return filepath.Join(m.dir, name)
}

func (m *Manager) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		m.log.Warn().Err(err).Msg("temp file cleanup failed")
	}
}

// Sweep removes scratch files older than maxAge. Abandoned jobs leave files
// behind only until the next sweep.
func (m *Manager) Sweep(maxAge time.Duration) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		m.log.Warn().Err(err).Msg("temp dir sweep failed")
		return
	}
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			m.remove(filepath.Join(m.dir, entry.Name()))
		}
	}
}
