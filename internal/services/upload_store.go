package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/formaflow/converter_api/internal/convert"
	"github.com/formaflow/converter_api/internal/models"
)

// UploadStore is the upload boundary: it turns raw uploaded bytes into an
// opaque fileId and hands the bytes back to the dispatcher on demand.
// Uploads live on disk under the fileId and are purged by the TTL sweep.
type UploadStore struct {
	dir string
	ttl time.Duration
	log zerolog.Logger

	mu    sync.RWMutex
	files map[string]uploadEntry
}

type uploadEntry struct {
	info models.FileInfo
	path string
}

func NewUploadStore(dir string, ttl time.Duration, log zerolog.Logger) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadStore{
		dir:   dir,
		ttl:   ttl,
		log:   log,
		files: make(map[string]uploadEntry),
	}, nil
}

// Save stores the uploaded content and returns its ephemeral FileInfo.
func (s *UploadStore) Save(name, mimeType string, r io.Reader) (models.FileInfo, error) {
	id := uuid.New().String()
	path := filepath.Join(s.dir, id+filepath.Ext(name))

	out, err := os.Create(path)
	if err != nil {
		return models.FileInfo{}, fmt.Errorf("save upload: %w", err)
	}
	size, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return models.FileInfo{}, fmt.Errorf("save upload: %w", err)
	}

	info := models.FileInfo{ID: id, Name: name, Size: size, MimeType: mimeType}
	s.mu.Lock()
	s.files[id] = uploadEntry{info: info, path: path}
	s.mu.Unlock()
	return info, nil
}

// Bytes returns the uploaded content for a fileId, or NotFoundError when
// the id is unknown or already swept.
func (s *UploadStore) Bytes(fileID string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.files[fileID]
	s.mu.RUnlock()
	if !ok {
		return nil, &convert.NotFoundError{Resource: "file", ID: fileID}
	}

	data, err := os.ReadFile(entry.path)
	if err != nil {
		return nil, &convert.NotFoundError{Resource: "file", ID: fileID}
	}
	return data, nil
}

// Info returns the upload acknowledgment for a fileId.
func (s *UploadStore) Info(fileID string) (models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.files[fileID]
	if !ok {
		return models.FileInfo{}, &convert.NotFoundError{Resource: "file", ID: fileID}
	}
	return entry.info, nil
}

// Remove discards an upload once its job has consumed it.
func (s *UploadStore) Remove(fileID string) {
	s.mu.Lock()
	entry, ok := s.files[fileID]
	delete(s.files, fileID)
	s.mu.Unlock()
	if !ok {
		return
	}
	if err := os.Remove(entry.path); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Msg("upload cleanup failed")
	}
}

// Sweep drops uploads older than the TTL; abandoned uploads do not outlive
// the job window.
func (s *UploadStore) Sweep() {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	var stale []uploadEntry
	for id, entry := range s.files {
		info, err := os.Stat(entry.path)
		if err != nil || info.ModTime().Before(cutoff) {
			stale = append(stale, entry)
			delete(s.files, id)
		}
	}
	s.mu.Unlock()

	for _, entry := range stale {
		if err := os.Remove(entry.path); err != nil && !os.IsNotExist(err) {
			s.log.Warn().Err(err).Msg("upload sweep failed")
		}
	}
}
