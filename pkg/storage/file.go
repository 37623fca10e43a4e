package storage

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/photocard/pkg/errors"
)

// extensions maps stored content types to file extensions. Get tries them
// in order.
var extensions = []struct {
	contentType string
	ext         string
}{
	{"image/jpeg", ".jpg"},
	{"image/png", ".png"},
	{"application/octet-stream", ".bin"},
}

// FileStore keeps objects as files in one directory, named <key><ext>.
type FileStore struct {
	dir    string
	logger *log.Logger
}

// NewFileStore creates a store in dir, creating the directory if needed.
func NewFileStore(dir string, logger *log.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Put(_ context.Context, data []byte, contentType string) (Object, error) {
	contentType, ext := normalizeType(contentType)
	key := uuid.NewString()
	path := filepath.Join(s.dir, key+ext)

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return Object{}, errors.Wrap(errors.ErrCodeInternal, err, "store file")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Object{}, errors.Wrap(errors.ErrCodeInternal, err, "store file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Object{}, errors.Wrap(errors.ErrCodeInternal, err, "store file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return Object{}, errors.Wrap(errors.ErrCodeInternal, err, "store file")
	}

	s.logger.Debug("stored file", "key", key, "bytes", len(data))
	return Object{Key: key, ContentType: contentType, Size: int64(len(data)), Filename: key + ext}, nil
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, Object, error) {
	path, obj, err := s.locate(key)
	if err != nil {
		return nil, Object{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Object{}, notFound(key)
		}
		return nil, Object{}, errors.Wrap(errors.ErrCodeInternal, err, "read file %s", key)
	}
	obj.Size = int64(len(data))
	return data, obj, nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	path, _, err := s.locate(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return notFound(key)
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "delete file %s", key)
	}
	s.logger.Debug("deleted file", "key", key)
	return nil
}

// locate finds the file of key, whichever extension it was stored with.
func (s *FileStore) locate(key string) (string, Object, error) {
	if err := errors.ValidateObjectKey(key); err != nil {
		return "", Object{}, notFound(key)
	}
	for _, e := range extensions {
		path := filepath.Join(s.dir, key+e.ext)
		if _, err := os.Stat(path); err == nil {
			return path, Object{Key: key, ContentType: e.contentType, Filename: key + e.ext}, nil
		}
	}
	return "", Object{}, notFound(key)
}

func normalizeType(contentType string) (string, string) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	for _, e := range extensions {
		if e.contentType == mediaType {
			return e.contentType, e.ext
		}
	}
	last := extensions[len(extensions)-1]
	return last.contentType, last.ext
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
