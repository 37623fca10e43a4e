// Package storage keeps rendered photocards.
//
// Objects are addressed by an opaque key generated on Put. The key never
// contains path separators, so it is safe to embed in URLs and file names.
package storage

import (
	"context"
	"net/url"

	"github.com/matzehuels/photocard/pkg/errors"
)

// Object describes a stored blob.
type Object struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Filename    string `json:"filename"`
}

// Store persists blobs. Implementations must be safe for concurrent use.
type Store interface {
	// Put stores data and returns the generated object.
	Put(ctx context.Context, data []byte, contentType string) (Object, error)

	// Get returns the data of an object. Missing keys are FILE_NOT_FOUND.
	Get(ctx context.Context, key string) ([]byte, Object, error)

	// Delete removes an object. Missing keys are FILE_NOT_FOUND.
	Delete(ctx context.Context, key string) error
}

// URLs are the public links of a stored object.
type URLs struct {
	Preview  string `json:"previewUrl" bson:"previewUrl"`
	Download string `json:"downloadUrl" bson:"downloadUrl"`
}

// LinksFor builds the preview and download URLs of key below baseURL.
func LinksFor(baseURL, key string) URLs {
	base, _ := url.JoinPath(baseURL, "api", "files", url.PathEscape(key))
	return URLs{
		Preview:  base + "/preview",
		Download: base + "/download",
	}
}

func notFound(key string) error {
	return errors.New(errors.ErrCodeFileNotFound, "file %s not found", key)
}
