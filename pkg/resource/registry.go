package resource

import (
	"io/fs"
	"os"
	"strings"

	"github.com/matzehuels/photocard/pkg/errors"
)

// Registry is a read-only set of named resources, such as template frames
// shipped with a deployment. It is injected into the Loader at construction
// and never changes afterwards.
//
// Names are slash-separated paths relative to the registry root. A leading
// slash is ignored, so "registry:/templates/default.png" and
// "registry:templates/default.png" name the same file.
type Registry struct {
	fsys fs.FS
}

// NewRegistry wraps fsys. A nil fsys yields an empty registry.
func NewRegistry(fsys fs.FS) *Registry {
	return &Registry{fsys: fsys}
}

// DirRegistry serves resources from a directory on disk.
func DirRegistry(dir string) *Registry {
	return NewRegistry(os.DirFS(dir))
}

// Open reads the named resource.
func (r *Registry) Open(name string) ([]byte, error) {
	if r == nil || r.fsys == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "resource registry is empty")
	}
	name = strings.TrimPrefix(name, "/")
	if err := errors.ValidatePath(name); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "resource %q", name)
	}
	return data, nil
}
