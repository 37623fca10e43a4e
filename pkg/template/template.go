// Package template stores photocard templates.
//
// A template couples a layout document with the canvas size and the
// template image it was designed for. Templates are never removed: deleting
// one deactivates it, so cards rendered from it can still be traced back.
//
// Two stores are provided: [MemoryStore] for the CLI and tests, and
// [MongoStore] for the service.
package template

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/photocard/pkg/errors"
	"github.com/matzehuels/photocard/pkg/layout"
)

// Type is the visual family of a template.
type Type string

const (
	TypeClassic  Type = "CLASSIC"
	TypeModern   Type = "MODERN"
	TypeMinimal  Type = "MINIMAL"
	TypeArtistic Type = "ARTISTIC"
	TypeCustom   Type = "CUSTOM"
)

// Types lists every template type.
var Types = []Type{TypeClassic, TypeModern, TypeMinimal, TypeArtistic, TypeCustom}

// ParseType parses a type name case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown template type %q", s)
}

// Defaults of the built-in template.
const (
	DefaultName        = "Default template"
	DefaultDescription = "Built-in photocard template"
	DefaultImageURL    = "classpath:/templates/default-template.png"
	DefaultWidth       = 800
	DefaultHeight      = 600
)

// Template is a stored template.
type Template struct {
	ID               string    `json:"id" bson:"_id"`
	Name             string    `json:"name" bson:"name"`
	Description      string    `json:"description,omitempty" bson:"description,omitempty"`
	TemplateImageURL string    `json:"templateImageUrl" bson:"templateImageUrl"`
	Width            int       `json:"width" bson:"width"`
	Height           int       `json:"height" bson:"height"`
	Type             Type      `json:"type" bson:"type"`
	Active           bool      `json:"isActive" bson:"isActive"`
	LayoutConfig     string    `json:"layoutConfig,omitempty" bson:"layoutConfig,omitempty"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Layout parses the template's layout document. An empty document yields
// layout.Default for the template size.
func (t *Template) Layout() (layout.Config, error) {
	if strings.TrimSpace(t.LayoutConfig) == "" {
		return layout.Default(t.Width, t.Height), nil
	}
	return layout.Parse([]byte(t.LayoutConfig))
}

// Validate checks the fields a caller may set. It normalizes the name and
// type in place.
func (t *Template) Validate() error {
	if err := errors.ValidateTemplateName(t.Name); err != nil {
		return err
	}
	t.Name = strings.TrimSpace(t.Name)
	if t.Width <= 0 || t.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "template size must be positive, got %dx%d", t.Width, t.Height)
	}
	if t.Type == "" {
		t.Type = TypeCustom
	}
	typ, err := ParseType(string(t.Type))
	if err != nil {
		return err
	}
	t.Type = typ
	if t.LayoutConfig != "" {
		if _, err := layout.Parse([]byte(t.LayoutConfig)); err != nil {
			return err
		}
	}
	return nil
}

// NewDefault returns the built-in template: the classic 800×600 layout
// over the bundled template image.
func NewDefault() *Template {
	doc, _ := layout.Marshal(layout.Template())
	return &Template{
		Name:             DefaultName,
		Description:      DefaultDescription,
		TemplateImageURL: DefaultImageURL,
		Width:            DefaultWidth,
		Height:           DefaultHeight,
		Type:             TypeClassic,
		Active:           true,
		LayoutConfig:     string(doc),
	}
}

// Store persists templates. Implementations must be safe for concurrent use.
type Store interface {
	// List returns active templates, oldest first.
	List(ctx context.Context) ([]*Template, error)

	// ListByType returns active templates of one type, oldest first.
	ListByType(ctx context.Context, t Type) ([]*Template, error)

	// Get returns a template by id, active or not.
	Get(ctx context.Context, id string) (*Template, error)

	// GetByName returns a template by its unique name, active or not.
	GetByName(ctx context.Context, name string) (*Template, error)

	// Create stores a new template and assigns its id and timestamps.
	// Names are unique across active and inactive templates.
	Create(ctx context.Context, t *Template) (*Template, error)

	// Update replaces the mutable fields of an existing template.
	Update(ctx context.Context, id string, t *Template) (*Template, error)

	// Delete deactivates a template.
	Delete(ctx context.Context, id string) error

	Close(ctx context.Context) error
}

// Default returns the oldest active template. When none is active the
// built-in template is created, or reactivated if it was deleted.
func Default(ctx context.Context, s Store) (*Template, error) {
	active, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		return active[0], nil
	}

	created, err := s.Create(ctx, NewDefault())
	if !errors.Is(err, errors.ErrCodeConflict) {
		return created, err
	}

	existing, err := s.GetByName(ctx, DefaultName)
	if err != nil {
		return nil, err
	}
	existing.Active = true
	return s.Update(ctx, existing.ID, existing)
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeTemplateNotFound, "template %s not found", id)
}

func nameTaken(name string) error {
	return errors.New(errors.ErrCodeConflict, "template name %q already exists", name)
}
