package template

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/photocard/pkg/errors"
	"github.com/matzehuels/photocard/pkg/layout"
)

// fakeClock returns strictly increasing times.
func fakeClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func sample(name string, typ Type) *Template {
	return &Template{
		Name:             name,
		TemplateImageURL: "registry:templates/frame.png",
		Width:            600,
		Height:           400,
		Type:             typ,
		Active:           true,
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	s.now = fakeClock()
	testStore(t, s)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("PHOTOCARD_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("PHOTOCARD_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, MongoOptions{
		URI:        uri,
		Database:   "photocard_test",
		Collection: "templates_" + time.Now().Format("150405.000"),
	})
	require.NoError(t, err)
	s.now = fakeClock()
	t.Cleanup(func() {
		_ = s.coll.Drop(ctx)
		_ = s.Close(ctx)
	})
	testStore(t, s)
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	classic, err := s.Create(ctx, sample("Gallery", TypeClassic))
	require.NoError(t, err)
	assert.NotEmpty(t, classic.ID)
	assert.False(t, classic.CreatedAt.IsZero())

	modern, err := s.Create(ctx, sample("  Neon  ", "modern"))
	require.NoError(t, err)
	assert.Equal(t, "Neon", modern.Name)
	assert.Equal(t, TypeModern, modern.Type)

	t.Run("unique names", func(t *testing.T) {
		_, err := s.Create(ctx, sample("Gallery", TypeMinimal))
		assert.True(t, errors.Is(err, errors.ErrCodeConflict), "got %v", err)

		renamed := sample("Gallery", TypeModern)
		_, err = s.Update(ctx, modern.ID, renamed)
		assert.True(t, errors.Is(err, errors.ErrCodeConflict), "got %v", err)
	})

	t.Run("invalid input", func(t *testing.T) {
		for _, bad := range []*Template{
			sample("", TypeClassic),
			{Name: "zero", Type: TypeClassic},
			sample("weird", "BAROQUE"),
			func() *Template { tpl := sample("broken", TypeCustom); tpl.LayoutConfig = "{"; return tpl }(),
		} {
			_, err := s.Create(ctx, bad)
			assert.Error(t, err, "Create(%+v)", bad)
		}
	})

	t.Run("list and filter", func(t *testing.T) {
		all, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, classic.ID, all[0].ID)

		byType, err := s.ListByType(ctx, TypeModern)
		require.NoError(t, err)
		require.Len(t, byType, 1)
		assert.Equal(t, modern.ID, byType[0].ID)
	})

	t.Run("update", func(t *testing.T) {
		change := sample("Gallery", TypeArtistic)
		change.Description = "now artistic"
		updated, err := s.Update(ctx, classic.ID, change)
		require.NoError(t, err)
		assert.Equal(t, TypeArtistic, updated.Type)
		assert.True(t, classic.CreatedAt.Equal(updated.CreatedAt))
		assert.True(t, updated.UpdatedAt.After(classic.UpdatedAt))

		_, err = s.Update(ctx, "missing", change)
		assert.True(t, errors.Is(err, errors.ErrCodeTemplateNotFound), "got %v", err)
	})

	t.Run("soft delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, modern.ID))

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)

		got, err := s.Get(ctx, modern.ID)
		require.NoError(t, err)
		assert.False(t, got.Active)

		err = s.Delete(ctx, "missing")
		assert.True(t, errors.Is(err, errors.ErrCodeTemplateNotFound), "got %v", err)
	})

	t.Run("default", func(t *testing.T) {
		got, err := Default(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, classic.ID, got.ID, "oldest active template is the default")

		require.NoError(t, s.Delete(ctx, classic.ID))
		created, err := Default(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, DefaultName, created.Name)
		assert.True(t, created.Active)

		// Deleting the built-in one reactivates it instead of failing on its name.
		require.NoError(t, s.Delete(ctx, created.ID))
		again, err := Default(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, created.ID, again.ID)
		assert.True(t, again.Active)
	})
}

func TestDefaultTemplateLayout(t *testing.T) {
	tpl := NewDefault()
	require.NoError(t, tpl.Validate())

	cfg, err := tpl.Layout()
	require.NoError(t, err)
	assert.Equal(t, layout.Template(), cfg)
	assert.Equal(t, DefaultImageURL, tpl.TemplateImageURL)
}

func TestTemplateLayoutEmpty(t *testing.T) {
	tpl := &Template{Width: 400, Height: 200}
	cfg, err := tpl.Layout()
	require.NoError(t, err)
	assert.Equal(t, layout.Default(400, 200), cfg)
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"classic", TypeClassic, false},
		{" MINIMAL ", TypeMinimal, false},
		{"Artistic", TypeArtistic, false},
		{"", "", true},
		{"retro", "", true},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
