package record

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/photocard/pkg/errors"
	"github.com/matzehuels/photocard/pkg/pipeline"
	"github.com/matzehuels/photocard/pkg/storage"
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

func sample(fileID string, artwork, conversation int64) *Photocard {
	return &Photocard{
		FileID:         fileID,
		ArtworkID:      artwork,
		ConversationID: conversation,
		TemplateID:     "tmpl",
		Title:          "Water Lilies",
		ContentType:    "image/jpeg",
		Width:          800,
		Height:         600,
		URLs:           storage.LinksFor("http://cards.test", fileID),
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
	suffix := time.Now().Format("150405.000")
	s, err := NewMongoStore(ctx, MongoOptions{
		URI:                 uri,
		Database:            "photocard_test",
		Collection:          "photocards_" + suffix,
		SelectionCollection: "selections_" + suffix,
	})
	require.NoError(t, err)
	s.now = fakeClock()
	t.Cleanup(func() {
		_ = s.cards.Drop(ctx)
		_ = s.selections.Drop(ctx)
		_ = s.Close(ctx)
	})
	testStore(t, s)
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	first := sample("file-a", 7, 12)
	first.Fallbacks = []pipeline.Fallback{{Kind: pipeline.FallbackImage, Target: "artwork", Reason: "unreachable"}}
	first, err := s.Create(ctx, first)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, SourceExhibition, first.Source)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := s.Create(ctx, sample("file-b", 7, 13))
	require.NoError(t, err)
	other, err := s.Create(ctx, sample("file-c", 8, 12))
	require.NoError(t, err)

	t.Run("get", func(t *testing.T) {
		got, err := s.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "file-a", got.FileID)
		assert.Equal(t, first.Preview, got.Preview)
		require.Len(t, got.Fallbacks, 1)
		assert.Equal(t, "artwork", got.Fallbacks[0].Target)

		_, err = s.Get(ctx, "missing")
		assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := s.Create(ctx, sample("file-d", 0, 1))
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
		_, err = s.Create(ctx, sample("../etc", 1, 1))
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	})

	t.Run("list by artwork", func(t *testing.T) {
		got, err := s.ListByArtwork(ctx, 7)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, first.ID, got[0].ID)
		assert.Equal(t, second.ID, got[1].ID)

		none, err := s.ListByArtwork(ctx, 99)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("list by conversation", func(t *testing.T) {
		got, err := s.ListByConversation(ctx, 12)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, first.ID, got[0].ID)
		assert.Equal(t, other.ID, got[1].ID)
	})

	t.Run("find", func(t *testing.T) {
		got, err := s.Find(ctx, 13, 7)
		require.NoError(t, err)
		assert.Equal(t, second.ID, got.ID)

		_, err = s.Find(ctx, 13, 8)
		assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
	})

	t.Run("selections", func(t *testing.T) {
		a, err := s.Select(ctx, &Selection{ArtworkID: 7, ConversationID: 12})
		require.NoError(t, err)
		assert.NotEmpty(t, a.ID)
		assert.False(t, a.SelectedAt.IsZero())
		_, err = s.Select(ctx, &Selection{ArtworkID: 7})
		require.NoError(t, err)
		_, err = s.Select(ctx, &Selection{ArtworkID: 8})
		require.NoError(t, err)

		got, err := s.Selections(ctx, 7)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, a.ID, got[0].ID)
		assert.Equal(t, int64(12), got[0].ConversationID)

		_, err = s.Select(ctx, &Selection{})
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, other.ID))
		_, err := s.Get(ctx, other.ID)
		assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
		assert.True(t, errors.Is(s.Delete(ctx, other.ID), errors.ErrCodeNotFound))
	})
}

func TestMemoryStoreCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	in := sample("file-a", 1, 1)
	in.Fallbacks = []pipeline.Fallback{{Kind: pipeline.FallbackLayout}}
	created, err := s.Create(ctx, in)
	require.NoError(t, err)

	created.Title = "changed"
	created.Fallbacks[0].Kind = "changed"

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Water Lilies", got.Title)
	assert.Equal(t, pipeline.FallbackLayout, got.Fallbacks[0].Kind)
}
