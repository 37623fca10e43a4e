// Package record keeps track of the photocards the service has made and of
// the artworks visitors selected.
//
// A [Photocard] points at the stored image by its file id and carries what
// was known when it was rendered: the artwork, the conversation, the
// template and every fallback taken. A [Selection] is written each time an
// artwork is chosen at the end of a conversation; selecting the same artwork
// again in the same conversation returns the card made the first time.
//
// Two stores are provided: [MemoryStore] for the CLI and tests, and
// [MongoStore] for the service.
package record

import (
	"context"
	"time"

	"github.com/matzehuels/photocard/pkg/errors"
	"github.com/matzehuels/photocard/pkg/pipeline"
	"github.com/matzehuels/photocard/pkg/storage"
)

// Source tells how the artwork image of a card was obtained.
type Source string

const (
	// SourceExhibition cards use the image of the exhibition record.
	SourceExhibition Source = "EXHIBITION"
	// SourceUpload cards use an image uploaded with the request.
	SourceUpload Source = "UPLOAD"
)

// Photocard describes a rendered and stored card.
type Photocard struct {
	ID             string `json:"id" bson:"_id"`
	FileID         string `json:"fileId" bson:"fileId"`
	ArtworkID      int64  `json:"artworkId" bson:"artworkId"`
	ConversationID int64  `json:"conversationId,omitempty" bson:"conversationId,omitempty"`
	TemplateID     string `json:"templateId" bson:"templateId"`
	Source         Source `json:"source" bson:"source"`

	Title   string `json:"title" bson:"title"`
	Summary string `json:"summary,omitempty" bson:"summary,omitempty"`

	// ArtworkStub is true when the exhibition service could not provide
	// the artwork and a stub record was used.
	ArtworkStub bool `json:"artworkStub,omitempty" bson:"artworkStub,omitempty"`

	ContentType string `json:"contentType" bson:"contentType"`
	Size        int64  `json:"size" bson:"size"`
	Width       int    `json:"width" bson:"width"`
	Height      int    `json:"height" bson:"height"`

	storage.URLs `bson:",inline"`

	Fallbacks []pipeline.Fallback `json:"fallbacks,omitempty" bson:"fallbacks,omitempty"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
}

// Selection records that an artwork was chosen.
type Selection struct {
	ID             string    `json:"id" bson:"_id"`
	ArtworkID      int64     `json:"artworkId" bson:"artworkId"`
	ConversationID int64     `json:"conversationId,omitempty" bson:"conversationId,omitempty"`
	SelectedAt     time.Time `json:"selectedAt" bson:"selectedAt"`
}

// Store persists photocards and selections. Implementations must be safe
// for concurrent use.
type Store interface {
	// Create stores a new card and assigns its id and creation time.
	Create(ctx context.Context, p *Photocard) (*Photocard, error)

	// Get returns a card by id. Missing cards are NOT_FOUND.
	Get(ctx context.Context, id string) (*Photocard, error)

	// ListByArtwork returns the cards of an artwork, oldest first.
	ListByArtwork(ctx context.Context, artworkID int64) ([]*Photocard, error)

	// ListByConversation returns the cards of a conversation, oldest first.
	ListByConversation(ctx context.Context, conversationID int64) ([]*Photocard, error)

	// Find returns the oldest card of an artwork within a conversation.
	// Missing cards are NOT_FOUND.
	Find(ctx context.Context, conversationID, artworkID int64) (*Photocard, error)

	// Delete removes a card. Missing cards are NOT_FOUND.
	Delete(ctx context.Context, id string) error

	// Select stores a selection and assigns its id and time.
	Select(ctx context.Context, s *Selection) (*Selection, error)

	// Selections returns the selections of an artwork, oldest first.
	Selections(ctx context.Context, artworkID int64) ([]*Selection, error)

	Close(ctx context.Context) error
}

func validate(p *Photocard) error {
	if p.ArtworkID <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "photocard needs an artwork id")
	}
	if err := errors.ValidateObjectKey(p.FileID); err != nil {
		return err
	}
	if p.Source == "" {
		p.Source = SourceExhibition
	}
	return nil
}

func validateSelection(s *Selection) error {
	if s.ArtworkID <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "selection needs an artwork id")
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "photocard %s not found", id)
}

func notFoundFor(conversationID, artworkID int64) error {
	return errors.New(errors.ErrCodeNotFound, "no photocard for artwork %d in conversation %d", artworkID, conversationID)
}
