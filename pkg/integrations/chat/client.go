// Package chat is a client for the conversation service, which produces an
// ending credit when a visitor finishes a conversation about artworks.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/photocard/pkg/cache"
	"github.com/matzehuels/photocard/pkg/integrations"
)

// EndingCredit summarizes a finished conversation.
type EndingCredit struct {
	ID                  int64     `json:"id"`
	SessionID           int64     `json:"sessionId"`
	ArtworkIDs          []int64   `json:"artworkIds,omitempty"`
	ConversationSummary string    `json:"conversationSummary,omitempty"`
	Participants        string    `json:"participants,omitempty"`
	Duration            string    `json:"duration,omitempty"`
	Metadata            string    `json:"metadata,omitempty"`
	CreatedAt           time.Time `json:"createdAt,omitzero"`
}

// Summary returns the trimmed conversation summary, or "" for a nil credit.
func (e *EndingCredit) Summary() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.ConversationSummary)
}

// Client provides access to the conversation service API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a chat client for the service at baseURL.
// Responses are cached in backend for cacheTTL; pass nil to disable caching.
func NewClient(baseURL string, backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "chat", cacheTTL, nil),
		baseURL: baseURL,
	}
}

// FetchEndingCredit retrieves the ending credit of a conversation.
//
// Returns [integrations.ErrNotFound] if the conversation has no ending
// credit yet and [integrations.ErrNetwork] for HTTP failures.
func (c *Client) FetchEndingCredit(ctx context.Context, conversationID int64, refresh bool) (*EndingCredit, error) {
	var credit EndingCredit
	err := c.Cached(ctx, integrations.FormatID(conversationID), refresh, &credit, func() error {
		return c.fetch(ctx, conversationID, &credit)
	})
	if err != nil {
		return nil, err
	}
	return &credit, nil
}

func (c *Client) fetch(ctx context.Context, conversationID int64, credit *EndingCredit) error {
	url, err := integrations.Endpoint(c.baseURL, "api", "ending-credits", "session", integrations.FormatID(conversationID))
	if err != nil {
		return err
	}
	if err := c.Get(ctx, url, credit); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: ending credit for conversation %d", err, conversationID)
		}
		return err
	}
	return nil
}
