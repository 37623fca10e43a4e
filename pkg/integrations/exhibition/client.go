// Package exhibition is a client for the exhibition service, which owns
// artwork records.
package exhibition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/photocard/pkg/cache"
	"github.com/matzehuels/photocard/pkg/integrations"
)

// Artwork is an artwork record of the exhibition service.
//
// ImageURL may be empty; the photocard then shows a placeholder.
type Artwork struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Artist          string `json:"artist,omitempty"`
	ImageURL        string `json:"imageUrl,omitempty"`
	LicenseInfo     string `json:"licenseInfo,omitempty"`
	ExhibitionID    int64  `json:"exhibitionId,omitempty"`
	ExhibitionTitle string `json:"exhibitionTitle,omitempty"`
	Metadata        string `json:"metadata,omitempty"`

	// Stub is true when the record was not fetched but synthesized by
	// FetchArtworkOrStub.
	Stub bool `json:"-"`
}

// Client provides access to the exhibition service API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an exhibition client for the service at baseURL.
// Responses are cached in backend for cacheTTL; pass nil to disable caching.
func NewClient(baseURL string, backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "exhibition", cacheTTL, nil),
		baseURL: baseURL,
	}
}

// FetchArtwork retrieves an artwork by id.
//
// If refresh is true, the cache is bypassed and a fresh API call is made.
//
// Returns:
//   - [integrations.ErrNotFound] if the artwork doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures
func (c *Client) FetchArtwork(ctx context.Context, id int64, refresh bool) (*Artwork, error) {
	var art Artwork
	err := c.Cached(ctx, integrations.FormatID(id), refresh, &art, func() error {
		return c.fetch(ctx, id, &art)
	})
	if err != nil {
		return nil, err
	}
	return &art, nil
}

// FetchArtworkOrStub is FetchArtwork that never fails: when the service
// cannot answer it returns a stub record titled after the id, without an
// image, and the error that caused it.
func (c *Client) FetchArtworkOrStub(ctx context.Context, id int64) (*Artwork, error) {
	art, err := c.FetchArtwork(ctx, id, false)
	if err == nil {
		return art, nil
	}
	return Stub(id), err
}

// Stub returns the placeholder record used when an artwork is unavailable.
func Stub(id int64) *Artwork {
	return &Artwork{
		ID:          id,
		Title:       fmt.Sprintf("Artwork %d", id),
		Description: "Artwork details are currently unavailable.",
		Stub:        true,
	}
}

func (c *Client) fetch(ctx context.Context, id int64, art *Artwork) error {
	url, err := integrations.Endpoint(c.baseURL, "api", "artworks", integrations.FormatID(id))
	if err != nil {
		return err
	}
	if err := c.Get(ctx, url, art); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: artwork %d", err, id)
		}
		return err
	}
	if art.ID == 0 {
		art.ID = id
	}
	return nil
}
