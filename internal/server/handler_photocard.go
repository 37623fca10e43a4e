package server

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/photocard/pkg/errors"
	"github.com/matzehuels/photocard/pkg/integrations/exhibition"
	"github.com/matzehuels/photocard/pkg/pipeline"
	"github.com/matzehuels/photocard/pkg/record"
	"github.com/matzehuels/photocard/pkg/storage"
	"github.com/matzehuels/photocard/pkg/template"
)

// Substitution names filled from the collaborating services.
const (
	VarSummary    = "summary"
	VarArtist     = "artist"
	VarExhibition = "exhibition"
)

type photocardRequest struct {
	ArtworkID      int64  `json:"artworkId"`
	ConversationID int64  `json:"conversationId,omitempty"`
	SessionID      int64  `json:"sessionId,omitempty"`
	TemplateID     string `json:"templateId,omitempty"`
	Format         string `json:"format,omitempty"`
}

// conversation returns the conversation id; sessionId is an accepted alias.
func (req photocardRequest) conversation() int64 {
	if req.ConversationID != 0 {
		return req.ConversationID
	}
	return req.SessionID
}

func (req photocardRequest) validate() error {
	if req.ArtworkID <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "artworkId is required")
	}
	if req.Format != "" && pipeline.MIMEType(req.Format) == "" {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q: must be jpeg or png", req.Format)
	}
	return nil
}

// =============================================================================
// Creation
// =============================================================================

func (s *Server) handleCreatePhotocard(w http.ResponseWriter, r *http.Request) {
	var req photocardRequest

	if err := readJson(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := req.validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	card, err := s.createPhotocard(r.Context(), req, nil)

	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJsonStatus(w, http.StatusCreated, card)
}

func (s *Server) handleUploadPhotocard(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(w, r, "file")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := up.requireImage(); err != nil {
		s.fail(w, r, err)
		return
	}

	req, err := photocardForm(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	card, err := s.createPhotocard(r.Context(), req, up)

	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJsonStatus(w, http.StatusCreated, card)
}

// handleSelectArtwork records a selection and returns the card of the
// artwork in the conversation, making it on first selection.
func (s *Server) handleSelectArtwork(w http.ResponseWriter, r *http.Request) {
	artworkID, err := parseID(chi.URLParam(r, "artworkId"), "artworkId")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req photocardRequest
	if err := readOptionalJson(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	req.ArtworkID = artworkID

	if err := req.validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	ctx := r.Context()
	conversationID := req.conversation()

	if _, err := s.records.Select(ctx, &record.Selection{ArtworkID: artworkID, ConversationID: conversationID}); err != nil {
		s.fail(w, r, err)
		return
	}

	if conversationID != 0 {
		existing, err := s.records.Find(ctx, conversationID, artworkID)
		if err == nil {
			writeJson(w, existing)
			return
		}
		if !errors.Is(err, errors.ErrCodeNotFound) {
			s.fail(w, r, err)
			return
		}
	}

	card, err := s.createPhotocard(ctx, req, nil)

	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJson(w, card)
}

// createPhotocard renders a card for req, stores the image and records it.
// An uploaded image replaces the artwork image of the exhibition record.
func (s *Server) createPhotocard(ctx context.Context, req photocardRequest, up *upload) (*record.Photocard, error) {
	tmpl, err := s.resolveTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}

	art := *s.artwork(ctx, req.ArtworkID)
	source := record.SourceExhibition
	if up != nil {
		art.ImageURL = up.dataURI()
		source = record.SourceUpload
	}

	conversationID := req.conversation()
	summary := s.summary(ctx, conversationID)

	result, err := s.runner.Render(ctx, pipeline.RenderRequest{
		Width:            tmpl.Width,
		Height:           tmpl.Height,
		LayoutSource:     tmpl.LayoutConfig,
		TemplateImageURL: tmpl.TemplateImageURL,
		Artwork: pipeline.Artwork{
			Title:       art.Title,
			Description: art.Description,
			ImageURL:    art.ImageURL,
		},
		Substitutions: map[string]string{
			VarSummary:    summary,
			VarArtist:     art.Artist,
			VarExhibition: art.ExhibitionTitle,
		},
		Format: req.Format,
	})
	if err != nil {
		return nil, err
	}

	obj, err := s.files.Put(ctx, result.Data, result.MIMEType)
	if err != nil {
		return nil, err
	}

	card, err := s.records.Create(ctx, &record.Photocard{
		FileID:         obj.Key,
		ArtworkID:      req.ArtworkID,
		ConversationID: conversationID,
		TemplateID:     tmpl.ID,
		Source:         source,
		Title:          art.Title,
		Summary:        summary,
		ArtworkStub:    art.Stub,
		ContentType:    obj.ContentType,
		Size:           obj.Size,
		Width:          result.Width,
		Height:         result.Height,
		URLs:           storage.LinksFor(s.baseURL, obj.Key),
		Fallbacks:      result.Fallbacks,
	})
	if err != nil {
		if derr := s.files.Delete(ctx, obj.Key); derr != nil {
			s.logger.Warn("orphaned photocard file", "file", obj.Key, "err", derr)
		}
		return nil, err
	}

	s.logger.Info("created photocard",
		"id", card.ID,
		"file", obj.Key,
		"artwork", req.ArtworkID,
		"conversation", conversationID,
		"template", tmpl.ID,
		"source", source)

	return card, nil
}

// resolveTemplate returns the requested active template, or the default
// template when id is empty.
func (s *Server) resolveTemplate(ctx context.Context, id string) (*template.Template, error) {
	if id == "" {
		return template.Default(ctx, s.templates)
	}
	tmpl, err := s.templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tmpl.Active {
		return nil, errors.New(errors.ErrCodeTemplateNotFound, "template %s is not active", id)
	}
	return tmpl, nil
}

func (s *Server) artwork(ctx context.Context, id int64) *exhibition.Artwork {
	if s.artworks == nil {
		return exhibition.Stub(id)
	}
	art, err := s.artworks.FetchArtworkOrStub(ctx, id)
	if err != nil {
		s.logger.Warn("artwork unavailable, using stub", "artwork", id, "err", err)
	}
	return art
}

// summary returns the conversation summary, or "" when there is none.
func (s *Server) summary(ctx context.Context, conversationID int64) string {
	if conversationID == 0 || s.credits == nil {
		return ""
	}
	credit, err := s.credits.FetchEndingCredit(ctx, conversationID, false)
	if err != nil {
		s.logger.Warn("ending credit unavailable", "conversation", conversationID, "err", err)
		return ""
	}
	return credit.Summary()
}

// =============================================================================
// Lookup
// =============================================================================

func (s *Server) handleGetPhotocard(w http.ResponseWriter, r *http.Request) {
	card, err := s.records.Get(r.Context(), chi.URLParam(r, "id"))

	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJson(w, card)
}

// handleListPhotocards lists the cards of ?artworkId=, or of
// ?conversationId= (alias ?sessionId=).
func (s *Server) handleListPhotocards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	var (
		cards []*record.Photocard
		err   error
	)
	switch {
	case q.Get("artworkId") != "":
		var id int64
		if id, err = parseID(q.Get("artworkId"), "artworkId"); err == nil {
			cards, err = s.records.ListByArtwork(ctx, id)
		}
	case q.Get("conversationId") != "" || q.Get("sessionId") != "":
		raw := q.Get("conversationId")
		if raw == "" {
			raw = q.Get("sessionId")
		}
		var id int64
		if id, err = parseID(raw, "conversationId"); err == nil {
			cards, err = s.records.ListByConversation(ctx, id)
		}
	default:
		err = errors.New(errors.ErrCodeInvalidInput, "artworkId or conversationId is required")
	}

	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJson(w, nonNil(cards))
}

func (s *Server) handlePreviewPhotocard(w http.ResponseWriter, r *http.Request) {
	s.servePhotocard(w, r, "inline")
}

func (s *Server) handleDownloadPhotocard(w http.ResponseWriter, r *http.Request) {
	s.servePhotocard(w, r, "attachment")
}

func (s *Server) servePhotocard(w http.ResponseWriter, r *http.Request, disposition string) {
	card, err := s.records.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.serveObject(w, r, card.FileID, disposition)
}

// handleDeletePhotocard removes a card and its image.
func (s *Server) handleDeletePhotocard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	card, err := s.records.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.files.Delete(ctx, card.FileID); err != nil && !errors.Is(err, errors.ErrCodeFileNotFound) {
		s.fail(w, r, err)
		return
	}

	if err := s.records.Delete(ctx, card.ID); err != nil {
		s.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

// photocardForm reads the creation fields of a multipart upload.
func photocardForm(r *http.Request) (photocardRequest, error) {
	var (
		req photocardRequest
		err error
	)
	if req.ArtworkID, err = parseID(r.FormValue("artworkId"), "artworkId"); err != nil {
		return req, err
	}
	for field, dst := range map[string]*int64{"conversationId": &req.ConversationID, "sessionId": &req.SessionID} {
		if v := r.FormValue(field); v != "" {
			if *dst, err = parseID(v, field); err != nil {
				return req, err
			}
		}
	}
	req.TemplateID = r.FormValue("templateId")
	req.Format = r.FormValue("format")
	return req, req.validate()
}

func parseID(s, field string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a positive integer, got %q", field, s)
	}
	return id, nil
}

// readOptionalJson is readJson for requests whose body may be empty.
func readOptionalJson(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	if err := readJson(r, v); err != nil && !stderrors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (u *upload) dataURI() string {
	return "data:" + u.contentType + ";base64," + base64.StdEncoding.EncodeToString(u.data)
}
