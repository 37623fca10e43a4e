// Package server exposes the photocard renderer over HTTP.
//
// Routes:
//
//	GET    /api/health
//	POST   /api/render                  render request → image bytes
//	POST   /api/photocards              artwork + conversation → stored card
//	POST   /api/photocards/upload       multipart image + artwork → stored card
//	GET    /api/photocards              ?artworkId= or ?conversationId=
//	GET    /api/photocards/{id}
//	GET    /api/photocards/{id}/preview
//	GET    /api/photocards/{id}/download
//	DELETE /api/photocards/{id}         card and its image
//	POST   /api/artworks/{artworkId}/select
//	POST   /api/files/upload            multipart file → stored file
//	GET    /api/files/{id}/preview      stored file, inline
//	GET    /api/files/{id}/download     stored file, as attachment
//	DELETE /api/files/{id}
//	GET    /api/templates               active templates
//	GET    /api/templates/default
//	GET    /api/templates/type/{type}
//	GET    /api/templates/{id}
//	POST   /api/templates
//	PUT    /api/templates/{id}
//	DELETE /api/templates/{id}          deactivates
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/photocard/pkg/buildinfo"
	"github.com/matzehuels/photocard/pkg/errors"
	"github.com/matzehuels/photocard/pkg/httputil"
	"github.com/matzehuels/photocard/pkg/integrations/chat"
	"github.com/matzehuels/photocard/pkg/integrations/exhibition"
	"github.com/matzehuels/photocard/pkg/pipeline"
	"github.com/matzehuels/photocard/pkg/record"
	"github.com/matzehuels/photocard/pkg/storage"
	"github.com/matzehuels/photocard/pkg/template"
)

const (
	maxBodyBytes    = 16 << 20
	shutdownTimeout = 10 * time.Second
)

// ArtworkSource looks up artworks. A failed lookup still yields a record.
type ArtworkSource interface {
	FetchArtworkOrStub(ctx context.Context, id int64) (*exhibition.Artwork, error)
}

// CreditSource looks up the ending credit of a conversation.
type CreditSource interface {
	FetchEndingCredit(ctx context.Context, conversationID int64, refresh bool) (*chat.EndingCredit, error)
}

// Options wires the server to its collaborators. Runner, Templates and Files
// are required.
type Options struct {
	Runner    *pipeline.Runner
	Templates template.Store
	Files     storage.Store

	// Records keeps card records and selections. An in-memory store is
	// used when nil.
	Records record.Store

	// Artworks and Credits may be nil: cards then use a stub artwork and
	// carry no conversation summary.
	Artworks ArtworkSource
	Credits  CreditSource

	// BaseURL prefixes the links of stored cards.
	BaseURL string

	AllowedOrigins []string

	Logger *log.Logger
}

// Server serves the photocard API.
type Server struct {
	runner    *pipeline.Runner
	templates template.Store
	files     storage.Store
	records   record.Store
	artworks  ArtworkSource
	credits   CreditSource
	baseURL   string
	origins   []string
	logger    *log.Logger
	now       func() time.Time
}

func New(opts Options) *Server {
	s := &Server{
		runner:    opts.Runner,
		templates: opts.Templates,
		files:     opts.Files,
		records:   opts.Records,
		artworks:  opts.Artworks,
		credits:   opts.Credits,
		baseURL:   opts.BaseURL,
		origins:   opts.AllowedOrigins,
		logger:    opts.Logger,
		now:       time.Now,
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.records == nil {
		s.records = record.NewMemoryStore()
	}
	return s
}

// Handler returns the complete HTTP handler including CORS and request
// logging.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition", headerFallbacks, headerCache},
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	r.Route("/api", s.Attach)

	return r
}

// Attach registers the API routes on r.
func (s *Server) Attach(r chi.Router) {
	r.Get("/health", s.handleHealth)

	r.Post("/render", s.handleRender)
	r.Route("/photocards", func(r chi.Router) {
		r.Get("/", s.handleListPhotocards)
		r.Post("/", s.handleCreatePhotocard)
		r.Post("/upload", s.handleUploadPhotocard)
		r.Get("/{id}", s.handleGetPhotocard)
		r.Get("/{id}/preview", s.handlePreviewPhotocard)
		r.Get("/{id}/download", s.handleDownloadPhotocard)
		r.Delete("/{id}", s.handleDeletePhotocard)
	})
	r.Post("/artworks/{artworkId}/select", s.handleSelectArtwork)

	r.Post("/files/upload", s.handleUploadFile)
	r.Get("/files/{id}/preview", s.handlePreviewFile)
	r.Get("/files/{id}/download", s.handleDownloadFile)
	r.Delete("/files/{id}", s.handleDeleteFile)

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", s.handleListTemplates)
		r.Post("/", s.handleCreateTemplate)
		r.Get("/default", s.handleDefaultTemplate)
		r.Get("/type/{type}", s.handleListTemplatesByType)
		r.Get("/{id}", s.handleGetTemplate)
		r.Put("/{id}", s.handleUpdateTemplate)
		r.Delete("/{id}", s.handleDeleteTemplate)
	})
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJson(w, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}

// =============================================================================
// Responses
// =============================================================================

func readJson(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(v)
}

func writeJsonStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.WriteHeader(code)

	text := http.StatusText(code)

	if err != nil {
		text = err.Error()
	}

	w.Write([]byte(text))
}

// fail writes err with the status its code maps to. Internal failures are
// logged and reported without detail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		if code == http.StatusInternalServerError {
			writeError(w, code, nil)
			return
		}
	}
	writeError(w, code, stderrors.New(errors.UserMessage(err)))
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath, errors.ErrCodeInvalidLayout:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeTemplateNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeConflict:
		return http.StatusConflict
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	}
	switch {
	case stderrors.Is(err, httputil.ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, httputil.ErrNetwork):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
