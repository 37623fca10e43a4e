package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/photocard/pkg/template"
)

// templateRequest carries the caller-settable template fields. Zero fields
// keep the current value on update.
type templateRequest struct {
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	TemplateImageURL string        `json:"templateImageUrl"`
	Width            int           `json:"width"`
	Height           int           `json:"height"`
	Type             template.Type `json:"type"`
	Active           *bool         `json:"isActive"`
	LayoutConfig     string        `json:"layoutConfig"`
}

func (req templateRequest) apply(t *template.Template) {
	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Description != "" {
		t.Description = req.Description
	}
	if req.TemplateImageURL != "" {
		t.TemplateImageURL = req.TemplateImageURL
	}
	if req.Width != 0 {
		t.Width = req.Width
	}
	if req.Height != 0 {
		t.Height = req.Height
	}
	if req.Type != "" {
		t.Type = req.Type
	}
	if req.Active != nil {
		t.Active = *req.Active
	}
	if req.LayoutConfig != "" {
		t.LayoutConfig = req.LayoutConfig
	}
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.templates.List(r.Context())

	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJson(w, nonNil(list))
}

func (s *Server) handleListTemplatesByType(w http.ResponseWriter, r *http.Request) {
	typ, err := template.ParseType(chi.URLParam(r, "type"))

	if err != nil {
		s.fail(w, r, err)
		return
	}

	list, err := s.templates.ListByType(r.Context(), typ)

	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJson(w, nonNil(list))
}

func (s *Server) handleDefaultTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := template.Default(r.Context(), s.templates)

	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJson(w, tmpl)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.templates.Get(r.Context(), chi.URLParam(r, "id"))

	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJson(w, tmpl)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest

	if err := readJson(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	tmpl := &template.Template{
		Width:  template.DefaultWidth,
		Height: template.DefaultHeight,
		Active: true,
	}
	req.apply(tmpl)

	created, err := s.templates.Create(r.Context(), tmpl)

	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Info("created template", "id", created.ID, "name", created.Name)
	writeJsonStatus(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req templateRequest

	if err := readJson(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	tmpl, err := s.templates.Get(r.Context(), id)

	if err != nil {
		s.fail(w, r, err)
		return
	}

	req.apply(tmpl)

	updated, err := s.templates.Update(r.Context(), id, tmpl)

	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJson(w, updated)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.templates.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Info("deactivated template", "id", chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func nonNil[T any](list []*T) []*T {
	if list == nil {
		return []*T{}
	}
	return list
}
