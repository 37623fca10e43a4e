package server

import (
	"net/http"
	"strconv"

	"github.com/matzehuels/photocard/pkg/errors"
	"github.com/matzehuels/photocard/pkg/pipeline"
)

const (
	headerFallbacks = "X-Photocard-Fallbacks"
	headerCache     = "X-Photocard-Cache"
)

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req pipeline.RenderRequest

	if err := readJson(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	if pipeline.MIMEType(req.Format) == "" {
		s.fail(w, r, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q: must be jpeg or png", req.Format))
		return
	}

	result, err := s.runner.Render(r.Context(), req)

	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeImage(w, result)
}

func writeImage(w http.ResponseWriter, result *pipeline.Result) {
	cacheStatus := "miss"
	if result.CacheHit {
		cacheStatus = "hit"
	}

	w.Header().Set("Content-Type", result.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.Header().Set(headerFallbacks, strconv.Itoa(len(result.Fallbacks)))
	w.Header().Set(headerCache, cacheStatus)

	w.Write(result.Data)
}
