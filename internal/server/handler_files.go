package server

import (
	"bytes"
	"image"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/photocard/pkg/errors"
	"github.com/matzehuels/photocard/pkg/storage"
)

// maxUploadBytes limits the file part of multipart uploads.
const maxUploadBytes = 10 << 20

func (s *Server) handlePreviewFile(w http.ResponseWriter, r *http.Request) {
	s.serveObject(w, r, chi.URLParam(r, "id"), "inline")
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	s.serveObject(w, r, chi.URLParam(r, "id"), "attachment")
}

func (s *Server) serveObject(w http.ResponseWriter, r *http.Request, key, disposition string) {
	data, obj, err := s.files.Get(r.Context(), key)

	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": obj.Filename}))
	w.Header().Set("Cache-Control", "private, max-age=3600")

	w.Write(data)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.files.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type fileResponse struct {
	FileID      string `json:"fileId"`
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	ContentType string `json:"contentType"`
	storage.URLs
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(w, r, "file")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	obj, err := s.files.Put(r.Context(), up.data, up.contentType)

	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Info("uploaded file", "file", obj.Key, "name", up.filename, "bytes", obj.Size)

	writeJsonStatus(w, http.StatusCreated, fileResponse{
		FileID:      obj.Key,
		FileName:    obj.Filename,
		FileSize:    obj.Size,
		ContentType: obj.ContentType,
		URLs:        storage.LinksFor(s.baseURL, obj.Key),
	})
}

// upload is a file part read from a multipart request.
type upload struct {
	data        []byte
	filename    string
	contentType string
}

// readUpload parses a multipart request and reads the named file part.
// Other form values stay available through r.FormValue.
func readUpload(w http.ResponseWriter, r *http.Request, field string) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "missing file part %q", field)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read file part %q", field)
	}
	switch {
	case len(data) == 0:
		return nil, errors.New(errors.ErrCodeInvalidInput, "file part %q is empty", field)
	case len(data) > maxUploadBytes:
		return nil, errors.New(errors.ErrCodeInvalidInput, "file part %q exceeds %d bytes", field, maxUploadBytes)
	}

	return &upload{
		data:        data,
		filename:    hdr.Filename,
		contentType: http.DetectContentType(data),
	}, nil
}

// requireImage rejects uploads that are not a decodable image.
func (u *upload) requireImage() error {
	if !strings.HasPrefix(u.contentType, "image/") {
		return errors.New(errors.ErrCodeUnsupported, "%s is not an image (%s)", u.filename, u.contentType)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(u.data)); err != nil {
		return errors.Wrap(errors.ErrCodeUnsupported, err, "cannot decode %s", u.filename)
	}
	return nil
}
