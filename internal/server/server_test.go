package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/photocard/pkg/buildinfo"
	"github.com/matzehuels/photocard/pkg/cache"
	"github.com/matzehuels/photocard/pkg/errors"
	"github.com/matzehuels/photocard/pkg/integrations"
	"github.com/matzehuels/photocard/pkg/integrations/chat"
	"github.com/matzehuels/photocard/pkg/integrations/exhibition"
	"github.com/matzehuels/photocard/pkg/pipeline"
	"github.com/matzehuels/photocard/pkg/record"
	"github.com/matzehuels/photocard/pkg/storage"
	"github.com/matzehuels/photocard/pkg/template"
)

const testBaseURL = "http://cards.test"

type fakeArtworks struct {
	err error
}

func (f *fakeArtworks) FetchArtworkOrStub(_ context.Context, id int64) (*exhibition.Artwork, error) {
	if f.err != nil {
		return exhibition.Stub(id), f.err
	}
	return &exhibition.Artwork{
		ID:          id,
		Title:       "Water Lilies",
		Description: "Oil on canvas",
		Artist:      "Claude Monet",
	}, nil
}

type fakeCredits struct {
	mu   sync.Mutex
	seen []int64
}

func (f *fakeCredits) FetchEndingCredit(_ context.Context, id int64, _ bool) (*chat.EndingCredit, error) {
	f.mu.Lock()
	f.seen = append(f.seen, id)
	f.mu.Unlock()
	if id == 404 {
		return nil, integrations.ErrNotFound
	}
	return &chat.EndingCredit{SessionID: id, ConversationSummary: "A talk about light."}, nil
}

type testEnv struct {
	handler   http.Handler
	artworks  *fakeArtworks
	credits   *fakeCredits
	templates *template.MemoryStore
	records   *record.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := log.New(io.Discard)

	files, err := storage.NewFileStore(t.TempDir(), logger)
	require.NoError(t, err)

	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
	t.Cleanup(func() { runner.Close() })

	env := &testEnv{
		artworks:  &fakeArtworks{},
		credits:   &fakeCredits{},
		templates: template.NewMemoryStore(),
		records:   record.NewMemoryStore(),
	}
	env.handler = New(Options{
		Runner:         runner,
		Templates:      env.templates,
		Files:          files,
		Records:        env.records,
		Artworks:       env.artworks,
		Credits:        env.credits,
		BaseURL:        testBaseURL,
		AllowedOrigins: []string{"http://localhost:3000"},
		Logger:         logger,
	}).Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// upload posts a multipart form with fields and, when file is non-nil, a
// "file" part.
func (e *testEnv) upload(t *testing.T, path string, fields map[string]string, file []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "upload.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func hasFallback(card record.Photocard, kind string) bool {
	for _, f := range card.Fallbacks {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

func decodeJson[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	health := decodeJson[healthResponse](t, rec)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, buildinfo.Version, health.Build.Version)
}

func TestRender(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/render", `{"width":200,"height":100,"format":"png","artwork":{"title":"Hello"}}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "miss", rec.Header().Get(headerCache))
	assert.NotEmpty(t, rec.Header().Get(headerFallbacks))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestRenderDefaultsToJPEG(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/render", `{"artwork":{"title":"Hello"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
}

func TestRenderBadRequests(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"width":`},
		{"unsupported format", `{"format":"gif"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/render", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPhotocardLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/photocards", `{"artworkId":7,"sessionId":12,"format":"png"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	card := decodeJson[record.Photocard](t, rec)
	assert.Equal(t, int64(7), card.ArtworkID)
	assert.Equal(t, int64(12), card.ConversationID)
	assert.Equal(t, "Water Lilies", card.Title)
	assert.Equal(t, "A talk about light.", card.Summary)
	assert.False(t, card.ArtworkStub)
	assert.NotEmpty(t, card.TemplateID)
	assert.Equal(t, "image/png", card.ContentType)
	assert.Equal(t, template.DefaultWidth, card.Width)
	assert.Equal(t, template.DefaultHeight, card.Height)
	assert.Equal(t, record.SourceExhibition, card.Source)
	assert.NotEqual(t, card.ID, card.FileID)
	assert.True(t, hasFallback(card, pipeline.FallbackImage))
	assert.Equal(t, fmt.Sprintf("%s/api/files/%s/preview", testBaseURL, card.FileID), card.Preview)
	assert.Equal(t, fmt.Sprintf("%s/api/files/%s/download", testBaseURL, card.FileID), card.Download)
	assert.Equal(t, []int64{12}, env.credits.seen)

	preview := env.do(t, http.MethodGet, "/api/files/"+card.FileID+"/preview", "")
	require.Equal(t, http.StatusOK, preview.Code)
	assert.Equal(t, "image/png", preview.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(preview.Header().Get("Content-Disposition"), "inline"))
	assert.Equal(t, card.Size, int64(preview.Body.Len()))

	download := env.do(t, http.MethodGet, "/api/files/"+card.FileID+"/download", "")
	require.Equal(t, http.StatusOK, download.Code)
	assert.Equal(t, "attachment; filename="+card.FileID+".png", download.Header().Get("Content-Disposition"))
	assert.Equal(t, preview.Body.Bytes(), download.Body.Bytes())

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/files/"+card.FileID, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/files/"+card.FileID+"/preview", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/files/"+card.FileID, "").Code)
}

func TestPhotocardRecords(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/photocards", `{"artworkId":7,"conversationId":12,"format":"png"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decodeJson[record.Photocard](t, rec)
	rec = env.do(t, http.MethodPost, "/api/photocards", `{"artworkId":8,"conversationId":12}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	second := decodeJson[record.Photocard](t, rec)

	rec = env.do(t, http.MethodGet, "/api/photocards/"+first.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeJson[record.Photocard](t, rec)
	assert.Equal(t, first.FileID, got.FileID)
	assert.Equal(t, first.Preview, got.Preview)

	tests := []struct {
		query string
		want  []string
	}{
		{"artworkId=7", []string{first.ID}},
		{"artworkId=99", []string{}},
		{"conversationId=12", []string{first.ID, second.ID}},
		{"sessionId=12", []string{first.ID, second.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/photocards?"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			ids := []string{}
			for _, c := range decodeJson[[]record.Photocard](t, rec) {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/photocards", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/photocards?artworkId=abc", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/photocards/missing", "").Code)

	download := env.do(t, http.MethodGet, "/api/photocards/"+first.ID+"/download", "")
	require.Equal(t, http.StatusOK, download.Code)
	assert.Equal(t, "attachment; filename="+first.FileID+".png", download.Header().Get("Content-Disposition"))
	preview := env.do(t, http.MethodGet, "/api/photocards/"+first.ID+"/preview", "")
	require.Equal(t, http.StatusOK, preview.Code)
	assert.Equal(t, download.Body.Bytes(), preview.Body.Bytes())

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/photocards/"+first.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/photocards/"+first.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/files/"+first.FileID+"/preview", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/photocards/"+first.ID, "").Code)

	// A card whose file is already gone can still be deleted.
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/files/"+second.FileID, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/photocards/"+second.ID+"/preview", "").Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/photocards/"+second.ID, "").Code)
}

func TestSelectArtwork(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec := env.do(t, http.MethodPost, "/api/artworks/7/select", `{"conversationId":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decodeJson[record.Photocard](t, rec)
	assert.Equal(t, int64(7), first.ArtworkID)
	assert.Equal(t, int64(5), first.ConversationID)

	rec = env.do(t, http.MethodPost, "/api/artworks/7/select", `{"sessionId":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, first.ID, decodeJson[record.Photocard](t, rec).ID)

	rec = env.do(t, http.MethodPost, "/api/artworks/7/select", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	anonymous := decodeJson[record.Photocard](t, rec)
	assert.NotEqual(t, first.ID, anonymous.ID)
	assert.Zero(t, anonymous.ConversationID)

	selections, err := env.records.Selections(ctx, 7)
	require.NoError(t, err)
	require.Len(t, selections, 3)
	assert.Equal(t, int64(5), selections[0].ConversationID)
	assert.Zero(t, selections[2].ConversationID)

	cards, err := env.records.ListByArtwork(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, cards, 2)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/artworks/abc/select", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/artworks/0/select", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/artworks/7/select", `{"format":"gif"}`).Code)
}

func TestUploadPhotocard(t *testing.T) {
	env := newTestEnv(t)

	rec := env.upload(t, "/api/photocards/upload", map[string]string{
		"artworkId": "7",
		"sessionId": "12",
		"format":    "png",
	}, pngBytes(t, 40, 30))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	card := decodeJson[record.Photocard](t, rec)
	assert.Equal(t, record.SourceUpload, card.Source)
	assert.Equal(t, int64(7), card.ArtworkID)
	assert.Equal(t, int64(12), card.ConversationID)
	assert.Equal(t, "Water Lilies", card.Title)
	assert.Equal(t, "image/png", card.ContentType)
	assert.False(t, hasFallback(card, pipeline.FallbackImage), "%+v", card.Fallbacks)

	rec = env.do(t, http.MethodGet, "/api/photocards?conversationId=12", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJson[[]record.Photocard](t, rec), 1)
}

func TestUploadPhotocardErrors(t *testing.T) {
	env := newTestEnv(t)
	img := pngBytes(t, 4, 4)

	tests := []struct {
		name   string
		fields map[string]string
		file   []byte
		want   int
	}{
		{"missing file", map[string]string{"artworkId": "7"}, nil, http.StatusBadRequest},
		{"empty file", map[string]string{"artworkId": "7"}, []byte{}, http.StatusBadRequest},
		{"not an image", map[string]string{"artworkId": "7"}, []byte("hello, world"), http.StatusUnsupportedMediaType},
		{"broken image", map[string]string{"artworkId": "7"}, img[:20], http.StatusUnsupportedMediaType},
		{"missing artwork", map[string]string{}, img, http.StatusBadRequest},
		{"bad session", map[string]string{"artworkId": "7", "sessionId": "x"}, img, http.StatusBadRequest},
		{"unsupported format", map[string]string{"artworkId": "7", "format": "gif"}, img, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.upload(t, "/api/photocards/upload", tt.fields, tt.file)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestUploadFile(t *testing.T) {
	env := newTestEnv(t)
	data := pngBytes(t, 8, 8)

	rec := env.upload(t, "/api/files/upload", nil, data)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	file := decodeJson[fileResponse](t, rec)
	assert.NotEmpty(t, file.FileID)
	assert.Equal(t, file.FileID+".png", file.FileName)
	assert.Equal(t, int64(len(data)), file.FileSize)
	assert.Equal(t, "image/png", file.ContentType)
	assert.Equal(t, fmt.Sprintf("%s/api/files/%s/preview", testBaseURL, file.FileID), file.Preview)

	preview := env.do(t, http.MethodGet, "/api/files/"+file.FileID+"/preview", "")
	require.Equal(t, http.StatusOK, preview.Code)
	assert.Equal(t, data, preview.Body.Bytes())

	assert.Equal(t, http.StatusBadRequest, env.upload(t, "/api/files/upload", nil, nil).Code)
}

func TestPhotocardConversationIDWins(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/photocards", `{"artworkId":7,"conversationId":3,"sessionId":12}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []int64{3}, env.credits.seen)
	assert.Equal(t, "image/jpeg", decodeJson[record.Photocard](t, rec).ContentType)
}

func TestPhotocardFallbacks(t *testing.T) {
	env := newTestEnv(t)
	env.artworks.err = integrations.ErrNetwork

	rec := env.do(t, http.MethodPost, "/api/photocards", `{"artworkId":9,"conversationId":404}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	card := decodeJson[record.Photocard](t, rec)
	assert.True(t, card.ArtworkStub)
	assert.Equal(t, "Artwork 9", card.Title)
	assert.Empty(t, card.Summary)
}

func TestPhotocardWithoutConversation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/photocards", `{"artworkId":7}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, env.credits.seen)
}

func TestPhotocardErrors(t *testing.T) {
	env := newTestEnv(t)

	retired, err := env.templates.Create(context.Background(), &template.Template{Name: "Retired", Width: 400, Height: 300})
	require.NoError(t, err)
	require.NoError(t, env.templates.Delete(context.Background(), retired.ID))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing artwork", `{"conversationId":1}`, http.StatusBadRequest},
		{"unsupported format", `{"artworkId":1,"format":"gif"}`, http.StatusBadRequest},
		{"unknown template", `{"artworkId":1,"templateId":"nope"}`, http.StatusNotFound},
		{"inactive template", `{"artworkId":1,"templateId":"` + retired.ID + `"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/photocards", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestPhotocardWithTemplate(t *testing.T) {
	env := newTestEnv(t)

	tmpl, err := env.templates.Create(context.Background(), &template.Template{
		Name:   "Square",
		Width:  300,
		Height: 300,
		Type:   template.TypeMinimal,
		Active: true,
		LayoutConfig: `
textAreas:
  - id: summary
    x: 10
    y: 10
    width: 280
    height: 100
`,
	})
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/photocards", `{"artworkId":7,"conversationId":1,"templateId":"`+tmpl.ID+`"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	card := decodeJson[record.Photocard](t, rec)
	assert.Equal(t, tmpl.ID, card.TemplateID)
	assert.Equal(t, 300, card.Width)
	assert.Equal(t, 300, card.Height)
}

func TestFileInvalidID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/files/bad.id/preview", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTemplateCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/templates", `{"name":"Gallery","type":"modern"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeJson[template.Template](t, rec)
	assert.Equal(t, template.TypeModern, created.Type)
	assert.Equal(t, template.DefaultWidth, created.Width)
	assert.True(t, created.Active)

	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/api/templates", `{"name":"Gallery"}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/templates", `{"name":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/templates", `{"name":"Broken","layoutConfig":"{"}`).Code)

	rec = env.do(t, http.MethodGet, "/api/templates/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Gallery", decodeJson[template.Template](t, rec).Name)

	rec = env.do(t, http.MethodGet, "/api/templates/type/MODERN", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJson[[]template.Template](t, rec), 1)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/templates/type/baroque", "").Code)

	rec = env.do(t, http.MethodPut, "/api/templates/"+created.ID, `{"description":"Wide","width":1200}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeJson[template.Template](t, rec)
	assert.Equal(t, "Gallery", updated.Name)
	assert.Equal(t, "Wide", updated.Description)
	assert.Equal(t, 1200, updated.Width)
	assert.Equal(t, template.DefaultHeight, updated.Height)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPut, "/api/templates/missing", `{"name":"x"}`).Code)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/templates/"+created.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/templates/missing", "").Code)

	rec = env.do(t, http.MethodGet, "/api/templates", "")
	assert.Empty(t, decodeJson[[]template.Template](t, rec))

	rec = env.do(t, http.MethodGet, "/api/templates/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeJson[template.Template](t, rec).Active)
}

func TestDefaultTemplateRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/templates/default", "")
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeJson[template.Template](t, rec)
	assert.Equal(t, template.DefaultName, first.Name)
	assert.Equal(t, template.TypeClassic, first.Type)

	rec = env.do(t, http.MethodGet, "/api/templates/default", "")
	assert.Equal(t, first.ID, decodeJson[template.Template](t, rec).ID)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/render", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/render", nil)
	req.Header.Set("Origin", "http://evil.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidInput, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeInvalidLayout, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeTemplateNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeFileNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeUnsupported, "x"), http.StatusUnsupportedMediaType},
		{errors.New(errors.ErrCodeConflict, "x"), http.StatusConflict},
		{errors.New(errors.ErrCodeNetwork, "x"), http.StatusBadGateway},
		{errors.New(errors.ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{errors.New(errors.ErrCodeEncoding, "x"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", integrations.ErrNotFound), http.StatusNotFound},
		{stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
