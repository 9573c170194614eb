package sharelink

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vaultlink-go/internal/files"
	"vaultlink-go/internal/models"
	"vaultlink-go/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFixture struct {
	router  *chi.Mux
	service *Service
	repo    *MemoryRepository
	file    *models.File
	content []byte
	dir     string
}

func setupHandler(t *testing.T) *handlerFixture {
	t.Helper()

	dir := t.TempDir()
	provider, err := storage.NewProvider(storage.Config{Provider: "local", LocalPath: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })

	content := []byte("0123456789abcdefghijklmnopqrstuvwxyz")
	storageName := files.NewStorageName("alphabet.txt")
	require.NoError(t, os.WriteFile(filepath.Join(dir, storageName), content, 0o644))

	store := files.NewMemoryStore()
	file := &models.File{
		StorageName:  storageName,
		OriginalName: "alphabet.txt",
		MimeType:     "text/plain",
		FileSize:     int64(len(content)),
	}
	require.NoError(t, store.Create(context.Background(), file))

	repo := NewMemoryRepository()
	service := NewService(repo, store, provider, "https://cloud.example.com")
	handler := NewHandler(service)

	r := chi.NewRouter()
	r.Post("/share", handler.HandleCreateLink)
	r.Route("/shared", func(r chi.Router) {
		r.Get("/{token}", handler.HandleGetMetadata)
		r.Get("/{token}/download", handler.HandleDownload)
		r.Post("/{token}/access", handler.HandleRegisterAccess)
		r.Delete("/{token}", handler.HandleRevoke)
		r.Get("/file/{fileID}", handler.HandleActiveLink)
		r.Delete("/file/{fileID}", handler.HandleDeleteForFile)
	})

	return &handlerFixture{router: r, service: service, repo: repo, file: file, content: content, dir: dir}
}

func (fx *handlerFixture) do(t *testing.T, method, target string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func (fx *handlerFixture) createLink(t *testing.T, req models.CreateLinkRequest) models.CreateLinkResponse {
	t.Helper()
	rec := fx.do(t, http.MethodPost, "/share", req, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp models.CreateLinkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleCreateLink(t *testing.T) {
	fx := setupHandler(t)

	t.Run("created", func(t *testing.T) {
		resp := fx.createLink(t, models.CreateLinkRequest{FileID: fx.file.ID})
		assert.NotEmpty(t, resp.Token)
		assert.Contains(t, resp.URL, "/shared/"+resp.Token)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/share", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing file id", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/share", models.CreateLinkRequest{}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("password too short", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/share", models.CreateLinkRequest{
			FileID:   fx.file.ID,
			Password: "ab",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown file", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/share", models.CreateLinkRequest{FileID: 9999}, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleGetMetadata(t *testing.T) {
	fx := setupHandler(t)
	link := fx.createLink(t, models.CreateLinkRequest{FileID: fx.file.ID})

	rec := fx.do(t, http.MethodGet, "/shared/"+link.Token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var meta models.LinkMetadataResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, "alphabet.txt", meta.File.Name)
	assert.Equal(t, int64(len(fx.content)), meta.File.Size)
	assert.Equal(t, 0, meta.Link.AccessCount)

	rec = fx.do(t, http.MethodGet, "/shared/does-not-exist", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDownload(t *testing.T) {
	fx := setupHandler(t)

	t.Run("full", func(t *testing.T) {
		link := fx.createLink(t, models.CreateLinkRequest{FileID: fx.file.ID})
		rec := fx.do(t, http.MethodGet, "/shared/"+link.Token+"/download", nil, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, fx.content, rec.Body.Bytes())
		assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "alphabet.txt")
	})

	t.Run("partial", func(t *testing.T) {
		link := fx.createLink(t, models.CreateLinkRequest{FileID: fx.file.ID})
		rec := fx.do(t, http.MethodGet, "/shared/"+link.Token+"/download", nil,
			map[string]string{"Range": "bytes=10-19"})

		assert.Equal(t, http.StatusPartialContent, rec.Code)
		assert.Equal(t, fx.content[10:20], rec.Body.Bytes())
		assert.Equal(t, "bytes 10-19/36", rec.Header().Get("Content-Range"))
	})

	t.Run("unsatisfiable range", func(t *testing.T) {
		link := fx.createLink(t, models.CreateLinkRequest{FileID: fx.file.ID})
		rec := fx.do(t, http.MethodGet, "/shared/"+link.Token+"/download", nil,
			map[string]string{"Range": "bytes=5000-6000"})

		assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
		assert.Equal(t, "bytes */36", rec.Header().Get("Content-Range"))
	})

	t.Run("password required", func(t *testing.T) {
		link := fx.createLink(t, models.CreateLinkRequest{FileID: fx.file.ID, Password: "secret99"})

		rec := fx.do(t, http.MethodGet, "/shared/"+link.Token+"/download", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = fx.do(t, http.MethodGet, "/shared/"+link.Token+"/download?password=wrong", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = fx.do(t, http.MethodGet, "/shared/"+link.Token+"/download?password=secret99", nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, fx.content, rec.Body.Bytes())
	})

	t.Run("spent link answers gone then not found", func(t *testing.T) {
		one := 1
		link := fx.createLink(t, models.CreateLinkRequest{FileID: fx.file.ID, MaxAccessCount: &one})

		rec := fx.do(t, http.MethodGet, "/shared/"+link.Token+"/download", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		// The first request after the budget is spent reports exhaustion
		// and revokes the link; from then on it answers like a missing one
		rec = fx.do(t, http.MethodGet, "/shared/"+link.Token+"/download", nil, nil)
		assert.Equal(t, http.StatusGone, rec.Code)

		rec = fx.do(t, http.MethodGet, "/shared/"+link.Token+"/download", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("expired link answers gone", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		link := fx.createLink(t, models.CreateLinkRequest{FileID: fx.file.ID, ExpiresAt: &past})

		rec := fx.do(t, http.MethodGet, "/shared/"+link.Token+"/download", nil, nil)
		assert.Equal(t, http.StatusGone, rec.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/shared/nope/download", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	// Runs last: it deletes the shared fixture's bytes from disk
	t.Run("bytes missing from storage", func(t *testing.T) {
		link := fx.createLink(t, models.CreateLinkRequest{FileID: fx.file.ID})
		require.NoError(t, os.Remove(filepath.Join(fx.dir, fx.file.StorageName)))

		rec := fx.do(t, http.MethodGet, "/shared/"+link.Token+"/download", nil, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandleRegisterAccess(t *testing.T) {
	fx := setupHandler(t)
	two := 2
	link := fx.createLink(t, models.CreateLinkRequest{FileID: fx.file.ID, MaxAccessCount: &two})

	rec := fx.do(t, http.MethodPost, "/shared/"+link.Token+"/access", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var access models.AccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &access))
	assert.Equal(t, 1, access.AccessCount)
	require.NotNil(t, access.Remaining)
	assert.Equal(t, 1, *access.Remaining)
}

func TestHandleRevoke(t *testing.T) {
	fx := setupHandler(t)

	t.Run("revoke", func(t *testing.T) {
		link := fx.createLink(t, models.CreateLinkRequest{FileID: fx.file.ID})

		rec := fx.do(t, http.MethodDelete, "/shared/"+link.Token, nil, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = fx.do(t, http.MethodGet, "/shared/"+link.Token, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		// Idempotent, also for tokens that never existed
		rec = fx.do(t, http.MethodDelete, "/shared/"+link.Token, nil, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = fx.do(t, http.MethodDelete, "/shared/never-was", nil, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("permanent delete", func(t *testing.T) {
		link := fx.createLink(t, models.CreateLinkRequest{FileID: fx.file.ID})

		rec := fx.do(t, http.MethodDelete, "/shared/"+link.Token+"?permanent=true", nil, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		_, err := fx.repo.GetByToken(context.Background(), link.Token)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestHandleActiveLink(t *testing.T) {
	fx := setupHandler(t)
	link := fx.createLink(t, models.CreateLinkRequest{FileID: fx.file.ID})

	rec := fx.do(t, http.MethodGet, "/shared/file/1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var active models.SharedLink
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &active))
	assert.Equal(t, link.Token, active.Token)

	rec = fx.do(t, http.MethodGet, "/shared/file/999", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = fx.do(t, http.MethodGet, "/shared/file/notanumber", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDeleteForFile(t *testing.T) {
	fx := setupHandler(t)
	fx.createLink(t, models.CreateLinkRequest{FileID: fx.file.ID})
	fx.createLink(t, models.CreateLinkRequest{FileID: fx.file.ID})

	rec := fx.do(t, http.MethodDelete, "/shared/file/1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp["removed"])
}
