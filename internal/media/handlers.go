package media

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-oja/internal/common"
)

const maxUploadBytes = 10 << 20

// Handler exposes file upload and signed download endpoints.
type Handler struct {
	Blobs   BlobStore
	Signer  *Signer
	BaseURL string
	Log     zerolog.Logger
}

// Upload handles POST /api/upload. The multipart field name is "file"; the
// stored key is a fresh UUID with the original extension preserved.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "multipart field 'file' is required", nil)
		return
	}
	defer func() { _ = file.Close() }()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	key := uuid.NewString() + ext
	if err := h.Blobs.Put(r.Context(), key, file); err != nil {
		h.Log.Error().Err(err).Str("key", key).Msg("store upload")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not store file", nil)
		return
	}

	query := h.Signer.SignedQuery(key)
	common.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data": map[string]any{
			"key": key,
			"url": strings.TrimRight(h.BaseURL, "/") + "/media/" + url.PathEscape(key) + "?" + query.Encode(),
		},
	})
}

// Serve handles GET /media/{key}. The signature and expiry are checked
// before the filesystem is touched.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := h.Signer.Verify(key, r.URL.Query().Get("expires"), r.URL.Query().Get("sig")); err != nil {
		common.JSONError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
		return
	}
	blob, err := h.Blobs.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "no such file", nil)
			return
		}
		h.Log.Error().Err(err).Str("key", key).Msg("open blob")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not read file", nil)
		return
	}
	defer func() { _ = blob.Close() }()

	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = io.Copy(w, blob)
}
