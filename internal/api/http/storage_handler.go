package http

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/storage"
)

const defaultMaxUploadBytes = 10 << 20

// LocalStorageHandler accepts the PUT and GET requests behind the URLs that
// local storage hands out, standing in for an object store.
type LocalStorageHandler struct {
	store        *storage.MockStorageService
	allowedTypes map[string]bool
	maxBytes     int64
}

func NewLocalStorageHandler(store *storage.MockStorageService, allowedTypes []string, maxBytes int64) *LocalStorageHandler {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &LocalStorageHandler{store: store, allowedTypes: allowed, maxBytes: maxBytes}
}

// HandleUpload stores the request body under the key query parameter. The
// {token} segment must be an unexpired upload token for that key.
func (h *LocalStorageHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeProblem(w, r, http.StatusBadRequest, "Bad Request", "missing key parameter")
		return
	}
	signedType, err := h.store.VerifyURLToken(mux.Vars(r)["token"], storage.OpUpload, key)
	if err != nil {
		writeProblem(w, r, http.StatusForbidden, "Forbidden", err.Error())
		return
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.Split(r.Header.Get("Content-Type"), ";")[0]))
	if len(h.allowedTypes) > 0 && !h.allowedTypes[contentType] {
		writeProblem(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type", "content type "+contentType+" is not accepted")
		return
	}
	if signedType != "" && !strings.EqualFold(signedType, contentType) {
		writeProblem(w, r, http.StatusForbidden, "Forbidden", "content type does not match the upload URL")
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := h.store.SaveFile(key, body); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			_ = h.store.DeleteFile(r.Context(), key)
			writeProblem(w, r, http.StatusRequestEntityTooLarge, "Payload Too Large", "file exceeds the upload limit")
		case errors.Is(err, storage.ErrInvalidKey):
			writeProblem(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		default:
			logger.ErrorContext(r.Context(), "Failed to save upload", "key", key, "error", err)
			writeProblem(w, r, http.StatusInternalServerError, "Internal Error", "failed to save file")
		}
		return
	}

	// mimic an object store response
	w.Header().Set("ETag", `"local-etag"`)
	w.WriteHeader(http.StatusOK)
}

// HandleDownload streams the stored file named by the key query parameter
// once the {token} segment checks out.
func (h *LocalStorageHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeProblem(w, r, http.StatusBadRequest, "Bad Request", "missing key parameter")
		return
	}
	if _, err := h.store.VerifyURLToken(mux.Vars(r)["token"], storage.OpDownload, key); err != nil {
		writeProblem(w, r, http.StatusForbidden, "Forbidden", err.Error())
		return
	}

	file, err := h.store.ReadFile(key)
	if err != nil {
		writeProblem(w, r, http.StatusNotFound, "Not Found", "file not found")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", contentTypeFor(key))
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := io.Copy(w, file); err != nil {
		logger.WarnContext(r.Context(), "Failed to stream file", "key", key, "error", err)
	}
}

func contentTypeFor(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	}
	return "application/octet-stream"
}

// RegisterLocalStorageRoutes mounts the upload and download endpoints.
func RegisterLocalStorageRoutes(router *mux.Router, store *storage.MockStorageService, allowedTypes []string, maxBytes int64) {
	h := NewLocalStorageHandler(store, allowedTypes, maxBytes)
	router.HandleFunc("/api/v1/upload/{token}", h.HandleUpload).Methods(http.MethodPut).Name("storage.upload")
	router.HandleFunc("/api/v1/download/{token}", h.HandleDownload).Methods(http.MethodGet).Name("storage.download")
}
