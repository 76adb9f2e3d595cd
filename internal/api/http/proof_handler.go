package http

import (
	"net/http"

	"moneypool-backend/internal/domain"
)

func (h *Handlers) proofUploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	up, err := h.svc.Proofs.GetUploadURL(r.Context(), actorFrom(r.Context()), req.Filename, req.ContentType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, up)
}

func (h *Handlers) proofDownloadURL(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, r, domain.Errorf(domain.ErrValidation, "key is required"))
		return
	}
	u, expires, err := h.svc.Proofs.GetDownloadURL(r.Context(), actorFrom(r.Context()), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, downloadURLResponse{URL: u, ExpiresAt: expires})
}
