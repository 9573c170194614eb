package sharelink

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	userctx "vaultlink-go/internal/context"
	"vaultlink-go/internal/models"
	"vaultlink-go/internal/stream"
	"vaultlink-go/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// HandleCreateLink handles POST /share. Authentication is optional; an
// authenticated requester is recorded as the link's creator.
func (h *Handler) HandleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		HandleError(w, &APIError{Code: ErrCodeInvalidInput, Message: "Invalid request body"}, http.StatusBadRequest)
		return
	}

	if err := validation.Validate(&req); err != nil {
		verrs := validation.FormatError(err)
		apiErr := &APIError{Code: ErrCodeInvalidInput, Message: "Invalid request"}
		if len(verrs) > 0 {
			apiErr.Details = verrs[0].Error
		}
		HandleError(w, apiErr, http.StatusBadRequest)
		return
	}

	var userID *int64
	if user := userctx.GetUserFromContext(r.Context()); user != nil {
		userID = &user.ID
	}

	resp, err := h.service.CreateLink(r.Context(), &req, userID)
	if err != nil {
		if errors.Is(err, ErrFileMissing) {
			HandleError(w, &APIError{Code: ErrCodeNotFound, Message: "File not found"}, http.StatusNotFound)
			return
		}
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

// HandleGetMetadata handles GET /shared/{token}. Returns public file
// attributes and usage counters without consuming a use.
func (h *Handler) HandleGetMetadata(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	password := r.URL.Query().Get("password")

	resp, err := h.service.GetLinkMetadata(r.Context(), token, password)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// HandleDownload handles GET /shared/{token}/download with optional Range
// header support.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	password := r.URL.Query().Get("password")

	err := h.service.Download(r.Context(), w, token, password, r.Header.Get("Range"))
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrRevoked), errors.Is(err, ErrExpired),
		errors.Is(err, ErrExhausted), errors.Is(err, ErrPasswordRequired),
		errors.Is(err, ErrPasswordIncorrect), errors.Is(err, ErrFileMissing):
		// Denials happen before any byte is written, so a JSON error
		// response is still possible.
		respondError(w, err)
	case errors.Is(err, stream.ErrSourceUnavailable):
		// The source failed to open before the status was committed;
		// answer 500 instead of an implicit empty 200.
		respondError(w, err)
	default:
		// Mid-stream failures can only abort; the status line is gone.
		log.Error().Err(err).Str("token", token).Msg("error streaming shared file")
	}
}

// HandleRegisterAccess handles POST /shared/{token}/access, consuming one use
// without downloading.
func (h *Handler) HandleRegisterAccess(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	password := r.URL.Query().Get("password")

	resp, err := h.service.RegisterAccess(r.Context(), token, password)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// HandleRevoke handles DELETE /shared/{token}. Plain revocation by default;
// `?permanent=true` removes the record entirely. Both are idempotent:
// revoking or deleting an unknown token succeeds.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var err error
	if r.URL.Query().Get("permanent") == "true" {
		err = h.service.Delete(r.Context(), token)
	} else {
		err = h.service.Revoke(r.Context(), token)
	}
	if err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleActiveLink handles GET /shared/file/{fileID}, returning the most
// recent live link for a file. Authenticated route.
func (h *Handler) HandleActiveLink(w http.ResponseWriter, r *http.Request) {
	fileID, err := strconv.ParseInt(chi.URLParam(r, "fileID"), 10, 64)
	if err != nil {
		HandleError(w, &APIError{Code: ErrCodeInvalidInput, Message: "Invalid file id"}, http.StatusBadRequest)
		return
	}

	link, err := h.service.ActiveLinkForFile(r.Context(), fileID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, link)
}

// HandleDeleteForFile handles DELETE /shared/file/{fileID}: the cascade used
// when the file itself has been deleted. Authenticated route.
func (h *Handler) HandleDeleteForFile(w http.ResponseWriter, r *http.Request) {
	fileID, err := strconv.ParseInt(chi.URLParam(r, "fileID"), 10, 64)
	if err != nil {
		HandleError(w, &APIError{Code: ErrCodeInvalidInput, Message: "Invalid file id"}, http.StatusBadRequest)
		return
	}

	removed, err := h.service.DeleteForFile(r.Context(), fileID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
