package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vanshika/gradefeed/internal/domain"
	"github.com/vanshika/gradefeed/internal/extract"
	"github.com/vanshika/gradefeed/internal/feed"
	"github.com/vanshika/gradefeed/internal/repository"
	"github.com/vanshika/gradefeed/internal/service"
)

// APIHandlers exposes HTTP handlers for the feed API.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.FeedService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.FeedService) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
	}
}

type issue struct {
	Kind     feed.Kind `json:"kind"`
	Path     string    `json:"path"`
	Expected string    `json:"expected,omitempty"`
	Got      string    `json:"got,omitempty"`
	Message  string    `json:"message"`
}

type decodeResponse struct {
	Record  domain.Record `json:"record"`
	Skipped []issue       `json:"skipped"`
}

type decodeErrorResponse struct {
	Error    string    `json:"error"`
	Kind     feed.Kind `json:"kind"`
	Path     string    `json:"path"`
	Expected string    `json:"expected,omitempty"`
	Got      string    `json:"got,omitempty"`
	Errors   []issue   `json:"errors"`
}

func issues(list []*feed.DecodeError) []issue {
	out := make([]issue, 0, len(list))
	for _, de := range list {
		out = append(out, issue{
			Kind:     de.Kind,
			Path:     de.Path.String(),
			Expected: de.Expected,
			Got:      de.Got,
			Message:  de.Error(),
		})
	}
	return out
}

func (h *APIHandlers) handleDecode(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	res, err := h.service.DecodeBlob(r.Context(), body)
	h.respondDecode(w, r, res, err, http.StatusUnprocessableEntity)
}

func (h *APIHandlers) handlePage(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	res, err := h.service.DecodePage(r.Context(), string(body))
	h.respondDecode(w, r, res, err, http.StatusUnprocessableEntity)
}

func (h *APIHandlers) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Refresh(r.Context())
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, snap)
	case errors.Is(err, service.ErrNoSession):
		writeError(w, http.StatusServiceUnavailable, "live refresh is not configured")
	default:
		if _, ok := feed.AsDecodeError(err); ok || errors.Is(err, extract.ErrAnchorNotFound) {
			h.respondDecode(w, r, feed.Result{}, err, http.StatusBadGateway)
			return
		}
		h.logger.Error("refresh failed", "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusBadGateway, "portal refresh failed")
	}
}

func (h *APIHandlers) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	login := r.PathValue("login")
	limit := parseInt(r.URL.Query().Get("limit"), 0)

	items, err := h.service.Snapshots(r.Context(), login, limit)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.SnapshotSummary{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"login": login,
		"items": items,
	})
}

func (h *APIHandlers) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *APIHandlers) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNoStore):
		writeError(w, http.StatusServiceUnavailable, "snapshot store is not configured")
	case errors.Is(err, repository.ErrSnapshotNotFound):
		writeError(w, http.StatusNotFound, "snapshot not found")
	default:
		h.logger.Error("snapshot query failed", "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "failed to query snapshots")
	}
}

// readBody reads the request body up to the service limit, answering 413
// when it is exceeded.
func (h *APIHandlers) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	reader := io.Reader(r.Body)
	if limit := h.service.MaxBlobBytes(); limit > 0 {
		reader = http.MaxBytesReader(w, r.Body, limit)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "request body is required")
		return nil, false
	}
	return body, true
}

func (h *APIHandlers) respondDecode(w http.ResponseWriter, r *http.Request, res feed.Result, err error, failStatus int) {
	if err == nil {
		respondJSON(w, http.StatusOK, decodeResponse{Record: res.Record, Skipped: issues(res.Skipped)})
		return
	}

	switch {
	case errors.Is(err, service.ErrBlobTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "decode timed out")
		return
	case errors.Is(err, extract.ErrAnchorNotFound):
		writeError(w, failStatus, err.Error())
		return
	}

	list := feed.Errors(err)
	if len(list) == 0 {
		h.logger.Error("decode failed", "error", err, "request_id", RequestID(r.Context()))
		writeError(w, failStatus, err.Error())
		return
	}
	first := list[0]
	respondJSON(w, failStatus, decodeErrorResponse{
		Error:    err.Error(),
		Kind:     first.Kind,
		Path:     first.Path.String(),
		Expected: first.Expected,
		Got:      first.Got,
		Errors:   issues(list),
	})
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}
