package collector

import (
	"encoding/json"
	"net/http"

	"github.com/devdazzlee/southen-sweet-sub000/internal/analytics"
	"go.uber.org/zap"
)

// Handler accepts tracking batches from the storefront script. A failing
// downstream (store or broker) degrades only telemetry; the handler never
// exposes internals to the sender beyond the status code.
type Handler struct {
	websiteID string
	store     EventStore
	publisher Publisher
	logger    *zap.SugaredLogger
}

func NewHandler(websiteID string, store EventStore, publisher Publisher, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		websiteID: websiteID,
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

type acceptedResponse struct {
	Accepted int `json:"accepted"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *Handler) ReceiveEvents(w http.ResponseWriter, r *http.Request) {
	var batch analytics.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if batch.WebsiteID != h.websiteID {
		respondError(w, http.StatusForbidden, "unknown_website", "unknown website id")
		return
	}

	if len(batch.Events) == 0 {
		respondError(w, http.StatusBadRequest, "empty_batch", "batch contains no events")
		return
	}

	if err := h.store.SaveBatch(r.Context(), batch.WebsiteID, batch.Events); err != nil {
		h.logger.Errorw("failed to persist batch", "session", batch.SessionID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to store events")
		return
	}

	// Fan-out is best effort; the batch is already durable
	if err := h.publisher.Publish(r.Context(), batch); err != nil {
		h.logger.Warnw("failed to publish batch", "session", batch.SessionID, "error", err)
	}

	respondJSON(w, http.StatusAccepted, acceptedResponse{Accepted: len(batch.Events)})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already gone out; nothing else to do
		return
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{
		Error: message,
		Code:  code,
	})
}
