package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/devdazzlee/southen-sweet-sub000/internal/discount"
	"github.com/devdazzlee/southen-sweet-sub000/internal/domain"
	"github.com/sony/gobreaker/v2"
)

// DiscountRegistry hands out the per-session discount applicator.
type DiscountRegistry interface {
	For(sessionID string) *discount.Applicator
}

type DiscountHandler struct {
	svc       CartService
	discounts DiscountRegistry
	timeout   time.Duration
}

func NewDiscountHandler(svc CartService, discounts DiscountRegistry, timeout time.Duration) *DiscountHandler {
	return &DiscountHandler{
		svc:       svc,
		discounts: discounts,
		timeout:   timeout,
	}
}

type ApplyDiscountRequestDTO struct {
	Code string `json:"code"`
}

type DiscountResponseDTO struct {
	Discount *domain.Discount `json:"discount,omitempty"`
	Status   string           `json:"status"`
}

func (h *DiscountHandler) Apply(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session identifier")
		return
	}

	var req ApplyDiscountRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_code", "code must not be empty")
		return
	}

	totals, err := h.svc.Totals(ctx, sessionID, domain.ShippingFree, nil, domain.TotalsOptions{})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	applicator := h.discounts.For(sessionID)
	applied, err := applicator.Apply(ctx, req.Code, totals.Subtotal)
	if err != nil {
		handleDiscountError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, DiscountResponseDTO{
		Discount: applied,
		Status:   applicator.Status().String(),
	})
}

func (h *DiscountHandler) Remove(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session identifier")
		return
	}

	applicator := h.discounts.For(sessionID)
	applicator.Remove()

	respondJSON(w, http.StatusOK, DiscountResponseDTO{
		Status: applicator.Status().String(),
	})
}

func (h *DiscountHandler) Current(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session identifier")
		return
	}

	applicator := h.discounts.For(sessionID)
	respondJSON(w, http.StatusOK, DiscountResponseDTO{
		Discount: applicator.Current(),
		Status:   applicator.Status().String(),
	})
}

func handleDiscountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, discount.ErrValidationInFlight):
		respondError(w, http.StatusConflict, "validation_in_flight", "a discount validation is already running")
	case errors.Is(err, discount.ErrInvalidCode):
		respondError(w, http.StatusUnprocessableEntity, "invalid_code", err.Error())
	case errors.Is(err, discount.ErrValidatorUnavailable),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		respondError(w, http.StatusServiceUnavailable, "discounts_unavailable", "discount validation temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "discount validation timed out")
	default:
		respondError(w, http.StatusBadGateway, "validation_failed", "could not validate discount code")
	}
}
