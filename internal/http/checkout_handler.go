package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/devdazzlee/southen-sweet-sub000/internal/checkout"
	"github.com/devdazzlee/southen-sweet-sub000/internal/domain"
	"github.com/sony/gobreaker/v2"
)

// OrderSubmitter sends a checkout snapshot to the orders backend.
type OrderSubmitter interface {
	Submit(ctx context.Context, sessionID string, snapshot *checkout.Snapshot, shipping domain.ShippingOption, discount *domain.Discount) (*checkout.OrderRef, error)
}

type CheckoutHandler struct {
	svc       CartService
	discounts DiscountRegistry
	orders    OrderSubmitter
	tracker   Tracker
	timeout   time.Duration
}

func NewCheckoutHandler(svc CartService, discounts DiscountRegistry, orders OrderSubmitter, tracker Tracker, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		svc:       svc,
		discounts: discounts,
		orders:    orders,
		tracker:   tracker,
		timeout:   timeout,
	}
}

type SubmitOrderRequestDTO struct {
	ShippingOption string `json:"shipping_option"`
}

func parseShipping(raw string) (domain.ShippingOption, bool) {
	if raw == "" {
		return domain.ShippingFree, true
	}
	opt := domain.ShippingOption(raw)
	return opt, opt.Valid()
}

// GetTotals returns the order summary for the session's cart, the chosen
// shipping option and whatever discount is currently applied.
func (h *CheckoutHandler) GetTotals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session identifier")
		return
	}

	shipping, ok := parseShipping(r.URL.Query().Get("shipping"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_shipping", "unknown shipping option")
		return
	}

	applied := h.discounts.For(sessionID).Current()
	totals, err := h.svc.Totals(ctx, sessionID, shipping, applied, domain.TotalsOptions{})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, totals)
}

func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session identifier")
		return
	}

	var req SubmitOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	shipping, ok := parseShipping(req.ShippingOption)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_shipping", "unknown shipping option")
		return
	}

	cart, err := h.svc.GetCart(ctx, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	applied := h.discounts.For(sessionID).Current()
	snapshot, err := checkout.BuildSnapshot(cart, shipping, applied, domain.TotalsOptions{})
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
			return
		}
		handleServiceError(w, err)
		return
	}

	h.tracker.Track("begin_checkout", map[string]interface{}{
		"items": len(snapshot.Items),
		"total": snapshot.Totals.Total,
	})

	ref, err := h.orders.Submit(ctx, sessionID, snapshot, shipping, applied)
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	h.tracker.Convert("purchase", snapshot.Totals.Total, map[string]interface{}{
		"order_id": ref.OrderID,
		"items":    len(snapshot.Items),
	})

	respondJSON(w, http.StatusCreated, ref)
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		respondError(w, http.StatusServiceUnavailable, "orders_unavailable", "order submission temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "order submission timed out")
	case errors.Is(err, checkout.ErrSubmissionFailed):
		respondError(w, http.StatusBadGateway, "submission_failed", "order was not accepted")
	default:
		respondError(w, http.StatusBadGateway, "submission_failed", "order submission failed")
	}
}
