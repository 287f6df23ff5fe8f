package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/devdazzlee/southen-sweet-sub000/internal/domain"
	"github.com/devdazzlee/southen-sweet-sub000/internal/repository"
	"github.com/go-chi/chi/v5"
)

// CartService is the slice of the cart service the handlers need.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, item domain.CartItem) error
	ChangeQuantity(ctx context.Context, sessionID, productID string, quantity int) error
	SetItemSelected(ctx context.Context, sessionID, productID string, selected bool) error
	SelectAll(ctx context.Context, sessionID string, selected bool) error
	RemoveItem(ctx context.Context, sessionID, productID string) error
	DeleteSelected(ctx context.Context, sessionID string) error
	ClearCart(ctx context.Context, sessionID string) error
	Totals(ctx context.Context, sessionID string, shipping domain.ShippingOption, discount *domain.Discount, opts domain.TotalsOptions) (domain.Totals, error)
}

// Tracker receives storefront analytics events. A nil-safe no-op
// implementation is fine when analytics is disabled.
type Tracker interface {
	Track(name string, data map[string]interface{})
	Convert(name string, value float64, data map[string]interface{})
}

// NopTracker discards all events.
type NopTracker struct{}

func (NopTracker) Track(string, map[string]interface{})            {}
func (NopTracker) Convert(string, float64, map[string]interface{}) {}

type CartHandler struct {
	svc     CartService
	tracker Tracker
	timeout time.Duration
}

func NewCartHandler(svc CartService, tracker Tracker, timeout time.Duration) *CartHandler {
	return &CartHandler{
		svc:     svc,
		tracker: tracker,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID     string  `json:"product_id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Image         string  `json:"image"`
	CurrentPrice  float64 `json:"current_price"`
	OriginalPrice float64 `json:"original_price"`
	PercFirst     int     `json:"perc_first"`
	Quantity      int     `json:"quantity"`
	Color         string  `json:"color"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type SetSelectedRequestDTO struct {
	Selected bool `json:"selected"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session identifier")
		return
	}

	cart, err := h.svc.GetCart(ctx, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session identifier")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must not be empty")
		return
	}
	if req.CurrentPrice < 0 || req.OriginalPrice < 0 {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must not be negative")
		return
	}

	item := domain.CartItem{
		ProductID:     req.ProductID,
		Name:          req.Name,
		Description:   req.Description,
		Image:         req.Image,
		CurrentPrice:  req.CurrentPrice,
		OriginalPrice: req.OriginalPrice,
		PercFirst:     req.PercFirst,
		Quantity:      req.Quantity,
		Color:         req.Color,
	}

	if err := h.svc.AddItem(ctx, sessionID, item); err != nil {
		handleServiceError(w, err)
		return
	}

	h.tracker.Track("add_to_cart", map[string]interface{}{
		"product_id": req.ProductID,
		"name":       req.Name,
		"price":      req.CurrentPrice,
		"quantity":   req.Quantity,
	})

	cart, err := h.svc.GetCart(ctx, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session identifier")
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must not be empty")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Quantities below one are clamped by the service, not rejected.
	if err := h.svc.ChangeQuantity(ctx, sessionID, productID, req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	cart, err := h.svc.GetCart(ctx, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) SetSelected(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session identifier")
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must not be empty")
		return
	}

	var req SetSelectedRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.svc.SetItemSelected(ctx, sessionID, productID, req.Selected); err != nil {
		handleServiceError(w, err)
		return
	}

	cart, err := h.svc.GetCart(ctx, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session identifier")
		return
	}

	var req SetSelectedRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.svc.SelectAll(ctx, sessionID, req.Selected); err != nil {
		handleServiceError(w, err)
		return
	}

	cart, err := h.svc.GetCart(ctx, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session identifier")
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must not be empty")
		return
	}

	if err := h.svc.RemoveItem(ctx, sessionID, productID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.tracker.Track("remove_from_cart", map[string]interface{}{
		"product_id": productID,
	})

	cart, err := h.svc.GetCart(ctx, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) DeleteSelected(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session identifier")
		return
	}

	if err := h.svc.DeleteSelected(ctx, sessionID); err != nil {
		handleServiceError(w, err)
		return
	}

	cart, err := h.svc.GetCart(ctx, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session identifier")
		return
	}

	if err := h.svc.ClearCart(ctx, sessionID); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &domain.Cart{SessionID: sessionID, Items: []domain.CartItem{}})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", "item not found in cart")
	case errors.Is(err, repository.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart_not_found", "cart not found")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
