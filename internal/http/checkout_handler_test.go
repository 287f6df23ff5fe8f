package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devdazzlee/southen-sweet-sub000/internal/checkout"
	"github.com/devdazzlee/southen-sweet-sub000/internal/discount"
	"github.com/devdazzlee/southen-sweet-sub000/internal/domain"
)

type submitterMock struct {
	ref *checkout.OrderRef
	err error

	lastSnapshot *checkout.Snapshot
}

func (s *submitterMock) Submit(ctx context.Context, sessionID string, snapshot *checkout.Snapshot, shipping domain.ShippingOption, d *domain.Discount) (*checkout.OrderRef, error) {
	s.lastSnapshot = snapshot
	if s.err != nil {
		return nil, s.err
	}
	return s.ref, nil
}

func newCheckoutHandler(svc CartService, orders OrderSubmitter, tracker Tracker) *CheckoutHandler {
	registry := discount.NewRegistry(&validatorMock{})
	return NewCheckoutHandler(svc, registry, orders, tracker, 5*time.Second)
}

func TestGetTotals_FlatShipping(t *testing.T) {
	svc := &serviceMock{cart: testCart()}
	handler := newCheckoutHandler(svc, &submitterMock{}, &trackerMock{})

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/?shipping=flat", nil), "sess1")

	handler.GetTotals(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var totals domain.Totals
	if err := json.NewDecoder(recorder.Body).Decode(&totals); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if totals.Subtotal != 25.00 {
		t.Errorf("Expected subtotal 25.00, got %.2f", totals.Subtotal)
	}
	if totals.Total != 33.00 {
		t.Errorf("Expected total 33.00, got %.2f", totals.Total)
	}
}

func TestGetTotals_UnknownShipping(t *testing.T) {
	svc := &serviceMock{cart: testCart()}
	handler := newCheckoutHandler(svc, &submitterMock{}, &trackerMock{})

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/?shipping=drone", nil), "sess1")

	handler.GetTotals(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestSubmit_Success(t *testing.T) {
	svc := &serviceMock{cart: testCart()}
	orders := &submitterMock{ref: &checkout.OrderRef{OrderID: "ord-1", Total: 33.00}}
	tracker := &trackerMock{}
	handler := newCheckoutHandler(svc, orders, tracker)

	body, _ := json.Marshal(SubmitOrderRequestDTO{ShippingOption: "flat"})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/", bytes.NewReader(body)), "sess1")

	handler.Submit(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Errorf("Expected status code %d, got %d", http.StatusCreated, recorder.Code)
	}

	var ref checkout.OrderRef
	if err := json.NewDecoder(recorder.Body).Decode(&ref); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if ref.OrderID != "ord-1" {
		t.Errorf("Expected order ord-1, got %s", ref.OrderID)
	}

	if orders.lastSnapshot == nil || orders.lastSnapshot.Totals.Total != 33.00 {
		t.Errorf("Expected snapshot total 33.00, got %+v", orders.lastSnapshot)
	}

	if len(tracker.tracked) != 1 || tracker.tracked[0] != "begin_checkout" {
		t.Errorf("Expected begin_checkout event, got %v", tracker.tracked)
	}
	if len(tracker.conversions) != 1 || tracker.conversions[0] != "purchase" {
		t.Errorf("Expected purchase conversion, got %v", tracker.conversions)
	}
}

func TestSubmit_EmptyCart(t *testing.T) {
	svc := &serviceMock{cart: &domain.Cart{SessionID: "sess1", Items: []domain.CartItem{}}}
	handler := newCheckoutHandler(svc, &submitterMock{}, &trackerMock{})

	body, _ := json.Marshal(SubmitOrderRequestDTO{ShippingOption: "free"})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/", bytes.NewReader(body)), "sess1")

	handler.Submit(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	var response ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.Code != "empty_cart" {
		t.Errorf("Expected code empty_cart, got %s", response.Code)
	}
}

func TestSubmit_BackendFailure(t *testing.T) {
	svc := &serviceMock{cart: testCart()}
	orders := &submitterMock{err: checkout.ErrSubmissionFailed}
	tracker := &trackerMock{}
	handler := newCheckoutHandler(svc, orders, tracker)

	body, _ := json.Marshal(SubmitOrderRequestDTO{ShippingOption: "flat"})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/", bytes.NewReader(body)), "sess1")

	handler.Submit(recorder, request)

	if recorder.Code != http.StatusBadGateway {
		t.Errorf("Expected status code %d, got %d", http.StatusBadGateway, recorder.Code)
	}
	if len(tracker.conversions) != 0 {
		t.Errorf("Expected no purchase conversion on failure, got %v", tracker.conversions)
	}
}
