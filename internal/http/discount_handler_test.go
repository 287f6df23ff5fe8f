package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devdazzlee/southen-sweet-sub000/internal/discount"
	"github.com/devdazzlee/southen-sweet-sub000/internal/domain"
)

type validatorMock struct {
	discount *domain.Discount
	err      error
}

func (v *validatorMock) Validate(ctx context.Context, code string, orderAmount float64) (*domain.Discount, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.discount, nil
}

func TestApplyDiscount_Success(t *testing.T) {
	svc := &serviceMock{cart: testCart()}
	registry := discount.NewRegistry(&validatorMock{
		discount: &domain.Discount{Code: "SAVE5", DiscountAmount: 5},
	})
	handler := NewDiscountHandler(svc, registry, 5*time.Second)

	body, _ := json.Marshal(ApplyDiscountRequestDTO{Code: "save5"})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/", bytes.NewReader(body)), "sess1")

	handler.Apply(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var response DiscountResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Discount == nil || response.Discount.Code != "SAVE5" {
		t.Errorf("Expected discount SAVE5, got %+v", response.Discount)
	}
	if response.Status != "APPLIED" {
		t.Errorf("Expected status APPLIED, got %s", response.Status)
	}
}

func TestApplyDiscount_Rejected(t *testing.T) {
	svc := &serviceMock{cart: testCart()}
	registry := discount.NewRegistry(&validatorMock{err: discount.ErrInvalidCode})
	handler := NewDiscountHandler(svc, registry, 5*time.Second)

	body, _ := json.Marshal(ApplyDiscountRequestDTO{Code: "BOGUS"})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/", bytes.NewReader(body)), "sess1")

	handler.Apply(recorder, request)

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status code %d, got %d", http.StatusUnprocessableEntity, recorder.Code)
	}

	var response ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.Code != "invalid_code" {
		t.Errorf("Expected code invalid_code, got %s", response.Code)
	}
}

func TestApplyDiscount_EmptyCode(t *testing.T) {
	svc := &serviceMock{cart: testCart()}
	registry := discount.NewRegistry(&validatorMock{})
	handler := NewDiscountHandler(svc, registry, 5*time.Second)

	body, _ := json.Marshal(ApplyDiscountRequestDTO{})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/", bytes.NewReader(body)), "sess1")

	handler.Apply(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestRemoveDiscount_ResetsState(t *testing.T) {
	svc := &serviceMock{cart: testCart()}
	registry := discount.NewRegistry(&validatorMock{
		discount: &domain.Discount{Code: "SAVE5", DiscountAmount: 5},
	})
	handler := NewDiscountHandler(svc, registry, 5*time.Second)

	// Apply first so there is something to remove.
	body, _ := json.Marshal(ApplyDiscountRequestDTO{Code: "SAVE5"})
	applyReq := withSession(httptest.NewRequest("POST", "/", bytes.NewReader(body)), "sess1")
	handler.Apply(httptest.NewRecorder(), applyReq)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("DELETE", "/", nil), "sess1")

	handler.Remove(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var response DiscountResponseDTO
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.Discount != nil {
		t.Errorf("Expected no discount after removal, got %+v", response.Discount)
	}
	if response.Status != "IDLE" {
		t.Errorf("Expected status IDLE, got %s", response.Status)
	}
}

func TestCurrentDiscount_PerSession(t *testing.T) {
	svc := &serviceMock{cart: testCart()}
	registry := discount.NewRegistry(&validatorMock{
		discount: &domain.Discount{Code: "SAVE5", DiscountAmount: 5},
	})
	handler := NewDiscountHandler(svc, registry, 5*time.Second)

	body, _ := json.Marshal(ApplyDiscountRequestDTO{Code: "SAVE5"})
	applyReq := withSession(httptest.NewRequest("POST", "/", bytes.NewReader(body)), "sess1")
	handler.Apply(httptest.NewRecorder(), applyReq)

	// Another session sees no discount.
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/", nil), "sess2")

	handler.Current(recorder, request)

	var response DiscountResponseDTO
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.Discount != nil {
		t.Errorf("Expected no discount for fresh session, got %+v", response.Discount)
	}
}
