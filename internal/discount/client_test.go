package discount

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Validate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/discounts/validate", r.URL.Path)

		var req validateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "SAVE5", req.Code)
		assert.Equal(t, 25.0, req.OrderAmount)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"discount": map[string]interface{}{
					"code":           "SAVE5",
					"name":           "Five off",
					"discountAmount": 5.0,
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	d, err := client.Validate(context.Background(), "SAVE5", 25)
	require.NoError(t, err)
	assert.Equal(t, "SAVE5", d.Code)
	assert.Equal(t, 5.0, d.DiscountAmount)
}

func TestClient_Validate_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "minimum order amount not reached",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	d, err := client.Validate(context.Background(), "SAVE5", 2)
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.ErrorContains(t, err, "minimum order amount")
	assert.Nil(t, d)
}

func TestClient_Validate_RejectionsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "nope"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	for i := 0; i < 10; i++ {
		_, err := client.Validate(context.Background(), "NOPE", 25)
		assert.ErrorIs(t, err, ErrInvalidCode)
	}
}

func TestClient_Validate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Validate(context.Background(), "SAVE5", 25)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCode)
}

func TestClient_Validate_ServerErrorNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Validate(context.Background(), "SAVE5", 25)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCode)
	assert.Contains(t, err.Error(), "status 502")
}
