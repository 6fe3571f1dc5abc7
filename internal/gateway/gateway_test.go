package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paymentRequest() *models.PaymentRequest {
	return &models.PaymentRequest{
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: models.PaymentMethodInput{Type: models.PaymentTypeCard},
		Reference:     "17",
		Currency:      models.PaymentCurrency,
		Description:   models.PaymentDescription,
	}
}

func TestSimulatorApprovesAndDeclines(t *testing.T) {
	ctx := context.Background()

	resp, err := NewSimulator(0, 1).CreatePayment(ctx, paymentRequest())
	require.NoError(t, err)
	assert.Equal(t, models.GatewayStatusApproved, resp.Status)
	assert.Equal(t, "Payment approved", resp.Message)
	assert.Equal(t, "17", resp.Reference)
	assert.NotEmpty(t, resp.TransactionID)

	resp, err = NewSimulator(0, 0).CreatePayment(ctx, paymentRequest())
	require.NoError(t, err)
	assert.Equal(t, models.GatewayStatusDeclined, resp.Status)

	verified, err := NewSimulator(0, 0).VerifyPayment(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, models.GatewayStatusApproved, verified.Status)
	assert.Equal(t, "Transaction verified", verified.Message)
	assert.Equal(t, "abc", verified.TransactionID)
}

func TestSimulatorHonorsDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := NewSimulator(time.Second, 1).CreatePayment(ctx, paymentRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPClientCreatePayment(t *testing.T) {
	var received models.PaymentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.PaymentResponse{
			Status:        models.GatewayStatusApproved,
			Message:       "Payment approved",
			TransactionID: "gw-1",
			Reference:     received.Reference,
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "secret", time.Second)
	resp, err := client.CreatePayment(context.Background(), paymentRequest())
	require.NoError(t, err)
	assert.Equal(t, models.GatewayStatusApproved, resp.Status)
	assert.Equal(t, "gw-1", resp.TransactionID)
	assert.Equal(t, "COP", received.Currency)
	assert.Equal(t, "Buy in store", received.Description)
	assert.Equal(t, "17", received.Reference)
}

func TestHTTPClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", time.Second)
	_, err := client.CreatePayment(context.Background(), paymentRequest())
	assert.Error(t, err)

	_, err = client.VerifyPayment(context.Background(), "gw-1")
	assert.Error(t, err)
}

func TestHTTPClientVerifyPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/gw-9", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"APPROVED","message":"Transaction verified","transactionId":"gw-9"}`))
	}))
	defer srv.Close()

	resp, err := NewHTTPClient(srv.URL, "", time.Second).VerifyPayment(context.Background(), "gw-9")
	require.NoError(t, err)
	assert.Equal(t, models.GatewayStatusApproved, resp.Status)
	assert.Equal(t, "gw-9", resp.TransactionID)
}
