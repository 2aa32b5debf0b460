package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"canx-backend/internal/config"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakePaypal(t *testing.T, tokenCalls *int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok", "expires_in": 3600})
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body struct {
			PurchaseUnits []struct {
				CustomID string `json:"custom_id"`
				Amount   struct {
					Currency string `json:"currency_code"`
					Value    string `json:"value"`
				} `json:"amount"`
			} `json:"purchase_units"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.PurchaseUnits, 1)
		assert.Equal(t, "order-1", body.PurchaseUnits[0].CustomID)
		assert.Equal(t, "1250.50", body.PurchaseUnits[0].Amount.Value)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"PP-1","status":"CREATED","links":[{"rel":"self","href":"x"},{"rel":"approve","href":"https://paypal.test/approve"}]}`))
	})
	mux.HandleFunc("/v2/checkout/orders/PP-1/capture", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"PP-1","status":"COMPLETED","purchase_units":[{"custom_id":"order-1","payments":{"captures":[{"id":"CAP-1","status":"COMPLETED","amount":{"currency_code":"INR","value":"1250.50"}}]}}]}`))
	})
	mux.HandleFunc("/v2/checkout/orders/PP-404/capture", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY"}`))
	})
	mux.HandleFunc("/v1/notifications/verify-webhook-signature", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		status := "FAILURE"
		if string(body["transmission_sig"]) == `"good"` {
			status = "SUCCESS"
		}
		json.NewEncoder(w).Encode(map[string]string{"verification_status": status})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestPaypal(t *testing.T, tokenCalls *int32) PaypalClient {
	srv := fakePaypal(t, tokenCalls)
	return NewPaypalClient(&config.Paypal{
		BaseApiURL:   srv.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		WebhookID:    "WH-1",
	}, zerolog.Nop())
}

func TestPaypalCreateAndCapture(t *testing.T) {
	var tokenCalls int32
	c := newTestPaypal(t, &tokenCalls)
	ctx := context.Background()

	created, err := c.CreateOrder(ctx, CreateOrderRequest{
		ReferenceID: "ORD-1",
		CustomID:    "order-1",
		Amount:      decimal.RequireFromString("1250.5"),
		Currency:    "INR",
		ReturnURL:   "http://localhost/api/paypal/success",
		CancelURL:   "http://localhost",
	})
	require.NoError(t, err)
	assert.Equal(t, "PP-1", created.OrderID)
	assert.Equal(t, "https://paypal.test/approve", created.ApproveURL)

	capture, err := c.CaptureOrder(ctx, "PP-1")
	require.NoError(t, err)
	assert.Equal(t, "CAP-1", capture.ID)
	assert.Equal(t, "order-1", capture.CustomID)
	assert.Equal(t, "1250.50", capture.Amount.Value)
	assert.Equal(t, "PP-1", capture.SupplementaryData.RelatedIDs.OrderID)

	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls), "access token is cached")
}

func TestPaypalCaptureError(t *testing.T) {
	var tokenCalls int32
	_, err := newTestPaypal(t, &tokenCalls).CaptureOrder(context.Background(), "PP-404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestPaypalVerifyWebhookSignature(t *testing.T) {
	var tokenCalls int32
	c := newTestPaypal(t, &tokenCalls)
	body := []byte(`{"id":"WH-EVT-1","event_type":"PAYMENT.CAPTURE.COMPLETED"}`)

	good := http.Header{}
	good.Set("PAYPAL-TRANSMISSION-SIG", "good")
	assert.NoError(t, c.VerifyWebhookSignature(context.Background(), good, body))

	bad := http.Header{}
	bad.Set("PAYPAL-TRANSMISSION-SIG", "forged")
	assert.Error(t, c.VerifyWebhookSignature(context.Background(), bad, body))
}

func TestPaypalVerifyWithoutWebhookID(t *testing.T) {
	c := NewPaypalClient(&config.Paypal{BaseApiURL: "http://127.0.0.1:0"}, zerolog.Nop())
	assert.Error(t, c.VerifyWebhookSignature(context.Background(), http.Header{}, []byte(`{}`)))
}
