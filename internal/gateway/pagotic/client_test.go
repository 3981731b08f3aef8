package pagotic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newProvider spins up a fake PagoTIC issuing tokens at /auth/token and
// accepting payments at /pagos.  rejectFirst makes the first payment
// call fail with 401 to exercise the refresh-and-retry path.
func newProvider(t *testing.T, rejectFirst bool) (*httptest.Server, *atomic.Int32, *atomic.Int32) {
	t.Helper()
	var tokenCalls, payCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		n := tokenCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": fmt.Sprintf("token-%d", n),
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/pagos", func(w http.ResponseWriter, r *http.Request) {
		n := payCalls.Add(1)
		if rejectFirst && n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(PaymentResponse{
			ID: "pt-42", FormURL: "https://forms.example/pt-42", Status: "pending",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &tokenCalls, &payCalls
}

func TestClient_CreatePayment(t *testing.T) {
	t.Parallel()

	t.Run("exchanges credentials once and reuses the token", func(t *testing.T) {
		srv, tokenCalls, payCalls := newProvider(t, false)
		c := NewClient(Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret"})

		for i := 0; i < 3; i++ {
			resp, err := c.CreatePayment(context.Background(), &PaymentRequest{Type: "online"})
			require.NoError(t, err)
			assert.Equal(t, "pt-42", resp.ID)
			assert.Equal(t, "https://forms.example/pt-42", resp.FormURL)
		}
		assert.Equal(t, int32(1), tokenCalls.Load())
		assert.Equal(t, int32(3), payCalls.Load())
	})

	t.Run("refreshes the token and retries exactly once on 401", func(t *testing.T) {
		srv, tokenCalls, payCalls := newProvider(t, true)
		c := NewClient(Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret"})

		resp, err := c.CreatePayment(context.Background(), &PaymentRequest{Type: "online"})
		require.NoError(t, err)
		assert.Equal(t, "pt-42", resp.ID)
		assert.Equal(t, int32(2), tokenCalls.Load())
		assert.Equal(t, int32(2), payCalls.Load())
	})

	t.Run("defaults currency and collector from the config", func(t *testing.T) {
		srv, _, _ := newProvider(t, false)
		c := NewClient(Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "s", CollectorID: "coll-9"})

		req := &PaymentRequest{Type: "online"}
		_, err := c.CreatePayment(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "ARS", req.CurrencyID)
		assert.Equal(t, "coll-9", req.CollectorID)
	})

	t.Run("provider rejections surface status and body", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok", "expires_in": 3600})
		})
		mux.HandleFunc("/pagos", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"invalid payer"}`))
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		c := NewClient(Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "s"})
		_, err := c.CreatePayment(context.Background(), &PaymentRequest{Type: "online"})

		var gerr *Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, http.StatusUnprocessableEntity, gerr.StatusCode)
		assert.Contains(t, gerr.Body, "invalid payer")
	})

	t.Run("timeouts surface as ErrGatewayTimeout", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok", "expires_in": 3600})
		})
		mux.HandleFunc("/pagos", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		c := NewClient(Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "s", Timeout: 50 * time.Millisecond})
		_, err := c.CreatePayment(context.Background(), &PaymentRequest{Type: "online"})
		assert.ErrorIs(t, err, ErrGatewayTimeout)
	})
}

func TestClient_GetPayment(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok", "expires_in": 3600})
	})
	mux.HandleFunc("/pagos/pt-42", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(PaymentResponse{ID: "pt-42", Status: "approved"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient(Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "s"})
	resp, err := c.GetPayment(context.Background(), "pt-42")
	require.NoError(t, err)
	assert.Equal(t, "approved", resp.Status)
}
