package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"template-storefront/internal/config"
)

type fakePaypal struct {
	orderStatus   string
	captureStatus string
	verifyStatus  string

	tokenCalls   int32
	captureCalls int32
	lastCreate   map[string]interface{}
	captureReqID string
}

func (f *fakePaypal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		if user, pass, ok := r.BasicAuth(); !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `{"access_token":"tok","expires_in":3600}`)
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&f.lastCreate); err != nil {
			t.Errorf("decode create body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"PP-ORDER-1","status":"PAYER_ACTION_REQUIRED","links":[{"rel":"self","href":"https://api/self"},{"rel":"payer-action","href":"https://paypal.example/checkoutnow?token=PP-ORDER-1"}]}`)
	})
	mux.HandleFunc("/v2/checkout/orders/PP-ORDER-1", func(w http.ResponseWriter, r *http.Request) {
		writeOrder(w, f.orderStatus, f.captureStatus)
	})
	mux.HandleFunc("/v2/checkout/orders/PP-ORDER-1/capture", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.captureCalls, 1)
		f.captureReqID = r.Header.Get("PayPal-Request-Id")
		f.orderStatus = "COMPLETED"
		f.captureStatus = "COMPLETED"
		w.WriteHeader(http.StatusCreated)
		writeOrder(w, f.orderStatus, f.captureStatus)
	})
	mux.HandleFunc("/v1/notifications/verify-webhook-signature", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		if req["webhook_id"] != "WH-CONFIG" || req["transmission_id"] == "" {
			t.Errorf("unexpected verify payload: %v", req)
		}
		io.WriteString(w, `{"verification_status":"`+f.verifyStatus+`"}`)
	})
	return mux
}

func writeOrder(w http.ResponseWriter, status, captureStatus string) {
	body := map[string]interface{}{"id": "PP-ORDER-1", "status": status}
	if captureStatus != "" {
		body["purchase_units"] = []map[string]interface{}{{
			"payments": map[string]interface{}{
				"captures": []map[string]string{{"id": "CAP-9", "status": captureStatus}},
			},
		}}
	}
	json.NewEncoder(w).Encode(body)
}

func newTestPaypal(t *testing.T, f *fakePaypal) PaypalClient {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewPaypalClient(&config.Paypal{
		BaseApiURL:   srv.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		WebhookID:    "WH-CONFIG",
	})
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		minor    int64
		currency string
		want     string
	}{
		{2999, "USD", "29.99"},
		{1500, "usd", "15.00"},
		{5, "EUR", "0.05"},
		{1200, "JPY", "1200"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.minor, tt.currency); got != tt.want {
			t.Errorf("FormatAmount(%d, %s) = %q, want %q", tt.minor, tt.currency, got, tt.want)
		}
	}
}

func TestCreateHostedSession(t *testing.T) {
	t.Parallel()

	f := &fakePaypal{}
	c := newTestPaypal(t, f)

	sess, err := c.CreateHostedSession(context.Background(), HostedSessionRequest{
		AmountMinor:    2999,
		Currency:       "USD",
		SuccessURL:     "http://shop/api/paypal/success",
		CancelURL:      "http://shop/product/p1",
		CorrelationRef: "order-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.SessionID != "PP-ORDER-1" || sess.HostedURL != "https://paypal.example/checkoutnow?token=PP-ORDER-1" {
		t.Fatalf("unexpected session %+v", sess)
	}

	units := f.lastCreate["purchase_units"].([]interface{})
	unit := units[0].(map[string]interface{})
	if unit["custom_id"] != "order-1" {
		t.Fatalf("expected custom_id order-1, got %v", unit["custom_id"])
	}
	amount := unit["amount"].(map[string]interface{})
	if amount["value"] != "29.99" {
		t.Fatalf("expected 29.99, got %v", amount["value"])
	}

	// token is cached across calls
	if _, err := c.CreateHostedSession(context.Background(), HostedSessionRequest{AmountMinor: 1, Currency: "USD", CorrelationRef: "order-2"}); err != nil {
		t.Fatalf("second create: %v", err)
	}
	if got := atomic.LoadInt32(&f.tokenCalls); got != 1 {
		t.Fatalf("expected one token call, got %d", got)
	}
}

func TestIsSessionPaid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		orderStatus  string
		capture      string
		wantPaid     bool
		wantCaptures int32
	}{
		{name: "created", orderStatus: "CREATED", wantPaid: false},
		{name: "approved_is_captured", orderStatus: "APPROVED", wantPaid: true, wantCaptures: 1},
		{name: "completed", orderStatus: "COMPLETED", capture: "COMPLETED", wantPaid: true},
		{name: "completed_capture_pending", orderStatus: "COMPLETED", capture: "PENDING", wantPaid: false},
		{name: "voided", orderStatus: "VOIDED", wantPaid: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := &fakePaypal{orderStatus: tt.orderStatus, captureStatus: tt.capture}
			c := newTestPaypal(t, f)

			paid, ref, err := c.IsSessionPaid(context.Background(), "PP-ORDER-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if paid != tt.wantPaid {
				t.Fatalf("expected paid=%v, got %v", tt.wantPaid, paid)
			}
			if paid && ref != "CAP-9" {
				t.Fatalf("expected capture ref CAP-9, got %q", ref)
			}
			if got := atomic.LoadInt32(&f.captureCalls); got != tt.wantCaptures {
				t.Fatalf("expected %d capture calls, got %d", tt.wantCaptures, got)
			}
			if tt.wantCaptures > 0 && f.captureReqID != "capture-PP-ORDER-1" {
				t.Fatalf("capture must be idempotent, request id %q", f.captureReqID)
			}
		})
	}
}

func TestIsSessionPaidUnknownOrder(t *testing.T) {
	t.Parallel()

	c := newTestPaypal(t, &fakePaypal{})
	if _, _, err := c.IsSessionPaid(context.Background(), "PP-MISSING"); err == nil {
		t.Fatal("expected error for unknown order")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	t.Parallel()

	headers := http.Header{}
	headers.Set("PAYPAL-AUTH-ALGO", "SHA256withRSA")
	headers.Set("PAYPAL-CERT-URL", "https://api.paypal.com/cert")
	headers.Set("PAYPAL-TRANSMISSION-ID", "tx-1")
	headers.Set("PAYPAL-TRANSMISSION-SIG", "sig")
	headers.Set("PAYPAL-TRANSMISSION-TIME", "2026-01-01T00:00:00Z")
	body := []byte(`{"id":"WH-1","event_type":"CHECKOUT.ORDER.APPROVED"}`)

	tests := []struct {
		name    string
		status  string
		headers http.Header
		body    []byte
		want    bool
	}{
		{name: "success", status: "SUCCESS", headers: headers, body: body, want: true},
		{name: "failure", status: "FAILURE", headers: headers, body: body, want: false},
		{name: "missing_headers", status: "SUCCESS", headers: http.Header{}, body: body, want: false},
		{name: "not_json", status: "SUCCESS", headers: headers, body: []byte("nope"), want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestPaypal(t, &fakePaypal{verifyStatus: tt.status})
			ok, err := c.VerifyWebhookSignature(context.Background(), tt.headers, tt.body)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, ok)
			}
		})
	}
}
