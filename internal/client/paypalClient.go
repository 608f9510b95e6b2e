package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"template-storefront/internal/config"
	"template-storefront/internal/model"

	"github.com/shopspring/decimal"
)

type PaypalClient interface {
	CreateHostedSession(ctx context.Context, req HostedSessionRequest) (*HostedSession, error)
	// IsSessionPaid reports whether the buyer's money has been captured for
	// the session, capturing an approved order on the way. paymentRef is the
	// capture id when paid is true.
	IsSessionPaid(ctx context.Context, sessionID string) (paid bool, paymentRef string, err error)
	VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) (bool, error)
}

type HostedSessionRequest struct {
	AmountMinor    int64
	Currency       string
	SuccessURL     string
	CancelURL      string
	CorrelationRef string // our order id
	Description    string
}

type HostedSession struct {
	SessionID string
	HostedURL string
}

var errAlreadyCaptured = errors.New("order already captured")

type paypalClientImpl struct {
	httpClient         *http.Client
	baseApiURL         string
	paypalClientID     string
	paypalClientSecret string
	webhookID          string

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewPaypalClient(paypalCfg *config.Paypal) PaypalClient {
	return &paypalClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:         strings.TrimRight(paypalCfg.BaseApiURL, "/"),
		paypalClientID:     paypalCfg.ClientID,
		paypalClientSecret: paypalCfg.ClientSecret,
		webhookID:          paypalCfg.WebhookID,
	}
}

// zeroDecimalCurrencies are the PayPal currencies that do not accept a
// fractional amount.
var zeroDecimalCurrencies = map[string]bool{"HUF": true, "JPY": true, "TWD": true}

// FormatAmount renders minor units the way PayPal expects, e.g. 2999 USD as "29.99".
func FormatAmount(amountMinor int64, currency string) string {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return decimal.NewFromInt(amountMinor).StringFixed(0)
	}
	return decimal.New(amountMinor, -2).StringFixed(2)
}

func (c *paypalClientImpl) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	auth := base64.StdEncoding.EncodeToString(
		[]byte(c.paypalClientID + ":" + c.paypalClientSecret),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+"/v1/oauth2/token",
		strings.NewReader(url.Values{"grant_type": {"client_credentials"}}.Encode()))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("paypal oauth error %d: %s", resp.StatusCode, string(b))
	}

	var res struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode oauth response: %w", err)
	}
	if res.AccessToken == "" {
		return "", errors.New("paypal oauth returned empty token")
	}

	// refresh a minute early so in-flight calls never carry a stale token
	ttl := time.Duration(res.ExpiresIn)*time.Second - time.Minute
	if ttl < 0 {
		ttl = 0
	}
	c.accessToken = res.AccessToken
	c.expiresAt = time.Now().Add(ttl)

	return c.accessToken, nil
}

// do sends an authenticated JSON request and decodes a 2xx response into out.
func (c *paypalClientImpl) do(ctx context.Context, method, path string, payload interface{}, headers map[string]string, out interface{}) (int, error) {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return 0, fmt.Errorf("get paypal access token: %w", err)
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("marshal req payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("paypal request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read paypal response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("paypal error %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode paypal response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *paypalClientImpl) CreateHostedSession(ctx context.Context, in HostedSessionRequest) (*HostedSession, error) {
	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": in.CorrelationRef,
				"custom_id":    in.CorrelationRef,
				"description":  in.Description,
				"amount": map[string]string{
					"currency_code": strings.ToUpper(in.Currency),
					"value":         FormatAmount(in.AmountMinor, in.Currency),
				},
			},
		},
		"payment_source": map[string]interface{}{
			"paypal": map[string]interface{}{
				"experience_context": map[string]string{
					"shipping_preference": "NO_SHIPPING",
					"user_action":         "PAY_NOW",
					"return_url":          in.SuccessURL,
					"cancel_url":          in.CancelURL,
				},
			},
		},
	}

	var result model.PaypalOrder
	_, err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", payload,
		map[string]string{"PayPal-Request-Id": "create-" + in.CorrelationRef}, &result)
	if err != nil {
		return nil, err
	}

	hostedURL := extractApproveURL(result.Links)
	if result.ID == "" || hostedURL == "" {
		return nil, fmt.Errorf("paypal order %q has no approval link", result.ID)
	}

	return &HostedSession{
		SessionID: result.ID,
		HostedURL: hostedURL,
	}, nil
}

func (c *paypalClientImpl) getOrder(ctx context.Context, orderID string) (*model.PaypalOrder, error) {
	var order model.PaypalOrder
	if _, err := c.do(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(orderID), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *paypalClientImpl) captureOrder(ctx context.Context, orderID string) (*model.PaypalOrder, error) {
	var order model.PaypalOrder
	status, err := c.do(ctx, http.MethodPost,
		"/v2/checkout/orders/"+url.PathEscape(orderID)+"/capture",
		struct{}{},
		map[string]string{
			// PayPal replays the first result for a repeated request id
			"PayPal-Request-Id": "capture-" + orderID,
			"Prefer":            "return=representation",
		},
		&order)
	if err != nil {
		if status == http.StatusUnprocessableEntity && strings.Contains(err.Error(), "ORDER_ALREADY_CAPTURED") {
			return nil, errAlreadyCaptured
		}
		return nil, err
	}
	return &order, nil
}

func (c *paypalClientImpl) IsSessionPaid(ctx context.Context, sessionID string) (bool, string, error) {
	order, err := c.getOrder(ctx, sessionID)
	if err != nil {
		return false, "", err
	}

	if order.Status == "APPROVED" {
		captured, err := c.captureOrder(ctx, sessionID)
		switch {
		case errors.Is(err, errAlreadyCaptured):
			if order, err = c.getOrder(ctx, sessionID); err != nil {
				return false, "", err
			}
		case err != nil:
			return false, "", err
		default:
			order = captured
		}
	}

	if order.Status != "COMPLETED" {
		return false, "", nil
	}
	capture, ok := order.CompletedCapture()
	if !ok {
		// completed order whose capture is still PENDING (e.g. eCheck)
		return false, "", nil
	}
	return true, capture.ID, nil
}

func (c *paypalClientImpl) VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) (bool, error) {
	if c.webhookID == "" {
		return false, errors.New("paypal webhook id is not configured")
	}
	if !json.Valid(body) {
		return false, nil
	}

	payload := model.VerifySignatureRequest{
		AuthAlgo:         headers.Get("PAYPAL-AUTH-ALGO"),
		CertURL:          headers.Get("PAYPAL-CERT-URL"),
		TransmissionID:   headers.Get("PAYPAL-TRANSMISSION-ID"),
		TransmissionSig:  headers.Get("PAYPAL-TRANSMISSION-SIG"),
		TransmissionTime: headers.Get("PAYPAL-TRANSMISSION-TIME"),
		WebhookID:        c.webhookID,
		WebhookEvent:     json.RawMessage(body),
	}
	if payload.TransmissionID == "" || payload.TransmissionSig == "" {
		return false, nil
	}

	var result struct {
		VerificationStatus string `json:"verification_status"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", payload, nil, &result); err != nil {
		return false, err
	}

	return result.VerificationStatus == "SUCCESS", nil
}

func extractApproveURL(links []model.PaypalLink) string {
	for _, link := range links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			return link.Href
		}
	}
	return ""
}
