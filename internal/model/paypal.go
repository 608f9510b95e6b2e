package model

import "encoding/json"

type PaypalLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type Amount struct {
	Currency string `json:"currency_code"`
	Value    string `json:"value"`
}

type Capture struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	CreateTime string `json:"create_time"`
	Final      bool   `json:"final_capture"`
	Amount     Amount `json:"amount"`
}

type Payments struct {
	Captures []Capture `json:"captures"`
}

type PurchaseUnit struct {
	ReferenceID string   `json:"reference_id"`
	CustomID    string   `json:"custom_id"`
	Amount      Amount   `json:"amount"`
	Payments    Payments `json:"payments"`
}

// PaypalOrder is the Orders v2 resource as returned by create, get and
// capture calls.
type PaypalOrder struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"` // CREATED, APPROVED, COMPLETED, VOIDED, PAYER_ACTION_REQUIRED
	Links         []PaypalLink   `json:"links"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`
}

// CompletedCapture returns the first completed capture on the order, if any.
func (o *PaypalOrder) CompletedCapture() (Capture, bool) {
	for _, pu := range o.PurchaseUnits {
		for _, c := range pu.Payments.Captures {
			if c.Status == "COMPLETED" {
				return c, true
			}
		}
	}
	return Capture{}, false
}

type RelatedIDs struct {
	OrderID string `json:"order_id"`
}

type SupplementaryData struct {
	RelatedIDs RelatedIDs `json:"related_ids"`
}

type PaypalResource struct {
	ID                string            `json:"id"`
	Status            string            `json:"status"`
	CustomID          string            `json:"custom_id"`
	SupplementaryData SupplementaryData `json:"supplementary_data"`
}

type PayPalWebhookEvent struct {
	ID           string         `json:"id"`
	EventType    string         `json:"event_type"`
	ResourceType string         `json:"resource_type"`
	CreateTime   string         `json:"create_time"`
	Resource     PaypalResource `json:"resource"`
}

const (
	EventCheckoutOrderApproved = "CHECKOUT.ORDER.APPROVED"
	EventCheckoutOrderVoided   = "CHECKOUT.ORDER.VOIDED"
	EventCaptureCompleted      = "PAYMENT.CAPTURE.COMPLETED"
	EventCaptureDenied         = "PAYMENT.CAPTURE.DENIED"
)

// SessionRef returns the checkout order id the event refers to.
func (e *PayPalWebhookEvent) SessionRef() string {
	switch e.EventType {
	case EventCaptureCompleted, EventCaptureDenied:
		return e.Resource.SupplementaryData.RelatedIDs.OrderID
	default:
		return e.Resource.ID
	}
}

// VerifySignatureRequest is the body of /v1/notifications/verify-webhook-signature.
type VerifySignatureRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}
