package model

import (
	"encoding/json"
	"testing"
)

func TestWebhookSessionRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "capture_completed_uses_related_order",
			body: `{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP-1","supplementary_data":{"related_ids":{"order_id":"PP-ORDER-1"}}}}`,
			want: "PP-ORDER-1",
		},
		{
			name: "order_approved_uses_resource_id",
			body: `{"id":"WH-2","event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"PP-ORDER-2"}}`,
			want: "PP-ORDER-2",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ev PayPalWebhookEvent
			if err := json.Unmarshal([]byte(tt.body), &ev); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := ev.SessionRef(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCompletedCapture(t *testing.T) {
	t.Parallel()

	o := PaypalOrder{PurchaseUnits: []PurchaseUnit{{Payments: Payments{Captures: []Capture{
		{ID: "CAP-PENDING", Status: "PENDING"},
		{ID: "CAP-OK", Status: "COMPLETED"},
	}}}}}

	c, ok := o.CompletedCapture()
	if !ok || c.ID != "CAP-OK" {
		t.Fatalf("expected CAP-OK, got %+v ok=%v", c, ok)
	}

	empty := PaypalOrder{}
	if _, ok := empty.CompletedCapture(); ok {
		t.Fatal("expected no capture")
	}
}
