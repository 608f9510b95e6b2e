package model

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderFailed     OrderStatus = "FAILED"
	OrderRefunded   OrderStatus = "REFUNDED"
)

// transitions lists the statuses reachable from each status. Nothing leads
// back to PENDING.
var transitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCompleted, OrderFailed, OrderRefunded},
	OrderProcessing: {OrderCompleted, OrderFailed, OrderRefunded},
	OrderCompleted:  {OrderRefunded},
	OrderFailed:     {OrderRefunded},
	OrderRefunded:   nil,
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Open reports whether the order can still be completed by a payment
// confirmation.
func (s OrderStatus) Open() bool {
	return s == OrderPending || s == OrderProcessing
}

// SourcesOf returns every status from which to is reachable.
func SourcesOf(to OrderStatus) []OrderStatus {
	var out []OrderStatus
	for _, from := range []OrderStatus{OrderPending, OrderProcessing, OrderCompleted, OrderFailed, OrderRefunded} {
		if from.CanTransition(to) {
			out = append(out, from)
		}
	}
	return out
}

// OpenStatuses are the statuses a payment confirmation may complete.
var OpenStatuses = []OrderStatus{OrderPending, OrderProcessing}
