// Package apperr holds the error taxonomy shared by the fulfillment core and
// the HTTP layer.
package apperr

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrProductUnavailable  = errors.New("product unavailable")
	ErrGatewayError        = errors.New("payment gateway error")
	ErrOrderNotFound       = errors.New("order not found")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	ErrSignatureInvalid    = errors.New("webhook signature invalid")
	ErrNotifierFailure     = errors.New("notifier failure")

	ErrOrderClosed       = errors.New("order is closed")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrCredentialExpired = errors.New("download credential expired")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
)

func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrProductUnavailable):
		return "product_unavailable"

	case errors.Is(err, ErrGatewayError):
		return "gateway_error"

	case errors.Is(err, ErrOrderNotFound):
		return "order_not_found"

	case errors.Is(err, ErrPaymentNotConfirmed):
		return "payment_not_confirmed"

	case errors.Is(err, ErrSignatureInvalid):
		return "signature_invalid"

	case errors.Is(err, ErrNotifierFailure):
		return "notifier_failure"

	case errors.Is(err, ErrOrderClosed):
		return "order_closed"

	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"

	case errors.Is(err, ErrCredentialExpired):
		return "credential_expired"

	case errors.Is(err, ErrInvalidInput):
		return "bad_request"

	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"

	case errors.Is(err, ErrNotFound):
		return "not_found"

	case errors.Is(err, ErrConflict):
		return "conflict"

	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"

	case errors.Is(err, context.Canceled):
		return "canceled"

	default:
		return "internal"
	}
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrSignatureInvalid):
		return http.StatusBadRequest

	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, ErrProductUnavailable),
		errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrPaymentNotConfirmed):
		return http.StatusPaymentRequired

	case errors.Is(err, ErrOrderClosed),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrConflict):
		return http.StatusConflict

	case errors.Is(err, ErrCredentialExpired):
		return http.StatusGone

	case errors.Is(err, ErrGatewayError):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// BuyerMessage is the only text a buyer ever sees for a failed request.
func BuyerMessage(err error) string {
	switch {
	case errors.Is(err, ErrProductUnavailable):
		return "this item is no longer available"
	case errors.Is(err, ErrPaymentNotConfirmed),
		errors.Is(err, ErrGatewayError),
		errors.Is(err, context.DeadlineExceeded):
		return "we couldn't confirm your payment yet - it may take a moment"
	case errors.Is(err, ErrOrderNotFound):
		return "order not found"
	case errors.Is(err, ErrCredentialExpired):
		return "this download link has expired, look up your order again to get a fresh one"
	case errors.Is(err, ErrInvalidInput):
		return "invalid request"
	default:
		return "something went wrong"
	}
}
