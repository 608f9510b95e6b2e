package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"template-storefront/internal/apperr"
	"template-storefront/internal/model"
)

func (s *fulfillmentServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	ok, err := s.paypalClient.VerifyWebhookSignature(ctx, headers, body)
	if err != nil {
		s.metrics.WebhookEvents.WithLabelValues("unknown", "verify_error").Inc()
		return fmt.Errorf("verify webhook signature: %v: %w", err, apperr.ErrGatewayError)
	}
	if !ok {
		s.metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		s.logger.WarnContext(ctx, "webhook signature rejected")
		return fmt.Errorf("verify webhook signature: %w", apperr.ErrSignatureInvalid)
	}

	var event model.PayPalWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode webhook payload: %v: %w", err, apperr.ErrInvalidInput)
	}
	if event.ID == "" {
		return fmt.Errorf("webhook event without id: %w", apperr.ErrInvalidInput)
	}

	logger := s.logger.With(
		slog.String("event_id", event.ID),
		slog.String("event_type", event.EventType),
		slog.String("session_ref", event.SessionRef()),
	)

	seen, err := s.webhookRepo.Exists(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if seen {
		s.metrics.WebhookEvents.WithLabelValues(event.EventType, "duplicate").Inc()
		logger.InfoContext(ctx, "duplicate webhook event")
		return nil
	}

	outcome, err := s.dispatch(ctx, &event, logger)
	s.metrics.WebhookEvents.WithLabelValues(event.EventType, outcome).Inc()
	if err != nil {
		return err
	}
	if outcome == "pending" {
		// leave unrecorded so a redelivery can finish the order
		return nil
	}

	if err := s.webhookRepo.MarkProcessed(ctx, event.ID, event.EventType); err != nil {
		return fmt.Errorf("mark webhook processed: %w", err)
	}
	return nil
}

func (s *fulfillmentServiceImpl) dispatch(ctx context.Context, event *model.PayPalWebhookEvent, logger *slog.Logger) (string, error) {
	ref := event.SessionRef()

	switch event.EventType {
	case model.EventCheckoutOrderApproved, model.EventCaptureCompleted:
		_, err := s.ConfirmPayment(ctx, ref, ChannelPush)
		switch {
		case err == nil:
			return "processed", nil
		case errors.Is(err, apperr.ErrPaymentNotConfirmed):
			logger.InfoContext(ctx, "webhook arrived before payment settled")
			return "pending", nil
		case errors.Is(err, apperr.ErrOrderNotFound), errors.Is(err, apperr.ErrOrderClosed):
			logger.WarnContext(ctx, "webhook for order that cannot complete", slog.Any("error", err))
			return "ignored", nil
		default:
			return "error", err
		}

	case model.EventCaptureDenied, model.EventCheckoutOrderVoided:
		order, err := s.orderRepo.FindBySessionRef(ctx, ref)
		if errors.Is(err, apperr.ErrOrderNotFound) {
			logger.WarnContext(ctx, "failure signal for unknown order")
			return "ignored", nil
		}
		if err != nil {
			return "error", err
		}
		changed, err := s.orderRepo.TransitionStatus(ctx, order.ID, model.OpenStatuses, model.OrderFailed)
		if err != nil {
			return "error", fmt.Errorf("fail order %s: %w", order.ID, err)
		}
		if changed {
			logger.InfoContext(ctx, "order failed by gateway", slog.String("order_id", order.ID))
			return "processed", nil
		}
		return "ignored", nil

	default:
		logger.DebugContext(ctx, "unhandled webhook event")
		return "ignored", nil
	}
}
