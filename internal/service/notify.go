package service

import (
	"context"
	"fmt"
	"log/slog"

	"template-storefront/internal/apperr"
	"template-storefront/internal/client"
	"template-storefront/internal/metrics"
	"template-storefront/internal/model"
)

type confirmationSender struct {
	notifier client.Notifier
	shopName string
	baseURL  string
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func newConfirmationSender(notifier client.Notifier, shopName, baseURL string, m *metrics.Metrics, logger *slog.Logger) *confirmationSender {
	if shopName == "" {
		shopName = "LuxeCustomized"
	}
	return &confirmationSender{
		notifier: notifier,
		shopName: shopName,
		baseURL:  baseURL,
		metrics:  m,
		logger:   logger,
	}
}

// Send emails the download link of a completed order. A failure is logged and
// counted but never undoes the completion.
func (c *confirmationSender) Send(ctx context.Context, order *model.Order) error {
	if order.DownloadToken == nil {
		return fmt.Errorf("order %s has no credential: %w", order.ID, apperr.ErrInvalidTransition)
	}

	subject, body, err := renderConfirmation(c.shopName, order, DownloadURL(c.baseURL, *order.DownloadToken))
	if err == nil {
		err = c.notifier.Send(ctx, order.Email, subject, body)
	}
	if err != nil {
		c.metrics.NotificationsFailed.Inc()
		c.logger.WarnContext(ctx, "notifier failure",
			slog.String("order_id", order.ID),
			slog.Any("error", err),
		)
		return fmt.Errorf("send confirmation: %v: %w", err, apperr.ErrNotifierFailure)
	}

	c.logger.InfoContext(ctx, "confirmation sent", slog.String("order_id", order.ID))
	return nil
}
