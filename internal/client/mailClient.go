package client

import (
	"context"
	"fmt"
	"log/slog"

	"template-storefront/internal/config"

	"github.com/wneessen/go-mail"
)

type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type smtpNotifier struct {
	client   *mail.Client
	from     string
	fromName string
}

// NewNotifier returns an SMTP notifier, or a notifier that only logs when no
// SMTP host is configured.
func NewNotifier(cfg config.SMTP, logger *slog.Logger) (Notifier, error) {
	if cfg.Host == "" {
		return &LogNotifier{logger: logger}, nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("new smtp client: %w", err)
	}

	return &smtpNotifier{
		client:   c,
		from:     cfg.From,
		fromName: cfg.FromName,
	}, nil
}

func (n *smtpNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(n.fromName, n.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogNotifier writes outgoing mail to the log instead of delivering it.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	n.logger.InfoContext(ctx, "email not delivered, smtp disabled",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.Int("body_bytes", len(htmlBody)),
	)
	return nil
}
