package handler

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"template-storefront/internal/apperr"
	"template-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

const maxWebhookBody = 1 << 20

// processingPage is shown when the buyer returns from PayPal before the
// payment has settled. It reloads the return URL, which retries confirmation.
var processingPage = template.Must(template.New("processing").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Payment Processing</title>
	<style>
		body {
			font-family: Arial, sans-serif;
			text-align: center;
			margin-top: 80px;
		}
		.countdown {
			font-size: 24px;
			font-weight: bold;
		}
	</style>
</head>
<body>
	<h2>Payment received</h2>
	<p>{{.Message}}</p>
	<p>Checking again in <span class="countdown" id="countdown">{{.Seconds}}</span> seconds</p>

	<script>
		let seconds = {{.Seconds}};
		const el = document.getElementById("countdown");

		const timer = setInterval(function () {
			seconds--;
			el.textContent = seconds;

			if (seconds <= 0) {
				clearInterval(timer);
				window.location.href = {{.RetryURL}};
			}
		}, 1000);
	</script>
</body>
</html>
`))

type PaypalHandler struct {
	fulfillmentService service.FulfillmentService
	logger             *slog.Logger
}

func NewPaypalHandler(fulfillmentService service.FulfillmentService, logger *slog.Logger) *PaypalHandler {
	return &PaypalHandler{
		fulfillmentService: fulfillmentService,
		logger:             logger,
	}
}

// HandleSuccess is the PayPal return URL. PayPal appends the order id as
// ?token=, which is our session ref.
func (h *PaypalHandler) HandleSuccess(c echo.Context) error {
	ctx := c.Request().Context()

	sessionRef := c.QueryParam("token")
	if sessionRef == "" {
		return c.String(http.StatusBadRequest, "missing order token")
	}

	_, err := h.fulfillmentService.ConfirmPayment(ctx, sessionRef, service.ChannelPull)
	switch {
	case err == nil:
		return c.Redirect(http.StatusFound, "/order/success?session_id="+url.QueryEscape(sessionRef))

	case errors.Is(err, apperr.ErrPaymentNotConfirmed), errors.Is(err, apperr.ErrGatewayError):
		var buf bytes.Buffer
		if err := processingPage.Execute(&buf, map[string]any{
			"Message":  apperr.BuyerMessage(err),
			"Seconds":  5,
			"RetryURL": c.Request().URL.RequestURI(),
		}); err != nil {
			return err
		}
		return c.HTMLBlob(http.StatusAccepted, buf.Bytes())
	}
	return err
}

func (h *PaypalHandler) PayPalWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if err := h.fulfillmentService.HandleWebhook(ctx, c.Request().Header, body); err != nil {
		h.logger.WarnContext(ctx, "webhook not processed", slog.Any("error", err))
		return err
	}

	return c.NoContent(http.StatusOK)
}
