package service

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"template-storefront/internal/client"
	"template-storefront/internal/model"
)

type confirmationView struct {
	ShopName    string
	OrderNumber string
	Items       []confirmationLine
	Total       string
	DownloadURL string
	ExpiresOn   string
}

type confirmationLine struct {
	Title    string
	Category string
	Price    string
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Thank you for your purchase!</h1>
  <p>Your payment has been received. Order <strong>#{{.OrderNumber}}</strong></p>
  <table style="width: 100%; border-collapse: collapse;">
    <thead>
      <tr style="background-color: #f8f9fa;">
        <th style="padding: 12px; text-align: left; border: 1px solid #dee2e6;">Template</th>
        <th style="padding: 12px; text-align: left; border: 1px solid #dee2e6;">Category</th>
        <th style="padding: 12px; text-align: right; border: 1px solid #dee2e6;">Price</th>
      </tr>
    </thead>
    <tbody>
    {{- range .Items}}
      <tr>
        <td style="padding: 12px; border: 1px solid #dee2e6;">{{.Title}}</td>
        <td style="padding: 12px; border: 1px solid #dee2e6;">{{.Category}}</td>
        <td style="padding: 12px; text-align: right; border: 1px solid #dee2e6;">{{.Price}}</td>
      </tr>
    {{- end}}
    </tbody>
    <tfoot>
      <tr style="background-color: #f8f9fa; font-weight: bold;">
        <td style="padding: 12px; border: 1px solid #dee2e6;" colspan="2">Total</td>
        <td style="padding: 12px; text-align: right; border: 1px solid #dee2e6;">{{.Total}}</td>
      </tr>
    </tfoot>
  </table>
  <div style="text-align: center; margin: 30px 0;">
    <a href="{{.DownloadURL}}" style="background-color: #111827; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; display: inline-block;">Access your template</a>
  </div>
  <p>This link is valid until {{.ExpiresOn}}. You can get a fresh link at any time by looking up your orders with this email address.</p>
  <p>Thanks for choosing {{.ShopName}}!</p>
</div>`))

// FormatMoney renders minor units for display, e.g. $29.99.
func FormatMoney(amountMinor int64, currency string) string {
	amount := client.FormatAmount(amountMinor, currency)
	if strings.EqualFold(currency, "USD") {
		return "$" + amount
	}
	return amount + " " + strings.ToUpper(currency)
}

// renderConfirmation builds the subject and HTML body for a completed order.
// The order must carry its items with products preloaded.
func renderConfirmation(shopName string, order *model.Order, downloadURL string) (string, string, error) {
	view := confirmationView{
		ShopName:    shopName,
		OrderNumber: order.ShortNumber(),
		Total:       FormatMoney(order.TotalAmount, order.Currency),
		DownloadURL: downloadURL,
	}
	if order.DownloadExpiry != nil {
		view.ExpiresOn = order.DownloadExpiry.UTC().Format("January 2, 2006 15:04 MST")
	}

	for _, item := range order.Items {
		line := confirmationLine{Price: FormatMoney(item.UnitPrice*int64(item.Quantity), order.Currency)}
		if item.Product != nil {
			line.Title = item.Product.Title
			if item.Product.Category != nil {
				line.Category = item.Product.Category.Name
			}
		}
		view.Items = append(view.Items, line)
	}

	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, view); err != nil {
		return "", "", fmt.Errorf("render confirmation: %w", err)
	}

	subject := fmt.Sprintf("Your template is ready - Order #%s", view.OrderNumber)
	if len(view.Items) == 1 && view.Items[0].Title != "" {
		subject = fmt.Sprintf("Your %s template is ready - Order #%s", view.Items[0].Title, view.OrderNumber)
	}
	return subject, buf.String(), nil
}
