package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"example.com/backstage/services/commerce/internal/models"
)

var orderTemplate = template.Must(template.New("order").Parse(`<p>{{.Greeting}}</p>
<p>Order <strong>{{.Order.ID}}</strong> placed on {{.Order.OrderDate.Format "02 Jan 2006 15:04"}}.</p>
<table>
<tr><th align="left">Item</th><th>Size</th><th>Qty</th><th align="right">Unit price</th></tr>
{{range .Order.Items}}<tr><td>{{.ProductName}}</td><td>{{.Size}}</td><td>{{.Quantity}}</td><td align="right">{{.UnitPrice.StringFixed 2}}</td></tr>
{{end}}</table>
<p>Total: <strong>KES {{.Order.TotalAmount.StringFixed 2}}</strong></p>
{{if .Order.ShippingAddress}}<p>Ship to: {{.Order.ShippingAddress}}, {{.Order.City}}</p>{{end}}`))

// OrderReceipt builds the customer receipt for a paid order.
func OrderReceipt(order *models.Order) (Email, error) {
	body, err := renderOrder(order, fmt.Sprintf("Hi %s, thank you for your order.", order.CustomerName))
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:       []string{order.CustomerEmail},
		Subject:  "Your order " + order.ID,
		HTMLBody: body,
	}, nil
}

// AdminOrderAlert builds the back-office notification for a paid order.
func AdminOrderAlert(order *models.Order, adminEmail string) (Email, error) {
	greeting := fmt.Sprintf("New %s order from %s (%s).", order.Channel, order.CustomerName, order.CustomerPhone)
	body, err := renderOrder(order, greeting)
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:       []string{adminEmail},
		Subject:  fmt.Sprintf("New order %s: KES %s", order.ID, order.TotalAmount.StringFixed(2)),
		HTMLBody: body,
	}, nil
}

func renderOrder(order *models.Order, greeting string) (string, error) {
	var buf bytes.Buffer
	err := orderTemplate.Execute(&buf, struct {
		Greeting string
		Order    *models.Order
	}{greeting, order})
	if err != nil {
		return "", fmt.Errorf("render order email: %w", err)
	}
	return buf.String(), nil
}
