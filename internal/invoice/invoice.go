// Package invoice renders the plain-text invoice of a paid order.
package invoice

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
	"github.com/MikeMC777/printshop-orders/internal/fulfillment"
	"github.com/MikeMC777/printshop-orders/internal/order"
)

const ContentType = "text/plain; charset=utf-8"

var tmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(o *order.Order) string { return o.CreatedAt.UTC().Format("2006-01-02") },
}).Parse(`INVOICE {{.ID}}
Date:     {{date .}}
Receipt:  {{.PaymentID}}
Method:   {{.PaymentMethod}}

Bill to:
  {{.Shipping.Name}}
  {{.Shipping.Address}}
  {{.Shipping.City}}{{with .Shipping.PostalCode}} {{.}}{{end}}{{with .Shipping.Country}}, {{.}}{{end}}
{{range .Items}}
  {{printf "%-30.30s" .ProductName}} {{printf "%4d" .Quantity}} x {{printf "%10s" (money .Price)}} = {{printf "%10s" (money .Subtotal)}}
{{- with .CustomizationText}}
      "{{.}}"{{end}}
{{- end}}

TOTAL {{money .TotalPrice}}
`))

// Render writes the invoice of o. Unpaid orders have no invoice.
func Render(o *order.Order) ([]byte, error) {
	if o.PaymentStatus != fulfillment.PaymentCompleted {
		return nil, fmt.Errorf("%w: invoice is issued once payment is completed (payment is %s)", apperr.ErrPaymentRequired, o.PaymentStatus)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, o); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", o.ID, err)
	}
	return buf.Bytes(), nil
}
