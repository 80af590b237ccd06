package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
	"github.com/MikeMC777/printshop-orders/internal/fulfillment"
	"github.com/MikeMC777/printshop-orders/internal/order"
)

func paidOrder() *order.Order {
	return &order.Order{
		ID:            "o-1",
		TotalPrice:    decimal.RequireFromString("37.50"),
		Status:        fulfillment.StatusProcessing,
		PaymentStatus: fulfillment.PaymentCompleted,
		PaymentMethod: fulfillment.MethodMpesa,
		PaymentID:     "RCPT-01J",
		Shipping:      order.Shipping{Name: "Ana", Address: "Moi Avenue 4", City: "Nairobi", Country: "KE"},
		CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Items: []order.Item{
			{ProductName: "Photo mug", Price: decimal.RequireFromString("12.50"), Quantity: 3, CustomizationText: "Happy birthday"},
		},
	}
}

func TestRender(t *testing.T) {
	out, err := Render(paidOrder())
	require.NoError(t, err)

	doc := string(out)
	assert.Contains(t, doc, "INVOICE o-1")
	assert.Contains(t, doc, "Date:     2026-03-01")
	assert.Contains(t, doc, "RCPT-01J")
	assert.Contains(t, doc, "Nairobi, KE")
	assert.Contains(t, doc, "37.50")
	assert.Contains(t, doc, `"Happy birthday"`)
	assert.Contains(t, doc, "TOTAL 37.50")
}

func TestRender_Unpaid(t *testing.T) {
	for _, ps := range []fulfillment.PaymentStatus{fulfillment.PaymentPending, fulfillment.PaymentProcessing, fulfillment.PaymentFailed} {
		o := paidOrder()
		o.PaymentStatus = ps
		_, err := Render(o)
		assert.ErrorIs(t, err, apperr.ErrPaymentRequired, string(ps))
	}
}
