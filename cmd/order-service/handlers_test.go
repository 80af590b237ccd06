package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MikeMC777/printshop-orders/internal/database/dbtest"
	"github.com/MikeMC777/printshop-orders/internal/fulfillment"
	"github.com/MikeMC777/printshop-orders/internal/httpx"
	"github.com/MikeMC777/printshop-orders/internal/order"
	"github.com/MikeMC777/printshop-orders/internal/payment"
	"github.com/MikeMC777/printshop-orders/internal/settings"
)

const (
	adminKey      = "staff-secret"
	webhookSecret = "whsec_test"
)

//
// ---------- FIXTURE ----------
//

type api struct {
	t      *testing.T
	router *gin.Engine
	db     *sqlx.DB
}

func newAPI(t *testing.T, values map[string]string) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	dbtest.SeedProduct(t, db, "mug", "Photo mug", "12.50", 5)
	dbtest.SeedProduct(t, db, "poster", "A2 poster", "18.90", 1)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminKey), bcrypt.MinCost)
	require.NoError(t, err)

	log := zap.NewNop()
	orders := order.NewService(order.Deps{DB: db, Log: log})
	payments := payment.NewTracker(payment.Deps{
		DB:       db,
		Orders:   orders,
		Settings: settings.NewCache(settings.StaticLoader(values), time.Minute),
		Log:      log,
		Config:   payment.Config{WebhookSecret: webhookSecret},
	})

	r := newRouter(routerDeps{
		Orders:   orders,
		Payments: payments,
		Auth:     httpx.NewAuthenticator(string(hash)),
		Ping:     db.PingContext,
		Log:      log,
	})
	return &api{t: t, router: r, db: db}
}

func asCustomer(id string) map[string]string { return map[string]string{httpx.HeaderUserID: id} }

func asAdmin() map[string]string { return map[string]string{httpx.HeaderAPIKey: adminKey} }

func (a *api) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	case []byte:
		buf.Write(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	if buf.Len() > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func orderBody(productID string, qty int) string {
	return fmt.Sprintf(`{
		"items": [{"product_id": %q, "quantity": %d, "customization_text": "Ana 30"}],
		"shipping": {"shipping_name": "Ana", "shipping_address": "Moi Avenue 4", "shipping_city": "Nairobi"}
	}`, productID, qty)
}

func (a *api) placeOrder(userID, productID string, qty int) order.Order {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/orders", orderBody(productID, qty), asCustomer(userID))
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[order.Order](a.t, w)
}

//
// ---------- ORDERS ----------
//

func TestCreateOrder_HappyPath(t *testing.T) {
	a := newAPI(t, nil)

	o := a.placeOrder("u-1", "mug", 2)

	assert.Equal(t, "u-1", o.UserID)
	assert.Equal(t, fulfillment.StatusPending, o.Status)
	assert.Equal(t, fulfillment.PaymentPending, o.PaymentStatus)
	assert.True(t, o.TotalPrice.Equal(decimal.RequireFromString("25.00")), o.TotalPrice.String())
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Photo mug", o.Items[0].ProductName)
	assert.Equal(t, 3, dbtest.Stock(t, a.db, "mug"))
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	a := newAPI(t, nil)

	w := a.do(http.MethodPost, "/api/v1/orders", orderBody("poster", 2), asCustomer("u-1"))

	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, 1, dbtest.Stock(t, a.db, "poster"))
	assert.Zero(t, dbtest.Count(t, a.db, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, "u-1"))
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	a := newAPI(t, nil)
	w := a.do(http.MethodPost, "/api/v1/orders", orderBody("nope", 1), asCustomer("u-1"))
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestCreateOrder_RejectsBadBodies(t *testing.T) {
	a := newAPI(t, nil)

	cases := map[string]string{
		"unknown field": strings.Replace(orderBody("mug", 1), `"items"`, `"coupon": "FREE", "items"`, 1),
		"not json":      `{"items":`,
		"no shipping":   `{"items":[{"product_id":"mug","quantity":1}]}`,
		"zero quantity": orderBody("mug", 0),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := a.do(http.MethodPost, "/api/v1/orders", body, asCustomer("u-1"))
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
	assert.Equal(t, 5, dbtest.Stock(t, a.db, "mug"))
}

// The strict decoder is switched on at package init, before any router exists.
func TestStrictDecoderSetOnce(t *testing.T) {
	assert.True(t, binding.EnableDecoderDisallowUnknownFields)

	a := newAPI(t, nil)
	_ = newAPI(t, nil)
	assert.True(t, binding.EnableDecoderDisallowUnknownFields)

	body := strings.Replace(orderBody("mug", 1), `"items"`, `"coupon": "FREE", "items"`, 1)
	w := a.do(http.MethodPost, "/api/v1/orders", body, asCustomer("u-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "coupon")
}

func TestCreateOrder_CustomerCannotOverrideStatusOrOwner(t *testing.T) {
	a := newAPI(t, nil)

	forced := strings.Replace(orderBody("mug", 1), `"items"`, `"status": "shipped", "items"`, 1)
	w := a.do(http.MethodPost, "/api/v1/orders", forced, asCustomer("u-1"))
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	other := strings.Replace(orderBody("mug", 1), `"items"`, `"user_id": "u-2", "items"`, 1)
	w = a.do(http.MethodPost, "/api/v1/orders", other, asCustomer("u-1"))
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	// Staff may place an order on behalf of a customer.
	w = a.do(http.MethodPost, "/api/v1/orders", other, asAdmin())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "u-2", decode[order.Order](t, w).UserID)
}

func TestRoutes_RequireCredentials(t *testing.T) {
	a := newAPI(t, nil)

	w := a.do(http.MethodGet, "/api/v1/orders/anything", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/v1/orders/anything", nil, map[string]string{httpx.HeaderAPIKey: "guess"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetOrder_OwnerAdminAndStranger(t *testing.T) {
	a := newAPI(t, nil)
	o := a.placeOrder("u-1", "mug", 1)

	w := a.do(http.MethodGet, "/api/v1/orders/"+o.ID, nil, asCustomer("u-1"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/v1/orders/"+o.ID, nil, asAdmin())
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/v1/orders/"+o.ID, nil, asCustomer("u-2"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodGet, "/api/v1/orders/missing", nil, asAdmin())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrderItems_OK(t *testing.T) {
	a := newAPI(t, nil)
	o := a.placeOrder("u-1", "mug", 2)

	w := a.do(http.MethodGet, "/api/v1/orders/"+o.ID+"/items", nil, asCustomer("u-1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	items := decode[[]order.Item](t, w)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "Ana 30", items[0].CustomizationText)
}

func TestListOrdersByUser(t *testing.T) {
	a := newAPI(t, nil)
	a.placeOrder("u-1", "mug", 1)
	a.placeOrder("u-1", "mug", 1)
	a.placeOrder("u-2", "mug", 1)

	w := a.do(http.MethodGet, "/api/v1/orders/user/u-1?limit=10&offset=0", nil, asCustomer("u-1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[order.ListResponse](t, w)
	assert.Equal(t, "u-1", got.UserID)
	assert.Len(t, got.Items, 2)

	w = a.do(http.MethodGet, "/api/v1/orders/user/u-1", nil, asCustomer("u-2"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCancelOrder_RestocksOnce(t *testing.T) {
	a := newAPI(t, nil)
	o := a.placeOrder("u-1", "mug", 2)
	require.Equal(t, 3, dbtest.Stock(t, a.db, "mug"))

	w := a.do(http.MethodPut, "/api/v1/orders/"+o.ID+"/status", `{"status":"canceled"}`, asCustomer("u-1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, fulfillment.StatusCanceled, decode[order.Order](t, w).Status)
	assert.Equal(t, 5, dbtest.Stock(t, a.db, "mug"))

	w = a.do(http.MethodPost, "/api/v1/orders/"+o.ID+"/cancel", nil, asCustomer("u-1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 5, dbtest.Stock(t, a.db, "mug"))
}

func TestUpdateStatus_GateErrors(t *testing.T) {
	a := newAPI(t, nil)
	o := a.placeOrder("u-1", "mug", 1)
	path := "/api/v1/orders/" + o.ID + "/status"

	w := a.do(http.MethodPut, path, `{"status":"processing"}`, asCustomer("u-1"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodPut, path, `{"status":"delivered"}`, asAdmin())
	assert.Equal(t, http.StatusPaymentRequired, w.Code, w.Body.String())

	w = a.do(http.MethodPut, path, `{"status":"shipped"}`, asAdmin())
	assert.Equal(t, http.StatusPaymentRequired, w.Code, w.Body.String())

	w = a.do(http.MethodPut, path, `{"status":"lost"}`, asAdmin())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPut, path, `{}`, asAdmin())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrder_PaymentFieldsAreStaffOnly(t *testing.T) {
	a := newAPI(t, nil)
	o := a.placeOrder("u-1", "mug", 1)
	path := "/api/v1/orders/" + o.ID

	w := a.do(http.MethodPatch, path, `{"notes":"gift wrap","shipping_city":"Mombasa"}`, asCustomer("u-1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[order.Order](t, w)
	assert.Equal(t, "gift wrap", got.Notes)
	assert.Equal(t, "Mombasa", got.City)

	w = a.do(http.MethodPatch, path, `{"payment_status":"completed"}`, asCustomer("u-1"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteOrder_AdminOnly(t *testing.T) {
	a := newAPI(t, nil)
	o := a.placeOrder("u-1", "mug", 1)

	w := a.do(http.MethodDelete, "/api/v1/orders/"+o.ID, nil, asCustomer("u-1"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodDelete, "/api/v1/orders/"+o.ID, nil, asAdmin())
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(http.MethodDelete, "/api/v1/orders/"+o.ID, nil, asAdmin())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

//
// ---------- PAYMENTS ----------
//

func (a *api) initiate(o order.Order, body string) payment.Instructions {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/orders/"+o.ID+"/payments", body, asCustomer(o.UserID))
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[payment.Instructions](a.t, w)
}

func TestPaymentFlow_CompleteDeliverAndInvoice(t *testing.T) {
	a := newAPI(t, nil)
	o := a.placeOrder("u-1", "mug", 2)

	w := a.do(http.MethodGet, "/api/v1/orders/"+o.ID+"/invoice", nil, asCustomer("u-1"))
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	ins := a.initiate(o, `{"method":"mpesa","amount":"25.00","details":{"phone":"254712345678"}}`)
	assert.True(t, strings.HasPrefix(ins.Token, "MPESA-"), ins.Token)
	assert.NotEmpty(t, ins.CheckoutRequestID)

	// Customers cannot settle their own payment.
	w = a.do(http.MethodPost, "/api/v1/payments/"+ins.Token+"/complete", `{"succeeded":true}`, asCustomer("u-1"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodPost, "/api/v1/payments/"+ins.Token+"/complete", `{"succeeded":true}`, asAdmin())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[payment.Result](t, w)
	assert.True(t, res.Changed)
	assert.Equal(t, fulfillment.PaymentCompleted, res.PaymentStatus)
	assert.Equal(t, fulfillment.StatusProcessing, res.OrderStatus)

	for _, st := range []string{"shipped", "delivered"} {
		w = a.do(http.MethodPut, "/api/v1/orders/"+o.ID+"/status", `{"status":"`+st+`"}`, asAdmin())
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = a.do(http.MethodGet, "/api/v1/orders/"+o.ID+"/invoice", nil, asCustomer("u-1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Photo mug")

	w = a.do(http.MethodGet, "/api/v1/orders/"+o.ID+"/payments", nil, asCustomer("u-1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	events := decode[[]payment.Event](t, w)
	require.Len(t, events, 2)
	assert.Equal(t, payment.EventInitiated, events[0].Kind)
	assert.Equal(t, payment.EventCompleted, events[1].Kind)
}

func TestInitiatePayment_Rejections(t *testing.T) {
	a := newAPI(t, nil)
	o := a.placeOrder("u-1", "mug", 1)
	path := "/api/v1/orders/" + o.ID + "/payments"

	w := a.do(http.MethodPost, path, `{"method":"mpesa","amount":"12.50"}`, asCustomer("u-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code, "mpesa without phone")

	w = a.do(http.MethodPost, path, `{"method":"card","amount":"1.00"}`, asCustomer("u-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code, "amount differs from total")

	w = a.do(http.MethodPost, path, `{"method":"card","amount":"12.50"}`, asCustomer("u-2"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	_ = a.do(http.MethodPost, "/api/v1/orders/"+o.ID+"/cancel", nil, asCustomer("u-1"))
	w = a.do(http.MethodPost, path, `{"method":"card","amount":"12.50"}`, asCustomer("u-1"))
	assert.Equal(t, http.StatusConflict, w.Code, "canceled order")
}

func TestCashOnDelivery_MovesToProcessing(t *testing.T) {
	a := newAPI(t, nil)
	o := a.placeOrder("u-1", "mug", 1)

	ins := a.initiate(o, `{"method":"cash_on_delivery","amount":"12.50"}`)
	assert.Equal(t, fulfillment.PaymentPending, ins.PaymentStatus)
	assert.Equal(t, fulfillment.StatusProcessing, ins.OrderStatus)

	// Shipping is allowed, delivery still waits for the cash.
	w := a.do(http.MethodPut, "/api/v1/orders/"+o.ID+"/status", `{"status":"shipped"}`, asAdmin())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = a.do(http.MethodPut, "/api/v1/orders/"+o.ID+"/status", `{"status":"delivered"}`, asAdmin())
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestCompletePayment_UnknownToken(t *testing.T) {
	a := newAPI(t, nil)
	w := a.do(http.MethodPost, "/api/v1/payments/CARD-NOPE/complete", `{"succeeded":true}`, asAdmin())
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPost, "/api/v1/payments/CARD-NOPE/complete", `{}`, asAdmin())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentCallback(t *testing.T) {
	a := newAPI(t, nil)
	o := a.placeOrder("u-1", "mug", 1)
	ins := a.initiate(o, `{"method":"card","amount":"12.50"}`)

	body := []byte(`{"token":"` + ins.Token + `","succeeded":false}`)

	w := a.do(http.MethodPost, "/api/v1/payments/callback", body, map[string]string{payment.SignatureHeader: payment.Sign([]byte("wrong"), body)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// No caller headers: the signature is the credential.
	w = a.do(http.MethodPost, "/api/v1/payments/callback", body, map[string]string{payment.SignatureHeader: payment.Sign([]byte(webhookSecret), body)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[payment.Result](t, w)
	assert.False(t, res.Succeeded)
	assert.Equal(t, fulfillment.PaymentFailed, res.PaymentStatus)
	assert.Equal(t, fulfillment.StatusPending, res.OrderStatus)
}

func TestSimulatePayment(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		a := newAPI(t, map[string]string{settings.KeyPaymentSimulation: "false"})
		o := a.placeOrder("u-1", "mug", 1)
		ins := a.initiate(o, `{"method":"card","amount":"12.50"}`)

		w := a.do(http.MethodPost, "/api/v1/payments/"+ins.Token+"/simulate", nil, asCustomer("u-1"))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("always succeeds", func(t *testing.T) {
		a := newAPI(t, map[string]string{
			settings.KeyPaymentSimulation:  "true",
			settings.KeyPaymentSuccessRate: "100",
		})
		o := a.placeOrder("u-1", "mug", 1)
		ins := a.initiate(o, `{"method":"card","amount":"12.50"}`)

		w := a.do(http.MethodPost, "/api/v1/payments/"+ins.Token+"/simulate", nil, asCustomer("u-1"))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, decode[payment.Result](t, w).Succeeded)
	})
}

//
// ---------- HEALTH ----------
//

func TestHealthz(t *testing.T) {
	a := newAPI(t, nil)
	w := a.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", healthHandler(func(context.Context) error { return errors.New("db down") }))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
