package main

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
	"github.com/MikeMC777/printshop-orders/internal/fulfillment"
	"github.com/MikeMC777/printshop-orders/internal/httpx"
	"github.com/MikeMC777/printshop-orders/internal/invoice"
	"github.com/MikeMC777/printshop-orders/internal/order"
	"github.com/MikeMC777/printshop-orders/internal/payment"
)

// maxCallbackBody bounds gateway callback payloads.
const maxCallbackBody = 64 << 10

// loadOwned fetches an order the caller is allowed to see.
func loadOwned(c *gin.Context, svc *order.Service) (*order.Order, error) {
	o, err := svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if !httpx.Actor(c).CanAccess(o.UserID) {
		return nil, apperr.ErrForbidden
	}
	return o, nil
}

// @Summary     Create order
// @Description Reserves stock for every item and creates the order in one step
// @Tags        orders
// @Accept      json
// @Produce     json
// @Param       X-User-ID header string                   true "caller"
// @Param       body      body   order.CreateOrderRequest true "order"
// @Success     201 {object} order.Order
// @Failure     400 {object} httpx.ErrorBody
// @Failure     404 {object} httpx.ErrorBody
// @Failure     409 {object} httpx.ErrorBody
// @Router      /orders [post]
func createOrderHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid body: "+err.Error())
			return
		}

		actor := httpx.Actor(c)
		if req.UserID == "" {
			req.UserID = actor.ID
		}
		if !actor.CanAccess(req.UserID) {
			httpx.WriteError(c, log, apperr.ErrForbidden)
			return
		}
		if !actor.IsAdmin() && (req.Status != "" || req.PaymentStatus != "" || req.TotalPrice != nil) {
			httpx.WriteError(c, log, apperr.ErrForbidden)
			return
		}

		o, err := svc.Create(c.Request.Context(), req.Header(), req.Lines())
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

// @Summary Get order
// @Tags    orders
// @Produce json
// @Param   id path string true "order id"
// @Success 200 {object} order.Order
// @Failure 404 {object} httpx.ErrorBody
// @Router  /orders/{id} [get]
func getOrderHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := loadOwned(c, svc)
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary Order items
// @Tags    orders
// @Produce json
// @Param   id path string true "order id"
// @Success 200 {array} order.Item
// @Router  /orders/{id}/items [get]
func getOrderItemsHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := loadOwned(c, svc)
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, o.Items)
	}
}

// @Summary List a user's orders
// @Tags    orders
// @Produce json
// @Param   user_id path  string true  "user id"
// @Param   limit   query int    false "page size"
// @Param   offset  query int    false "offset"
// @Success 200 {object} order.ListResponse
// @Router  /orders/user/{user_id} [get]
func listOrdersByUserHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		if !httpx.Actor(c).CanAccess(userID) {
			httpx.WriteError(c, log, apperr.ErrForbidden)
			return
		}
		limit, offset := httpx.Page(c)
		items, err := svc.ListByUser(c.Request.Context(), userID, limit, offset)
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, order.ListResponse{UserID: userID, Limit: limit, Offset: offset, Items: items})
	}
}

// @Summary     Change order status
// @Description Every change goes through the fulfillment gate; canceled puts stock back
// @Tags        orders
// @Accept      json
// @Produce     json
// @Param       id   path string                    true "order id"
// @Param       body body order.UpdateStatusRequest true "target status"
// @Success     200 {object} order.Order
// @Failure     402 {object} httpx.ErrorBody
// @Failure     409 {object} httpx.ErrorBody
// @Router      /orders/{id}/status [put]
func updateOrderStatusHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid body: "+err.Error())
			return
		}
		o, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), fulfillment.Status(strings.TrimSpace(req.Status)), httpx.Actor(c))
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary Cancel order
// @Tags    orders
// @Produce json
// @Param   id path string true "order id"
// @Success 200 {object} order.Order
// @Failure 409 {object} httpx.ErrorBody
// @Router  /orders/{id}/cancel [post]
func cancelOrderHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Cancel(c.Request.Context(), c.Param("id"), httpx.Actor(c))
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary     Update order
// @Description Partial update of shipping details and notes; payment fields are staff only
// @Tags        orders
// @Accept      json
// @Produce     json
// @Param       id   path string                   true "order id"
// @Param       body body order.UpdateOrderRequest true "fields to change"
// @Success     200 {object} order.Order
// @Router      /orders/{id} [patch]
func updateOrderHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.UpdateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid body: "+err.Error())
			return
		}
		actor := httpx.Actor(c)
		if req.TouchesPayment() && !actor.IsAdmin() {
			httpx.WriteError(c, log, apperr.ErrForbidden)
			return
		}
		if _, err := loadOwned(c, svc); err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		o, err := svc.Update(c.Request.Context(), c.Param("id"), req.Patch())
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary Delete order
// @Tags    orders
// @Param   id path string true "order id"
// @Success 204
// @Router  /orders/{id} [delete]
func deleteOrderHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !httpx.Actor(c).IsAdmin() {
			httpx.WriteError(c, log, apperr.ErrForbidden)
			return
		}
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary Start a payment
// @Tags    payments
// @Accept  json
// @Produce json
// @Param   id   path string             true "order id"
// @Param   body body payment.Initiation true "method, amount and details"
// @Success 201 {object} payment.Instructions
// @Failure 400 {object} httpx.ErrorBody
// @Failure 409 {object} httpx.ErrorBody
// @Router  /orders/{id}/payments [post]
func initiatePaymentHandler(orders *order.Service, payments *payment.Tracker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.Initiation
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid body: "+err.Error())
			return
		}
		if _, err := loadOwned(c, orders); err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		ins, err := payments.Initiate(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, ins)
	}
}

type completePaymentRequest struct {
	Succeeded *bool `json:"succeeded" binding:"required"`
}

// @Summary     Settle a payment
// @Description Staff confirm the outcome of the attempt identified by token
// @Tags        payments
// @Accept      json
// @Produce     json
// @Param       token path string                 true "payment token"
// @Param       body  body completePaymentRequest true "outcome"
// @Success     200 {object} payment.Result
// @Failure     404 {object} httpx.ErrorBody
// @Router      /payments/{token}/complete [post]
func completePaymentHandler(payments *payment.Tracker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !httpx.Actor(c).IsAdmin() {
			httpx.WriteError(c, log, apperr.ErrForbidden)
			return
		}
		var req completePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid body: "+err.Error())
			return
		}
		res, err := payments.Complete(c.Request.Context(), c.Param("token"), *req.Succeeded)
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary Simulate a gateway outcome
// @Tags    payments
// @Produce json
// @Param   token path string true "payment token"
// @Success 200 {object} payment.Result
// @Failure 403 {object} httpx.ErrorBody
// @Router  /payments/{token}/simulate [post]
func simulatePaymentHandler(payments *payment.Tracker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := payments.Simulate(c.Request.Context(), c.Param("token"))
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary     Gateway callback
// @Description Body must be signed with HMAC-SHA256 in the X-Signature header
// @Tags        payments
// @Accept      json
// @Produce     json
// @Param       X-Signature header string           true "hex HMAC-SHA256 of the body"
// @Param       body        body   payment.Callback true "outcome"
// @Success     200 {object} payment.Result
// @Failure     403 {object} httpx.ErrorBody
// @Router      /payments/callback [post]
func paymentCallbackHandler(payments *payment.Tracker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
		if err != nil {
			httpx.BadRequest(c, "unreadable body")
			return
		}
		res, err := payments.HandleCallback(c.Request.Context(), body, c.GetHeader(payment.SignatureHeader))
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		log.Info("payment callback", zap.String("rid", httpx.RID(c)), zap.String("order_id", res.OrderID), zap.Bool("changed", res.Changed))
		c.JSON(http.StatusOK, res)
	}
}

// @Summary Payment attempts of an order
// @Tags    payments
// @Produce json
// @Param   id path string true "order id"
// @Success 200 {array} payment.Event
// @Router  /orders/{id}/payments [get]
func paymentHistoryHandler(orders *order.Service, payments *payment.Tracker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := loadOwned(c, orders)
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		events, err := payments.History(c.Request.Context(), o.ID)
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, events)
	}
}

// @Summary Invoice of a paid order
// @Tags    orders
// @Produce plain
// @Param   id path string true "order id"
// @Success 200 {string} string
// @Failure 402 {object} httpx.ErrorBody
// @Router  /orders/{id}/invoice [get]
func invoiceHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := loadOwned(c, svc)
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		doc, err := invoice.Render(o)
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.Data(http.StatusOK, invoice.ContentType, doc)
	}
}

func healthHandler(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "db": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
