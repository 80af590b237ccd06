package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/MikeMC777/printshop-orders/docs"
	"github.com/MikeMC777/printshop-orders/internal/httpx"
	"github.com/MikeMC777/printshop-orders/internal/order"
	"github.com/MikeMC777/printshop-orders/internal/payment"
)

// Unknown JSON fields are a client bug; reject them instead of ignoring.
// The gin setting is process-wide, so it is set once here.
func init() {
	binding.EnableDecoderDisallowUnknownFields = true
}

type routerDeps struct {
	Orders   *order.Service
	Payments *payment.Tracker
	Auth     *httpx.Authenticator
	Ping     func(context.Context) error
	Log      *zap.Logger
}

// @title       Print shop orders API
// @version     1.0
// @description Orders, payments and invoices of the print shop.
// @BasePath    /api/v1
func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(d.Log))

	r.GET("/healthz", healthHandler(d.Ping))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// The gateway authenticates with the signature, not with caller headers.
	v1.POST("/payments/callback", paymentCallbackHandler(d.Payments, d.Log))

	api := v1.Group("", d.Auth.Required())
	{
		api.POST("/orders", createOrderHandler(d.Orders, d.Log))
		api.GET("/orders/:id", getOrderHandler(d.Orders, d.Log))
		api.PATCH("/orders/:id", updateOrderHandler(d.Orders, d.Log))
		api.DELETE("/orders/:id", deleteOrderHandler(d.Orders, d.Log))
		api.GET("/orders/:id/items", getOrderItemsHandler(d.Orders, d.Log))
		api.PUT("/orders/:id/status", updateOrderStatusHandler(d.Orders, d.Log))
		api.POST("/orders/:id/cancel", cancelOrderHandler(d.Orders, d.Log))
		api.GET("/orders/:id/invoice", invoiceHandler(d.Orders, d.Log))
		api.GET("/orders/user/:user_id", listOrdersByUserHandler(d.Orders, d.Log))

		api.POST("/orders/:id/payments", initiatePaymentHandler(d.Orders, d.Payments, d.Log))
		api.GET("/orders/:id/payments", paymentHistoryHandler(d.Orders, d.Payments, d.Log))
		api.POST("/payments/:token/complete", completePaymentHandler(d.Payments, d.Log))
		api.POST("/payments/:token/simulate", simulatePaymentHandler(d.Payments, d.Log))
	}
	return r
}
