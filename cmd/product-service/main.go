package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/printshop-orders/internal/config"
	"github.com/MikeMC777/printshop-orders/internal/database"
	"github.com/MikeMC777/printshop-orders/internal/httpx"
	"github.com/MikeMC777/printshop-orders/internal/logging"
	"github.com/MikeMC777/printshop-orders/internal/product"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	cfg.Log(logger)

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DBDriver, cfg.PostgresDSN, cfg.DBMaxOpenConns)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.ProductSvcAddr,
		Handler:           newRouter(product.NewSQLRepo(db), httpx.NewAuthenticator(cfg.AdminAPIKeyHash), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("product-service listening", zap.String("addr", cfg.ProductSvcAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}
