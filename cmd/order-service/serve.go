package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MikeMC777/printshop-orders/internal/config"
	"github.com/MikeMC777/printshop-orders/internal/database"
	"github.com/MikeMC777/printshop-orders/internal/httpx"
	"github.com/MikeMC777/printshop-orders/internal/inventory"
	"github.com/MikeMC777/printshop-orders/internal/logging"
	"github.com/MikeMC777/printshop-orders/internal/notify"
	"github.com/MikeMC777/printshop-orders/internal/order"
	"github.com/MikeMC777/printshop-orders/internal/payment"
	"github.com/MikeMC777/printshop-orders/internal/settings"
)

const serviceName = "order-service"

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the gRPC health endpoint",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Apply the schema before serving")
}

// bootstrap loads configuration and opens the logger and the database shared by every
// subcommand.
func bootstrap(ctx context.Context) (*config.Config, *zap.Logger, *sqlx.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg.Log(log)

	db, err := database.Open(ctx, cfg.DBDriver, cfg.PostgresDSN, cfg.DBMaxOpenConns)
	if err != nil {
		_ = log.Sync()
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	defer db.Close()

	if migrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("schema applied")
	}

	var sender notify.Sender = notify.NewLogSender(log)
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		ks := notify.NewKafkaSender(strings.Join(brokers, ","), cfg.KafkaTopic, log)
		defer ks.Close()
		sender = ks
	}

	orders := order.NewService(order.Deps{
		DB:       db,
		Ledger:   inventory.NewLedger(db),
		Notifier: sender,
		Log:      log,
		Timeout:  cfg.DBQueryTimeout,
	})
	payments := payment.NewTracker(payment.Deps{
		DB:       db,
		Orders:   orders,
		Settings: settings.NewCache(settings.NewSQLLoader(db), cfg.SettingsTTL),
		Notifier: sender,
		Log:      log,
		Config: payment.Config{
			SimulationEnabled: cfg.PaymentSimulation,
			SuccessRate:       cfg.PaymentSuccessRate,
			WebhookSecret:     cfg.PaymentWebhookSecret,
			Timeout:           cfg.DBQueryTimeout,
		},
	})

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(routerDeps{
		Orders:   orders,
		Payments: payments,
		Auth:     httpx.NewAuthenticator(cfg.AdminAPIKeyHash),
		Ping:     db.PingContext,
		Log:      log,
	})
	httpServer := &http.Server{
		Addr:              cfg.OrderSvcAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}

	errc := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("order-service listening", zap.String("addr", cfg.OrderSvcAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http server: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("grpc health listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			errc <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down servers...")
	case err = <-errc:
		log.Error("server failed", zap.Error(err))
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()

	wg.Wait()
	log.Info("all servers stopped")
	return err
}
