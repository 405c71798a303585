package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/pesio-ai/be-ap-procurement/internal/client"
	"github.com/pesio-ai/be-ap-procurement/internal/config"
	"github.com/pesio-ai/be-ap-procurement/internal/database"
	"github.com/pesio-ai/be-ap-procurement/internal/handler"
	"github.com/pesio-ai/be-ap-procurement/internal/logger"
	"github.com/pesio-ai/be-ap-procurement/internal/middleware"
	"github.com/pesio-ai/be-ap-procurement/internal/repository"
	"github.com/pesio-ai/be-ap-procurement/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:       cfg.Service.LogLevel,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("environment", cfg.Service.Environment).
		Int("port", cfg.Server.Port).
		Msg("Starting AP procurement service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Database,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnTime: cfg.Database.MaxConnTime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
		HealthCheck: cfg.Database.HealthCheck,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	log.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.Database).Msg("Database connected")

	var natsConn *nats.Conn
	if cfg.NATS.Enabled {
		natsConn, err = nats.Connect(cfg.NATS.URL,
			nats.Name(cfg.Service.Name),
			nats.MaxReconnects(-1),
		)
		if err != nil {
			// Notifications are best-effort; run without them rather than fail startup.
			log.Warn().Err(err).Str("url", cfg.NATS.URL).Msg("NATS unavailable, notifications disabled")
			natsConn = nil
		} else {
			defer natsConn.Close()
			log.Info().Str("url", cfg.NATS.URL).Msg("NATS connected")
		}
	}
	publisher := client.NewNotificationPublisher(natsConn, log.Logger)

	invoiceRepo := repository.NewInvoiceRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)
	goodsRepo := repository.NewGoodsReceivedRepository(db)
	safeLimitRepo := repository.NewSafeLimitRepository(db)
	historyRepo := repository.NewApprovalHistoryRepository(db)

	invoiceSvc := service.NewInvoiceService(invoiceRepo, log)
	poSvc := service.NewPurchaseOrderService(poRepo, log)
	goodsSvc := service.NewGoodsReceivedService(goodsRepo, poRepo, publisher, log)
	safeLimitSvc := service.NewSafeLimitService(safeLimitRepo, publisher, log)

	// The orchestrator and draft generator reach the entity stores only
	// through their HTTP APIs, so the deployment can split into separate
	// services without touching them.
	timeout := cfg.Endpoints.CallTimeout
	invoiceClient := client.NewInvoiceClient(cfg.Endpoints.InvoiceAPI, timeout)
	poClient := client.NewPurchaseOrderClient(cfg.Endpoints.PurchaseOrderAPI, timeout)
	goodsClient := client.NewGoodsReceivedClient(cfg.Endpoints.GoodsReceivedAPI, timeout)
	safeLimitClient := client.NewSafeLimitClient(cfg.Endpoints.SafeLimitAPI, timeout)

	approvalSvc := service.NewApprovalService(
		invoiceClient, poClient, goodsClient, safeLimitClient, historyRepo, publisher, log)
	templateSvc := service.NewTemplateService(
		invoiceClient, poClient, cfg.Approvers, publisher, log)

	h := handler.New(
		invoiceSvc, poSvc, goodsSvc, safeLimitSvc, approvalSvc, templateSvc,
		cfg.Service.Name, cfg.Service.Version, log)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	var root http.Handler = mux
	root = middleware.Timeout(cfg.Server.WriteTimeout)(root)
	root = middleware.CORS(nil)(root)
	root = middleware.Recovery(&log.Logger)(root)
	root = middleware.Logger(&log.Logger)(root)
	root = middleware.RequestID(root)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}
