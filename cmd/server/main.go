package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/CadeStocker/producepricer/internal/config"
	"github.com/CadeStocker/producepricer/internal/db"
	"github.com/CadeStocker/producepricer/internal/logger"
	"github.com/CadeStocker/producepricer/internal/migrations"
	"github.com/CadeStocker/producepricer/internal/pricing"
	"github.com/CadeStocker/producepricer/internal/scheduler"
	"github.com/CadeStocker/producepricer/internal/seed"
	"github.com/CadeStocker/producepricer/internal/service"
	"github.com/CadeStocker/producepricer/internal/store"
)

type server struct {
	svc    *service.Service
	keys   keyDirectory
	logger *zap.Logger
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	baseLogger := logger.Must(logger.New(cfg.IsDev()))
	defer func() { _ = baseLogger.Sync() }()

	loc, err := cfg.Schedule.Location()
	if err != nil {
		baseLogger.Fatal("failed to load timezone", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.Database.Path)
	if err != nil {
		baseLogger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	applied, err := migrations.Up(ctx, database)
	if err != nil {
		baseLogger.Fatal("failed to run database migrations", zap.Error(err))
	}
	baseLogger.Info("migrations applied", zap.Int("count", applied))

	st := store.New(database)
	seeded, err := seed.Run(ctx, st, seed.Config{
		Tenant:          pricing.TenantID(cfg.Bootstrap.Tenant),
		APIKey:          cfg.Bootstrap.APIKey,
		DesignationRate: cfg.Pricing.DesignationDefaultRate,
		EffectiveDate:   time.Now().In(loc),
	})
	if err != nil {
		baseLogger.Fatal("failed to seed bootstrap tenant", zap.Error(err))
	}
	if seeded.Inserts > 0 {
		baseLogger.Info("bootstrap tenant seeded",
			zap.String("tenant", cfg.Bootstrap.Tenant),
			zap.Int("inserts", seeded.Inserts))
	}

	svc := service.New(st, service.Options{
		DesignationDefault: decimal.NewNullDecimal(cfg.Pricing.DesignationDefaultRate),
		MarketLookbackDays: cfg.Pricing.MarketLookbackDays,
		MarkupTiers:        cfg.Pricing.MarkupTiers,
		Location:           loc,
	}, logger.Named(baseLogger, "svc"))

	if cfg.Schedule.RecomputeCron != "" {
		sched, err := scheduler.New(cfg.Schedule.RecomputeCron, cfg.Schedule.Timezone, svc, logger.Named(baseLogger, "scheduler"))
		if err != nil {
			baseLogger.Fatal("failed to init scheduler", zap.Error(err))
		}
		sched.Start()
		defer sched.Stop()
	} else {
		baseLogger.Warn("recompute sweep disabled")
	}

	srv := &server{svc: svc, keys: st, logger: logger.Named(baseLogger, "http")}
	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/raw-materials", s.handleListRawMaterials)
		r.Put("/raw-materials/{id}", s.handleSaveRawMaterial)
		r.Put("/packaging/{id}", s.handleSavePackaging)

		r.Post("/costs", s.handleRecordCost)
		r.Get("/costs/{subjectType}/{subjectID}", s.handleCostHistory)

		r.Get("/items", s.handleListItems)
		r.Route("/items/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetItem)
			r.Put("/", s.handleSaveItem)
			r.Post("/recompute", s.handleRecompute)
			r.Get("/snapshots", s.handleSnapshotHistory)
			r.Get("/snapshots/latest", s.handleLatestSnapshot)
			r.Get("/quote", s.handleQuoteItem)
		})
		r.Post("/quotes", s.handleQuote)

		r.Get("/price-sheet", s.handlePriceSheet)
		r.Get("/raw-price-sheet", s.handleRawPriceSheet)

		r.Get("/receipts", s.handleReceivingLog)
		r.Post("/receipts", s.handleRecordReceipt)
		r.Get("/receipts/{id}/comparison", s.handleCompareReceipt)

		r.Get("/api-keys", s.handleListAPIKeys)
		r.Post("/api-keys", s.handleCreateAPIKey)
		r.Post("/api-keys/{id}/revoke", s.handleRevokeAPIKey)
		r.Post("/api-keys/{id}/activate", s.handleActivateAPIKey)
		r.Delete("/api-keys/{id}", s.handleDeleteAPIKey)
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}
