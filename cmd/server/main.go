package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"satpay/internal/audit"
	"satpay/internal/batch"
	batchconfig "satpay/internal/batch/config"
	"satpay/internal/batch/fxrate"
	"satpay/internal/batch/handler"
	"satpay/internal/batch/ledger"
	"satpay/internal/batch/lnurl"
	"satpay/internal/batch/metrics"
	"satpay/internal/batch/ports"
	"satpay/internal/batch/store/outcome"
	"satpay/internal/platform/config"
	"satpay/internal/platform/httpserver"
	"satpay/internal/platform/jwt"
	"satpay/internal/platform/logger"
	"satpay/internal/platform/middleware"
	platformredis "satpay/internal/platform/redis"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal/batch packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	batchCfg := batchconfig.DefaultConfig()
	if len(cfg.HomeDomains) > 0 {
		batchCfg.HomeDomains = cfg.HomeDomains
	}

	if cfg.LedgerEndpoint == "" {
		log.Error("SATPAY_LEDGER_ENDPOINT is required")
		os.Exit(1)
	}
	ledgerClient, err := ledger.New(cfg.LedgerEndpoint, cfg.LedgerAPIKey, batchCfg.HTTPTimeout,
		ledger.WithLogger(log))
	if err != nil {
		log.Error("failed to build ledger client", "error", err)
		os.Exit(1)
	}
	lnurlClient := lnurl.NewClient(batchCfg.HTTPTimeout)

	redisClient, err := platformredis.New(cfg.Redis())
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Outcomes persist to Postgres when configured, memory otherwise.
	var outcomes ports.OutcomeStore
	var pool *pgxpool.Pool
	if cfg.PostgresURL != "" {
		pool, err = pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		pgStore := outcome.NewPostgresStore(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			log.Error("failed to migrate outcome store", "error", err)
			os.Exit(1)
		}
		outcomes = pgStore
		log.Info("outcome store ready", "backend", "postgres")
	} else {
		outcomes = outcome.NewMemoryStore()
		log.Info("outcome store ready", "backend", "memory")
	}

	// Audit events go to Kafka when brokers are configured.
	var sink audit.Sink
	auditMem := audit.NewMemoryStore()
	sink = auditMem
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("audit sink ready", "backend", "kafka", "topic", cfg.AuditTopic)
	}
	publisher := audit.NewPublisher(sink)

	m := metrics.New()

	opts := []batch.Option{
		batch.WithLogger(log),
		batch.WithMetrics(m),
		batch.WithOutcomeStore(outcomes),
		batch.WithAuditPublisher(publisher),
	}
	if cfg.RateURL != "" {
		fxOpts := []fxrate.Option{fxrate.WithLogger(log)}
		if redisClient != nil {
			fxOpts = append(fxOpts, fxrate.WithCache(redisClient.Client, batchCfg.FXCacheTTL))
		}
		resolver, err := fxrate.New(fxrate.NewHTTPSource(cfg.RateURL, batchCfg.HTTPTimeout), fxOpts...)
		if err != nil {
			log.Error("failed to build fx resolver", "error", err)
			os.Exit(1)
		}
		opts = append(opts, batch.WithFXResolver(resolver))
	}

	pipeline, err := batch.NewPipeline(batchCfg, ledgerClient, lnurlClient, opts...)
	if err != nil {
		log.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	validator := jwt.NewValidator(cfg.JWTSigningKey)
	batchHandler := handler.New(pipeline, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	batchHandler.Register(router)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, log))
		batchHandler.RegisterExecute(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting satpay server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
