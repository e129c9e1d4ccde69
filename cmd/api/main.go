package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"freightquote/internal/analytics"
	"freightquote/internal/config"
	"freightquote/internal/db"
	"freightquote/internal/lead"
	"freightquote/internal/logger"
	"freightquote/internal/quote"
	"freightquote/internal/rate"
	"freightquote/internal/server"
)

func main() {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var leads lead.Store = lead.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.NewPool(dialCtx, cfg.DatabaseURL)
		if err != nil {
			cancel()
			log.Fatal("failed to connect db", zap.Error(err))
		}
		store := lead.NewPGStore(pool)
		err = store.EnsureSchema(dialCtx)
		cancel()
		if err != nil {
			log.Fatal("failed to create lead schema", zap.Error(err))
		}
		defer pool.Close()
		leads = store
	} else {
		log.Warn("DATABASE_URL not set, leads are kept in memory")
	}

	sinks := []analytics.Sink{analytics.NewLogSink(log)}
	if cfg.Redis.Addr != "" {
		rs, err := analytics.NewRedisSink(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rs.Close()
		sinks = append(sinks, rs)
	}

	est := rate.NewByName(cfg.RateProvider)
	handler := server.New(server.Options{
		Quotes:      quote.NewService(est, quote.WithLatency(cfg.Quote.LatencyMin, cfg.Quote.LatencyMax)),
		Tracker:     analytics.NewTracker(log, sinks...),
		Leads:       leads,
		Logger:      log,
		EventSecret: cfg.Events.SigningSecret,
		EventRate:   cfg.Events.RatePerSec,
		EventBurst:  cfg.Events.Burst,
		LeadRate:    cfg.Leads.RatePerSec,
		LeadBurst:   cfg.Leads.Burst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening",
			zap.String("addr", srv.Addr),
			zap.String("rate_provider", cfg.RateProvider),
			zap.Bool("postgres", cfg.DatabaseURL != ""),
			zap.Bool("redis", cfg.Redis.Addr != ""))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
