// cmd/lead-capture/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lead-capture/internal/common/config"
	"lead-capture/internal/common/database"
	apphttp "lead-capture/internal/common/http"
	"lead-capture/internal/common/logger"
	"lead-capture/internal/common/observability"
	"lead-capture/internal/form/address"
	"lead-capture/internal/form/gateway"
	"lead-capture/internal/form/surface"
	"lead-capture/internal/form/validator"
	"lead-capture/internal/models"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format).With(
		zap.String("service", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting lead capture service...", zap.String("version", cfg.App.Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.App, cfg.Tracing)
	if err != nil {
		zapLog.Warn("tracing disabled", zap.Error(err))
	}
	obs := observability.New(cfg.App.Name, log)

	// --- Init Redis with retry ---
	rdb := database.NewRedis(cfg.Redis)
	err = retryWithBackoff(func() error {
		return rdb.Ping(ctx)
	}, 10, time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	profile, err := models.ParseProfile(cfg.API.Profile)
	if err != nil {
		zapLog.Fatal("invalid form profile", zap.Error(err))
	}
	rules, err := validator.New(profile)
	if err != nil {
		zapLog.Fatal("schema compile failed", zap.Error(err))
	}

	gw := newGateway(cfg, profile, log)

	registry := surface.NewRegistry(surface.NewFactory(surface.FactoryDeps{
		Redis: rdb.GetClient(),
		Draft: cfg.Draft,
		Address: address.Options{
			Debounce:       config.GetDuration(cfg.Address.Debounce),
			MinQueryLength: cfg.Address.MinQueryLength,
		},
		Gateway:   gw,
		Validator: rules,
		Prefill:   cfg.API.Prefill,
		Logger:    log,
	}), config.GetDuration(cfg.Draft.TTL), log)

	handler := surface.NewHandler(surface.Config{
		Registry:        registry,
		Validator:       rules,
		Observability:   obs,
		Logger:          log,
		SessionTTL:      config.GetDuration(cfg.Draft.TTL),
		SecureCookies:   cfg.Server.SecureCookies,
		Production:      cfg.App.IsProduction(),
		SubmitRateLimit: cfg.Server.SubmitRateLimit,
	})

	router := chi.NewRouter()
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	router.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := rdb.Ping(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Mount("/", handler.Routes())

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address),
			zap.String("profile", string(profile)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return registry.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, draining...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("HTTP server shutdown failed", zap.Error(err))
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			zapLog.Error("Tracer shutdown failed", zap.Error(err))
		}
		if err := obs.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("Meter shutdown failed", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("lead capture service stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("Lead capture service stopped gracefully")
}

// newGateway picks the backend by configured mode. Both variants are wrapped
// so nothing reaches the store as a panic or an unnormalized error.
func newGateway(cfg *config.Config, profile models.Profile, log logger.Logger) gateway.Gateway {
	opts := gateway.Options{
		Profile:        profile,
		MinQueryLength: cfg.Address.MinQueryLength,
		MaxSuggestions: cfg.Address.MaxSuggestions,
	}

	mode := cfg.ResolveGatewayMode()
	log.Info("remote gateway selected", map[string]interface{}{"mode": mode})

	if mode == config.GatewayModeSimulated {
		return gateway.Guard(gateway.NewSimulator(cfg.Gateway.Simulator, opts, log), log)
	}
	client := apphttp.NewClient(cfg.API.BaseURL, config.GetDuration(cfg.API.Timeout))
	return gateway.Guard(gateway.NewHTTP(client, opts, log), log)
}

func writeStatus(w http.ResponseWriter, status int, state string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": state,
		"time":   time.Now().Format(time.RFC3339),
	})
}
