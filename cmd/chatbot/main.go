// cmd/chatbot/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tourchat/internal/common/config"
	"tourchat/internal/common/database"
	"tourchat/internal/common/logger"
	"tourchat/internal/common/observability"
	"tourchat/internal/dialogue"
	"tourchat/internal/notify"
	"tourchat/internal/orchestrator"
	"tourchat/internal/resolver"
	"tourchat/internal/server"
	"tourchat/internal/session"
	"tourchat/internal/tourvisor"
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
			delay *= 2 // Exponential backoff
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

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting tour chatbot...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New("tourchat")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Session store ---
	ttl := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	var store session.Store
	if cfg.Session.Backend == "redis" {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Session.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		store = session.NewRedisStore(redis, ttl)
		zapLog.Info("Redis session store connected")
	} else {
		store = session.NewMemoryStore(ttl)
		zapLog.Info("In-memory session store initialized")
	}
	defer store.Close()

	// --- Inventory API client ---
	tvClient := tourvisor.NewClient(cfg.Tourvisor, log)

	// Warm the dictionaries so the first turn does not pay the cost
	err = retryWithBackoff(func() error {
		if _, err := tvClient.Countries(ctx); err != nil {
			return err
		}
		_, err := tvClient.Departures(ctx)
		return err
	}, 5, 2*time.Second, zapLog, "Dictionary warm-up")
	if err != nil {
		// Dictionaries are cached lazily, a cold start still works
		zapLog.Warn("Dictionary warm-up failed, continuing", zap.Error(err))
	}

	// --- Manager escalation channel ---
	var notifier notify.Notifier = notify.NoOpNotifier{}
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		notifier, err = notify.NewManagerNotifier(ctx, cfg.Notifications, log)
		if err != nil {
			zapLog.Fatal("notifier init failed", zap.Error(err))
		}
		zapLog.Info("Manager escalation channels initialized")
	}

	// --- Dialogue engine ---
	cascade := dialogue.NewCascade(cfg.Dialogue, cfg.Search)
	hotelResolver := resolver.New(tvClient, log)
	engine := orchestrator.NewEngine(
		store, tvClient, cascade, hotelResolver, notifier,
		cfg.Tourvisor, cfg.Search, log,
	)
	engine.SetObservability(obs)

	srv := server.New(engine, tvClient, cfg.Server, log)

	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down server", zap.Error(err))
	}

	zapLog.Info("Chatbot stopped gracefully")
}
