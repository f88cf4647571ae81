// cmd/admission-engine/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"admission-engine/internal/api"
	"admission-engine/internal/common/config"
	"admission-engine/internal/common/database"
	"admission-engine/internal/common/locking"
	"admission-engine/internal/common/logger"
	"admission-engine/internal/notify"
	"admission-engine/internal/provision"

	allocateseats "admission-engine/internal/operations/admission/allocate-seats"
	rankcourse "admission-engine/internal/operations/admission/rank-course"
	setstatus "admission-engine/internal/operations/admission/set-status"
	submitapplication "admission-engine/internal/operations/application/submit-application"
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

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting admission engine...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rd *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rd, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rd.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rd.Close()
	zapLog.Info("Redis connected successfully")

	db := pg.GetDB()
	redisClient := rd.GetClient()
	locks := locking.New()

	// --- Notifier: SES when email is enabled, console otherwise ---
	var notifier notify.Notifier
	if cfg.Notifications.Email.Enabled {
		sesNotifier, err := notify.NewSESNotifier(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Email.FromEmail, log)
		if err != nil {
			zapLog.Fatal("ses notifier init failed", zap.Error(err))
		}
		notifier = sesNotifier
	} else {
		notifier = notify.NewConsoleNotifier(log)
	}

	provisioner := provision.NewProvisioner(&provision.Config{
		UsernamePrefix: cfg.Provisioning.UsernamePrefix,
		MaxAttempts:    cfg.Provisioning.MaxAttempts,
	}, db, log)

	// --- Operation handlers ---
	submitHandler := submitapplication.NewHandler(&submitapplication.Config{
		MinSubjects: cfg.Admission.MinSubjects,
		Timeout:     30 * time.Second,
	}, db, notifier, log)

	rankHandler := rankcourse.NewHandler(&rankcourse.Config{
		CacheTTL: cfg.Admission.RankingCacheTTL,
		Timeout:  30 * time.Second,
	}, db, redisClient, locks, log)

	allocateHandler := allocateseats.NewHandler(&allocateseats.Config{
		Timeout: 60 * time.Second,
	}, db, redisClient, locks, log)

	setStatusHandler := setstatus.NewHandler(&setstatus.Config{
		EnforceTransitions: cfg.Admission.EnforceTransitions,
		RenumberWaitlist:   cfg.Admission.RenumberWaitlist,
		Timeout:            30 * time.Second,
	}, db, redisClient, locks, provisioner, notifier, log)

	server := api.NewServer(submitHandler, rankHandler, allocateHandler, setStatusHandler, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// pprof on a separate private port
	go func() {
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			zapLog.Warn("pprof server stopped", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}
	zapLog.Info("Shutdown complete")
}
