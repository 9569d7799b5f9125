// ==============================================================================
// ALERT WORKER MAIN - cmd/worker/main.go
// ==============================================================================
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"geofence/internal/alert"
	"geofence/internal/handler"
	"geofence/internal/metrics"
	"geofence/internal/push"
	"geofence/internal/queue"
	"geofence/internal/repository/postgres"
	"geofence/pkg/cache"
	"geofence/pkg/config"
	"geofence/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New("geofence-worker")

	if err := cfg.ValidateCore(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}
	if cfg.Queue.Backend == "memory" {
		log.Fatal("The memory queue is process local; run the API alone or pick redis or amqp", nil)
	}

	log.Info("Starting Alert Worker", map[string]interface{}{
		"queue_backend": cfg.Queue.Backend,
		"queue":         cfg.Queue.Name,
		"concurrency":   cfg.Queue.Concurrency,
		"consumer":      cfg.Queue.Consumer,
	})

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	deps := map[string]handler.Pinger{"database": db}

	var redisClient *redis.Client
	if cfg.Queue.Backend == "redis" {
		redisClient, err = cache.Connect(context.Background(), cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", map[string]interface{}{
				"error": err.Error(),
			})
		}
		defer redisClient.Close()
		deps["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	jobs, err := queue.Open(cfg.Queue, redisClient)
	if err != nil {
		log.Fatal("Failed to open alert queue", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer jobs.Close()

	// Jobs this consumer picked up before a crash go back on the pending list
	if rq, ok := jobs.(*queue.RedisQueue); ok {
		moved, err := rq.Recover(context.Background())
		if err != nil {
			log.Warn("Failed to recover in-flight jobs", map[string]interface{}{"error": err.Error()})
		} else if moved > 0 {
			log.Info("Recovered in-flight jobs", map[string]interface{}{
				"count":    moved,
				"consumer": cfg.Queue.Consumer,
			})
		}
	}

	m := metrics.New()
	sender := push.NewFCMSender(cfg.Push.ServiceAccountFile, cfg.Push.Endpoint, cfg.Push.Timeout, log)
	dispatcher := alert.NewDispatcher(
		postgres.NewAlertRepository(db),
		postgres.NewDeviceRepository(db),
		sender,
		log,
		m,
	)

	// Probes and metrics
	systemHandler := handler.NewSystemHandler("worker", deps, log)
	r := mux.NewRouter()
	r.HandleFunc("/health", systemHandler.Health).Methods("GET")
	r.HandleFunc("/ready", systemHandler.Ready).Methods("GET")
	r.Handle("/metrics", m.Handler()).Methods("GET")

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.NewPool(jobs, dispatcher.Handle, cfg.Queue.Concurrency, log).Run(ctx)

	log.Info("Shutting down alert worker...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	log.Info("Alert worker stopped gracefully", nil)
}
