// ==============================================================================
// GEOFENCE API MAIN - cmd/api/main.go
// ==============================================================================
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"geofence/internal/alert"
	"geofence/internal/handler"
	"geofence/internal/location"
	"geofence/internal/metrics"
	"geofence/internal/middleware"
	"geofence/internal/push"
	"geofence/internal/queue"
	"geofence/internal/repository/cached"
	"geofence/internal/repository/postgres"
	"geofence/internal/user"
	"geofence/pkg/cache"
	"geofence/pkg/config"
	"geofence/pkg/logger"
	"geofence/pkg/validator"
)

func main() {
	cfg := config.Load()
	log := logger.New("geofence-api")

	if err := cfg.ValidateCore(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Starting Geofence API", map[string]interface{}{
		"port":          cfg.Server.Port,
		"queue_backend": cfg.Queue.Backend,
		"auth_enabled":  cfg.AuthEnabled(),
	})

	// Database connection
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

	log.Info("Database connected", nil)

	// Redis backs rate limiting, the geofence cache and, by default, the alert queue
	redisClient, err := cache.Connect(context.Background(), cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer redisClient.Close()

	log.Info("Redis connected", nil)

	jobs, err := queue.Open(cfg.Queue, redisClient)
	if err != nil {
		log.Fatal("Failed to open alert queue", map[string]interface{}{
			"error": err.Error(),
		})
	}

	m := metrics.New()

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	var geofenceRepo user.GeofenceRepository = postgres.NewGeofenceRepository(db)
	if cfg.Redis.GeofenceTTL > 0 {
		geofenceRepo = cached.NewGeofenceRepository(geofenceRepo, cache.NewRedisCache(redisClient), cfg.Redis.GeofenceTTL, log)
	}
	locationRepo := postgres.NewLocationRepository(db)
	alertRepo := postgres.NewAlertRepository(db)
	deviceRepo := postgres.NewDeviceRepository(db)

	// Initialize services
	locationService := location.NewService(userRepo, locationRepo, geofenceRepo, jobs, nil, log, m)
	userService := user.NewService(userRepo, geofenceRepo, deviceRepo, locationRepo, alertRepo, log)

	// The in-memory queue is process local, so its workers run here
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	if cfg.Queue.Backend == "memory" {
		sender := push.NewFCMSender(cfg.Push.ServiceAccountFile, cfg.Push.Endpoint, cfg.Push.Timeout, log)
		dispatcher := alert.NewDispatcher(alertRepo, deviceRepo, sender, log, m)
		pool := queue.NewPool(jobs, dispatcher.Handle, cfg.Queue.Concurrency, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			pool.Run(workerCtx)
		}()
	}

	// Initialize handlers
	val := validator.New()
	locationHandler := handler.NewLocationHandler(locationService, val, log)
	usersHandler := handler.NewUsersHandler(userService, val, log)
	systemHandler := handler.NewSystemHandler("api", map[string]handler.Pinger{
		"database": db,
		"redis": handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	}, log)

	// Setup router
	r := mux.NewRouter()

	// Middleware
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	r.Use(middleware.BodyLimit(1 << 20))

	// Routes
	r.HandleFunc("/health", systemHandler.Health).Methods("GET")
	r.HandleFunc("/ready", systemHandler.Ready).Methods("GET")
	r.Handle("/metrics", m.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	if cfg.AuthEnabled() {
		api.Use(middleware.NewAuthMiddleware(cfg.JWT.Secret).Authenticate)
	} else {
		log.Warn("JWT_SECRET is not set, API is running without authentication", nil)
	}
	api.Use(middleware.NewRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window).Limit)

	api.HandleFunc("/location/update", locationHandler.Update).Methods("POST")
	api.HandleFunc("/users", usersHandler.CreateUser).Methods("POST")
	api.HandleFunc("/users/{id:[0-9]+}/alerts", usersHandler.ListUserAlerts).Methods("GET")
	api.HandleFunc("/users/{id:[0-9]+}/profile", usersHandler.GetProfile).Methods("GET")
	api.HandleFunc("/geofences", usersHandler.CreateGeofence).Methods("POST")
	api.HandleFunc("/devices/register", usersHandler.RegisterDevice).Methods("POST")
	api.HandleFunc("/alerts", usersHandler.ListAlerts).Methods("GET")

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Info("Geofence API started", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down geofence API...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Geofence API forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Closing the queue lets in-process workers drain what is left
	_ = jobs.Close()
	drained := make(chan struct{})
	go func() {
		workers.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		stopWorkers()
		<-drained
	}
	stopWorkers()

	log.Info("Geofence API stopped gracefully", nil)
}
