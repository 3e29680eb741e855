package rideservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"rydin/internal/general/config"
	"rydin/internal/general/jwt"
	"rydin/internal/general/logger"
	"rydin/internal/general/memstore"
	"rydin/internal/general/metrics"
	"rydin/internal/general/rabbitmq"
	"rydin/internal/general/redis"
	"rydin/internal/general/storage"
	"rydin/internal/ports"
	adminhandler "rydin/internal/software/adminboard/handler"
	admin "rydin/internal/software/adminboard/service"
	buckets "rydin/internal/software/bucket/service"
	profiles "rydin/internal/software/profile/service"
	reliability "rydin/internal/software/reliability/service"
	"rydin/internal/software/ride/handler"
	rides "rydin/internal/software/ride/service"
)

// Run wires the ride service and blocks until ctx is cancelled.
func Run(ctx context.Context, configPath string, maxConcurrent int) error {
	// set up a new logger and context for ride service with a static request ID for startup logs
	logger := logger.New("ride-service")
	ctx = logger.WithRequestID(ctx, "startup-001")

	// load a config from file
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}
	if maxConcurrent <= 0 {
		maxConcurrent = cfg.Services.MaxConcurrentReqs
	}
	loc := cfg.Location()

	// open the configured storage backend
	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize storage", err, map[string]any{"driver": cfg.Storage.Driver})
		return err
	}
	defer store.Close()

	// ride and bucket events go to RabbitMQ when it is enabled
	var pub ports.Publisher = rabbitmq.NopPublisher{Logger: logger}
	if cfg.RabbitMQ.Enabled {
		rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
		if err != nil {
			logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
			return err
		}
		defer rmq.Close()
		pub = rabbitmq.NewMQPublisher(rmq)
	}

	// profile override tier
	overrides, closeOverrides, err := openOverrideStore(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "redis_connection_failed", "Failed to connect to Redis", err, map[string]any{"addr": cfg.Redis.Addr})
		return err
	}
	defer closeOverrides()

	// set up the JWT manager
	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, 2*time.Hour)

	// set up the services
	svc := handler.Services{
		Rides: rides.NewRideService(logger, store.UnitOfWork, rides.Repositories{
			Rides:   store.Rides,
			Members: store.Members,
			Users:   store.Users,
			Events:  store.Events,
			Shares:  store.Shares,
		}, pub, loc),
		Reliability: reliability.NewReliabilityService(logger, store.UnitOfWork, store.Users, cfg.Rydin.ClearanceBatch),
		Buckets:     buckets.NewBucketService(logger, store.UnitOfWork, store.Rides, store.Events, pub, nil, loc),
		Profiles:    profiles.NewProfileService(logger, store.UnitOfWork, store.Users, overrides, cfg.Rydin.ProfileWriteTimeout),
	}

	// set up the HTTP handler and its routes
	mux := http.NewServeMux()
	httpHandler := handler.NewRideHTTPHandler(svc, logger, jwtManager, cfg.RabbitMQ.Enabled, cfg.Rydin.ProfileWriteTimeout)
	httpHandler.RegisterRoutes(mux)
	adminSvc := admin.NewAdminService(logger, store.UnitOfWork, store.Rides, store.Users, loc)
	adminhandler.NewAdminHTTPHandler(adminSvc, logger, jwtManager).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metrics.Handler())

	// concurrency limiter (global) blocks when capacity is full
	limitedHandler := withConcurrencyLimit(maxConcurrent, metrics.Instrument(mux))

	// set up the server configurations; profile writes may wait up to their timeout
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.RideServicePort),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Rydin.ProfileWriteTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	// log service start
	logger.Info(ctx, "service_started",
		fmt.Sprintf("Ride Service started on port %d", cfg.Services.RideServicePort),
		map[string]any{
			"port":           cfg.Services.RideServicePort,
			"max_concurrent": maxConcurrent,
			"storage":        cfg.Storage.Driver,
			"rabbitmq":       cfg.RabbitMQ.Enabled,
			"redis":          cfg.Redis.Enabled,
		},
	)

	// start the server in a background goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// wait for context cancellation or server error
	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), cfg.Services.ShutdownTimeout)
		defer cancel()
		logger.Info(ctx, "shutdown_started", "Starting graceful shutdown", nil)
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		if err != nil {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.Services.RideServicePort})
			return err
		}
	}

	return nil
}

// openOverrideStore returns the Redis override tier when enabled and the
// process-local one otherwise.
func openOverrideStore(ctx context.Context, cfg *config.Config, logger *logger.Logger) (ports.ProfileOverrideStore, func(), error) {
	if !cfg.Redis.Enabled {
		logger.Warn(ctx, "redis_disabled", "Profile overrides are kept in process memory", nil, nil)
		return memstore.NewOverrideStore(), func() {}, nil
	}
	client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	return redis.NewOverrideStore(client, cfg.Redis.OverrideTTL), func() { _ = client.Close() }, nil
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
