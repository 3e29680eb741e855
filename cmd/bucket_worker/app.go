package bucketworker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"rydin/internal/general/config"
	"rydin/internal/general/logger"
	"rydin/internal/general/metrics"
	"rydin/internal/general/rabbitmq"
	"rydin/internal/general/storage"
	"rydin/internal/ports"
	buckets "rydin/internal/software/bucket/service"
	reliability "rydin/internal/software/reliability/service"
)

// resubscribeDelay is the pause before the request consumer reattaches after its channel closed.
const resubscribeDelay = 5 * time.Second

// Run starts the scheduled jobs, the generation request consumer and the
// health/metrics endpoint, and blocks until ctx is cancelled.
func Run(ctx context.Context, configPath string, prefetch int) error {
	logger := logger.New("bucket-worker")
	ctx = logger.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}
	loc := cfg.Location()

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize storage", err, map[string]any{"driver": cfg.Storage.Driver})
		return err
	}
	defer store.Close()

	var (
		pub      ports.Publisher = rabbitmq.NopPublisher{Logger: logger}
		consumer buckets.Consumer
		rmq      *rabbitmq.Client
	)
	if cfg.RabbitMQ.Enabled {
		rmq, err = rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
		if err != nil {
			logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
			return err
		}
		defer rmq.Close()
		pub = rabbitmq.NewMQPublisher(rmq)
		consumer = rmq
	}

	bucketSvc := buckets.NewBucketService(logger, store.UnitOfWork, store.Rides, store.Events, pub, consumer, loc)
	reliabilitySvc := reliability.NewReliabilityService(logger, store.UnitOfWork, store.Users, cfg.Rydin.ClearanceBatch)

	var wg sync.WaitGroup

	// daily jobs: stock the bucket slots, then lift expired no-show restrictions
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := runDaily(ctx, cfg.Rydin.BucketRunAt, loc, time.Now, func(ctx context.Context) {
			runJobs(ctx, logger, bucketSvc, reliabilitySvc)
		})
		if err != nil {
			logger.Error(ctx, "scheduler_failed", "Daily scheduler stopped", err, nil)
		}
	}()

	// on-demand generation requests from the ride service
	if consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumeRequests(ctx, logger, bucketSvc, prefetch)
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]any{
			"status":   "ok",
			"storage":  cfg.Storage.Driver,
			"rabbitmq": rmq == nil || rmq.Ready(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status)
	})
	mux.Handle("GET /metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.BucketWorkerPort),
		Handler:           metrics.Instrument(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info(ctx, "service_started",
		fmt.Sprintf("Bucket Worker started on port %d", cfg.Services.BucketWorkerPort),
		map[string]any{
			"port":     cfg.Services.BucketWorkerPort,
			"run_at":   cfg.Rydin.BucketRunAt,
			"timezone": loc.String(),
			"prefetch": prefetch,
			"rabbitmq": cfg.RabbitMQ.Enabled,
		},
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	var runErr error
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
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.Services.BucketWorkerPort})
			runErr = err
		}
	}

	wg.Wait()
	return runErr
}

// runJobs performs one round of the daily work. Failures are logged; the next round retries.
func runJobs(ctx context.Context, logger *logger.Logger, bucketSvc ports.BucketService, reliabilitySvc ports.ReliabilityService) {
	ctx = logger.WithRequestID(ctx, fmt.Sprintf("daily-%d", time.Now().Unix()))

	if _, err := bucketSvc.CreateDailyAutoBuckets(ctx); err != nil {
		logger.Error(ctx, "daily_buckets_failed", "Daily bucket generation failed", err, nil)
	}

	cleared, err := reliabilitySvc.ClearEligibleNoShows(ctx)
	if err != nil {
		logger.Error(ctx, "no_show_clearance_failed", "No-show clearance failed", err, map[string]any{"cleared": cleared})
		return
	}
	logger.Info(ctx, "no_show_clearance_done", "No-show clearance finished", map[string]any{"cleared": cleared})
}

// consumeRequests keeps the generation request consumer attached across channel closures.
func consumeRequests(ctx context.Context, logger *logger.Logger, bucketSvc ports.BucketService, prefetch int) {
	for {
		err := bucketSvc.RunRequestConsumer(ctx, prefetch)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, buckets.ErrNoConsumer) {
			return
		}
		logger.Warn(ctx, "bucket_consumer_detached", "Bucket request consumer stopped; resubscribing", err, nil)

		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeDelay):
		}
	}
}
