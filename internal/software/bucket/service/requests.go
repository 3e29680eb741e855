package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rydin/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrNoConsumer is returned by RunRequestConsumer when no broker is configured.
var ErrNoConsumer = errors.New("bucket generation requests need a message broker")

// RequestGeneration asks the bucket worker to run today's generation now.
func (service *bucketService) RequestGeneration(ctx context.Context, requestedBy string) error {
	msg := contracts.BucketGenerateRequest{
		RequestedBy: requestedBy,
		RequestedAt: service.now().UTC(),
		Envelope: contracts.Envelope{
			Producer: "ride-service",
			SentAt:   time.Now().UTC(),
		},
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	routingKey := contracts.RouteBucketPrefix + "manual"
	if err := service.pub.Publish(contracts.ExchangeRideTopic, routingKey, body); err != nil {
		service.logger.Error(ctx, "bucket_request_publish_failed", "Failed to publish bucket generation request", err, nil)
		return fmt.Errorf("publish bucket request: %w", err)
	}

	service.logger.Info(ctx, "bucket_request_published", "Requested bucket generation", map[string]any{
		"requested_by": requestedBy,
	})
	return nil
}

// RunRequestConsumer serves generation requests until ctx is cancelled.
func (service *bucketService) RunRequestConsumer(ctx context.Context, prefetch int) error {
	if service.consumer == nil {
		return ErrNoConsumer
	}
	return service.consumer.Consume(ctx, contracts.QueueBucketRequests, "bucket-worker-requests", prefetch,
		func(ctx context.Context, d amqp.Delivery) error {
			return service.handleRequest(ctx, d.Body)
		},
	)
}

func (service *bucketService) handleRequest(ctx context.Context, body []byte) error {
	var req contracts.BucketGenerateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		service.logger.Error(ctx, "mq_message_parse_failed", "Failed to parse bucket request", err, nil)
		return err
	}
	if req.CorrelationID != "" {
		ctx = service.logger.WithRequestID(ctx, req.CorrelationID)
	}

	res, err := service.CreateDailyAutoBuckets(ctx)
	if err != nil {
		service.logger.Error(ctx, "bucket_request_failed", "Failed to serve bucket generation request", err, map[string]any{
			"requested_by": req.RequestedBy,
		})
		return err
	}
	service.logger.Info(ctx, "bucket_request_served", "Served bucket generation request", map[string]any{
		"requested_by": req.RequestedBy,
		"created":      res.Created,
	})
	return nil
}
