package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// defaultHandlerTimeout applies when the client was built without a configured budget.
const defaultHandlerTimeout = 2 * time.Minute

// DeliveryHandler processes one delivery. A nil return acks it.
type DeliveryHandler func(context.Context, amqp.Delivery) error

// newConsumerChannel returns a fresh channel with prefetch (QoS) applied.
func (client *Client) newConsumerChannel(prefetch int) (*amqp.Channel, error) {
	client.mu.RLock()
	conn := client.conn
	client.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return nil, errors.New("rabbitmq: connection is not ready")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}

	if prefetch < 0 {
		prefetch = 1
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("rabbitmq: set QoS (prefetch=%d): %w", prefetch, err)
		}
	}

	return ch, nil
}

// Consume delivers messages from queue to handler with manual acks until ctx
// is cancelled or the channel closes. Each handler call gets the client's
// handler timeout.
func (client *Client) Consume(
	ctx context.Context,
	queue string,
	consumerTag string,
	prefetch int,
	handler func(context.Context, amqp.Delivery) error,
) error {
	ch, err := client.newConsumerChannel(prefetch)
	if err != nil {
		return err
	}
	defer ch.Close()

	deliveries, err := ch.Consume(
		queue,
		consumerTag,
		false, // autoAck
		false, // exclusive
		false, // noLocal (ignored by RabbitMQ)
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume(%s): %w", queue, err)
	}

	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	client.logger.Info(ctx, "rabbitmq_consumer_started", "Consuming from queue", map[string]any{
		"queue":      queue,
		"prefetch":   prefetch,
		"timeout_ms": client.timeout().Milliseconds(),
	})

	for {
		select {
		case <-ctx.Done():
			if consumerTag != "" {
				_ = ch.Cancel(consumerTag, false)
			}
			return nil

		case cerr := <-chClosed:
			if cerr != nil {
				return fmt.Errorf("rabbitmq: channel closed while consuming %s: %w", queue, cerr)
			}
			return nil

		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			client.settle(ctx, queue, d, handler)
		}
	}
}

// settle runs handler for one delivery and acks, requeues or drops it.
func (client *Client) settle(ctx context.Context, queue string, d amqp.Delivery, handler DeliveryHandler) {
	hCtx, cancel := context.WithTimeout(ctx, client.timeout())
	err := handler(hCtx, d)
	cancel()

	details := map[string]any{
		"queue":       queue,
		"routing_key": d.RoutingKey,
		"message_id":  d.MessageId,
		"redelivered": d.Redelivered,
	}

	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			client.logger.Warn(ctx, "rabbitmq_ack_failed", "Failed to ack delivery", ackErr, details)
		}
		return
	}

	requeue := shouldRequeue(ctx, err, d.Redelivered)
	details["requeued"] = requeue
	if requeue {
		client.logger.Warn(ctx, "rabbitmq_delivery_requeued", "Handler did not finish; delivery requeued", err, details)
	} else {
		client.logger.Warn(ctx, "rabbitmq_delivery_dropped", "Handler failed; delivery dropped", err, details)
	}
	if nackErr := d.Nack(false, requeue); nackErr != nil {
		client.logger.Warn(ctx, "rabbitmq_nack_failed", "Failed to nack delivery", nackErr, details)
	}
}

// shouldRequeue reports whether a failed delivery gets another attempt. A
// delivery interrupted by shutdown is always requeued; one that ran out of time
// is retried once; anything else is dropped.
func shouldRequeue(consumerCtx context.Context, err error, redelivered bool) bool {
	if consumerCtx.Err() != nil {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) && !redelivered
}

func (client *Client) timeout() time.Duration {
	if client.handlerTimeout <= 0 {
		return defaultHandlerTimeout
	}
	return client.handlerTimeout
}
