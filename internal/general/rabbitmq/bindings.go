package rabbitmq

import (
	"fmt"
	"time"

	"rydin/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

// eventRetention bounds the ride event queues, which may have no subscriber attached.
type eventRetention struct {
	ttl       time.Duration
	maxLength int
}

// queueBinding is one queue of the ride topic exchange.
type queueBinding struct {
	queue      string
	routingKey string
	args       amqp.Table
}

// topology lists the queues declared on connect. Event queues are capped and
// expire old messages; bucket requests are work items and are kept until handled.
func topology(retention eventRetention) []queueBinding {
	events := amqp.Table{}
	if retention.ttl > 0 {
		events["x-message-ttl"] = retention.ttl.Milliseconds()
	}
	if retention.maxLength > 0 {
		events["x-max-length"] = int64(retention.maxLength)
		events["x-overflow"] = "drop-head"
	}
	if len(events) == 0 {
		events = nil
	}

	return []queueBinding{
		{contracts.QueueRideStatus, contracts.RouteRideStatusPrefix + "*", events},
		{contracts.QueueRideMembers, contracts.RouteRideMemberPrefix + "*", events},
		{contracts.QueueBucketRequests, contracts.RouteBucketPrefix + "*", nil},
	}
}

func declareTopology(ch *amqp.Channel, retention eventRetention) error {
	if err := ch.ExchangeDeclare(contracts.ExchangeRideTopic, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", contracts.ExchangeRideTopic, err)
	}

	for _, b := range topology(retention) {
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, b.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(b.queue, b.routingKey, contracts.ExchangeRideTopic, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, contracts.ExchangeRideTopic, err)
		}
	}

	return nil
}
