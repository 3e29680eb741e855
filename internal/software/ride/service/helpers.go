package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"rydin/internal/domain/ride"
	"rydin/internal/domain/user"
	"rydin/internal/general/contracts"
	"rydin/internal/general/logger"
	"rydin/internal/ports"
)

const producer = "ride-service"

// outcomes returned to callers unchanged; anything else is a store failure
var domainErrors = []error{
	ride.ErrRideUnavailable,
	ride.ErrRideLocked,
	ride.ErrRideFull,
	ride.ErrAlreadyJoined,
	ride.ErrJoinRestricted,
	ride.ErrEligibilityMismatch,
	ride.ErrNotMember,
	ride.ErrNotHost,
	ride.ErrRideHasMembers,
	ride.ErrRideNotLocked,
	ride.ErrNotParticipant,
	ride.ErrHostRequired,
	ride.ErrRouteRequired,
	ride.ErrInvalidDate,
	ride.ErrInvalidTime,
	ride.ErrInvalidSeats,
	ride.ErrInvalidFare,
	ride.ErrInvalidStatusTransition,
	ride.ErrUserIDRequired,
	user.ErrUserNotFound,
	user.ErrNoEmergencyContact,
	ports.ErrStoreUnavailable,
}

// classify passes domain outcomes through and wraps everything else as ErrStoreUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ports.ErrStoreUnavailable, err)
}

// generateCorrelationID creates a simple correlation ID for tracing requests.
func generateCorrelationID(ctx context.Context) string {
	if id := logger.RequestID(ctx); id != "" {
		return id
	}
	var b [3]byte // 6 hex chars
	_, _ = rand.Read(b[:])
	ts := time.Now().UTC().Format("20060102T150405") // e.g., 20251028T184523
	return "req_" + ts + "_" + hex.EncodeToString(b[:])
}

// appendEvent writes an audit row for the ride inside the current transaction.
func (service *rideService) appendEvent(ctx context.Context, rideID string, eventType ride.EventType, data map[string]any) error {
	event, err := ride.NewEvent(rideID, eventType, data)
	if err != nil {
		return err
	}
	return service.rideEventRepo.Append(ctx, event)
}

// requireHost loads the ride for update and checks that hostID hosts it.
func (service *rideService) requireHost(ctx context.Context, rideID, hostID string) (*ride.Ride, error) {
	r, err := service.rideRepo.GetForUpdate(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !r.IsHost(hostID) {
		return nil, ride.ErrNotHost
	}
	return r, nil
}

// startOfDay returns local midnight of the day containing t.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// publishRideStatus sends a ride status update to the ride topic exchange using routing key
// ride.status.{status}, e.g., ride.status.locked. Failures are logged, never returned.
func (service *rideService) publishRideStatus(ctx context.Context, r *ride.Ride, corrID string) {
	msg := contracts.RideStatusMessage{
		RideID:     r.ID,
		Status:     r.Status.String(),
		SeatsTotal: r.SeatsTotal,
		SeatsTaken: r.SeatsTaken,
		Timestamp:  service.now().UTC(),
		Envelope: contracts.Envelope{
			CorrelationID: corrID,
			Producer:      producer,
			SentAt:        time.Now().UTC(),
		},
	}
	service.publish(ctx, contracts.RouteRideStatusPrefix+strings.ToLower(msg.Status), msg)
}

// publishMember sends a membership change using routing key ride.member.{action}.
func (service *rideService) publishMember(ctx context.Context, rideID, userID, action, corrID string) {
	msg := contracts.RideMemberMessage{
		RideID:    rideID,
		UserID:    userID,
		Action:    action,
		Timestamp: service.now().UTC(),
		Envelope: contracts.Envelope{
			CorrelationID: corrID,
			Producer:      producer,
			SentAt:        time.Now().UTC(),
		},
	}
	service.publish(ctx, contracts.RouteRideMemberPrefix+action, msg)
}

func (service *rideService) publish(ctx context.Context, routingKey string, msg any) {
	// marshal and publish
	body, err := json.Marshal(msg)
	if err == nil {
		err = service.pub.Publish(contracts.ExchangeRideTopic, routingKey, body)
	}
	if err != nil {
		service.logger.Warn(ctx, "ride_event_publish_failed", "Failed to publish ride event to RabbitMQ", err, map[string]any{
			"routing_key": routingKey,
		})
		return
	}

	// log successful publication
	service.logger.Debug(ctx, "ride_event_published", "Published ride event to RabbitMQ", map[string]any{
		"routing_key": routingKey,
	})
}
