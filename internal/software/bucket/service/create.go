package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"rydin/internal/domain/bucket"
	"rydin/internal/domain/matching"
	"rydin/internal/domain/ride"
	"rydin/internal/general/contracts"
	"rydin/internal/general/metrics"
	"rydin/internal/ports"
)

// CreateAutoBucketRide makes sure today's system ride for the bucket slot
// exists. Calling it again for the same slot returns the existing ride.
func (service *bucketService) CreateAutoBucketRide(ctx context.Context, bucketID, slotTime string, girlsOnly bool) (ports.BucketRideResult, error) {
	b, err := bucket.ByID(bucketID)
	if err != nil {
		return ports.BucketRideResult{}, err
	}
	if _, err := matching.ParseClock(slotTime); err != nil {
		return ports.BucketRideResult{}, ride.ErrInvalidTime
	}
	return service.ensureSlot(ctx, bucket.Slot{Bucket: b, Time: slotTime, GirlsOnly: girlsOnly}, service.today())
}

// ensureSlot inserts the slot ride unless one already occupies it.
func (service *bucketService) ensureSlot(ctx context.Context, slot bucket.Slot, date string) (ports.BucketRideResult, error) {
	r, err := ride.NewRide(
		bucket.SystemHostID,
		ride.Route{Source: slot.Bucket.Source, Destination: slot.Bucket.Destination},
		ride.Schedule{Date: date, Time: slot.Time},
		slot.Bucket.DefaultSeats,
		slot.Bucket.EstimatedFare,
		ride.Flags{GirlsOnly: slot.GirlsOnly, BucketID: slot.Bucket.ID, BucketName: slot.Bucket.Name},
	)
	if err != nil {
		return ports.BucketRideResult{}, err
	}

	var created bool
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		if created, err = service.rideRepo.CreateIfAbsent(txCtx, r); err != nil || !created {
			return err
		}

		event, err := ride.NewEvent(r.ID, ride.EventRideCreated, map[string]any{
			"host_id":    bucket.SystemHostID,
			"bucket_id":  slot.Bucket.ID,
			"girls_only": slot.GirlsOnly,
		})
		if err != nil {
			return err
		}
		return service.rideEventRepo.Append(txCtx, event)
	})
	if err != nil {
		return ports.BucketRideResult{}, fmt.Errorf("%w: %w", ports.ErrStoreUnavailable, err)
	}

	if created {
		metrics.RidesCreated.WithLabelValues("bucket").Inc()
		service.publishRideStatus(ctx, r)
	}

	return ports.BucketRideResult{Ride: ports.NewRideView(r), Created: created}, nil
}

// publishRideStatus announces a new bucket ride. Failures are logged only.
func (service *bucketService) publishRideStatus(ctx context.Context, r *ride.Ride) {
	msg := contracts.RideStatusMessage{
		RideID:     r.ID,
		Status:     r.Status.String(),
		SeatsTotal: r.SeatsTotal,
		SeatsTaken: r.SeatsTaken,
		Timestamp:  service.now().UTC(),
		Envelope: contracts.Envelope{
			Producer: producer,
			SentAt:   time.Now().UTC(),
		},
	}
	routingKey := contracts.RouteRideStatusPrefix + strings.ToLower(msg.Status)

	body, err := json.Marshal(msg)
	if err == nil {
		err = service.pub.Publish(contracts.ExchangeRideTopic, routingKey, body)
	}
	if err != nil {
		service.logger.Warn(service.logger.WithRideID(ctx, r.ID), "ride_status_publish_failed", "Failed to publish bucket ride status", err, map[string]any{
			"routing_key": routingKey,
		})
	}
}
