package service

import (
	"context"
	"fmt"

	"rydin/internal/domain/ride"
	"rydin/internal/general/metrics"
	"rydin/internal/ports"
)

// CreateRide creates an open ride with no seats taken and records RIDE_CREATED.
func (service *rideService) CreateRide(ctx context.Context, in ports.CreateRideInput) (ports.RideView, error) {
	corrID := generateCorrelationID(ctx)

	// validate the input through the domain constructor
	r, err := ride.NewRide(
		in.HostID,
		ride.Route{Source: in.Source, Destination: in.Destination},
		ride.Schedule{Date: in.Date, Time: in.Time},
		in.SeatsTotal,
		in.EstimatedFare,
		ride.Flags{GirlsOnly: in.GirlsOnly, FlightTrain: in.FlightTrain},
	)
	if err != nil {
		return ports.RideView{}, err
	}

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		// the host must have a profile
		if _, err := service.userRepo.GetByID(txCtx, r.HostID); err != nil {
			return err
		}

		// create ride record
		if err := service.rideRepo.CreateRide(txCtx, r); err != nil {
			return err
		}

		return service.appendEvent(txCtx, r.ID, ride.EventRideCreated, map[string]any{
			"host_id":     r.HostID,
			"seats_total": r.SeatsTotal,
		})
	})
	if err != nil {
		err = classify(err)
		service.logger.Error(ctx, "ride_create_failed", "Failed to create ride", err, map[string]any{
			"host_id":    in.HostID,
			"request_id": corrID,
		})
		return ports.RideView{}, err
	}

	metrics.RidesCreated.WithLabelValues("user").Inc()
	service.publishRideStatus(ctx, r, corrID)

	service.logger.Info(service.logger.WithRideID(ctx, r.ID), "ride_created",
		fmt.Sprintf("Ride %s -> %s created for %s %s", r.Source, r.Destination, r.Date, r.Time),
		map[string]any{
			"host_id":     r.HostID,
			"seats_total": r.SeatsTotal,
			"girls_only":  r.GirlsOnly,
			"request_id":  corrID,
		},
	)

	return ports.NewRideView(r), nil
}
