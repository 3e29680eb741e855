package service

import (
	"context"
	"fmt"
	"time"

	"rydin/internal/domain/bucket"
	"rydin/internal/domain/ride"
	"rydin/internal/ports"
)

// Catalogue returns every bucket template.
func (service *bucketService) Catalogue() []bucket.Bucket {
	return bucket.All()
}

// FindMatchingBucket returns the bucket serving the route, if any.
func (service *bucketService) FindMatchingBucket(source, destination string) (bucket.Bucket, bool) {
	return bucket.FindMatching(source, destination)
}

// BucketRidesForDate lists the live rides generated from one bucket on a date.
func (service *bucketService) BucketRidesForDate(ctx context.Context, bucketID, date string) ([]ports.RideView, error) {
	if _, err := bucket.ByID(bucketID); err != nil {
		return nil, err
	}
	if date == "" {
		date = service.today()
	}
	if _, err := time.Parse(ride.DateLayout, date); err != nil {
		return nil, ride.ErrInvalidDate
	}

	var rides []*ride.Ride
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		rides, err = service.rideRepo.ListByBucketAndDate(txCtx, bucketID, date)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrStoreUnavailable, err)
	}

	out := make([]ports.RideView, 0, len(rides))
	for _, r := range rides {
		out = append(out, ports.NewRideView(r))
	}
	return out, nil
}
