package service

import (
	"context"
	"sort"
	"time"

	"rydin/internal/domain/matching"
	"rydin/internal/domain/ride"
	"rydin/internal/ports"
)

// SearchRides lists joinable rides on the requested date whose route and
// departure match the query, best match first.
func (service *rideService) SearchRides(ctx context.Context, in ports.SearchInput) ([]ports.SearchHit, error) {
	if _, err := time.Parse(ride.DateLayout, in.Date); err != nil {
		return nil, ride.ErrInvalidDate
	}
	if _, err := matching.ParseClock(in.DepartureTime); err != nil {
		return nil, ride.ErrInvalidTime
	}
	if in.FlexibilityMinutes < 0 {
		in.FlexibilityMinutes = 0
	}

	// load candidates for the day
	var candidates []*ride.Ride
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		candidates, err = service.rideRepo.ListJoinableByDate(txCtx, in.Date)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}

	want := matching.TimeRange{DepartureTime: in.DepartureTime, FlexibilityMinutes: in.FlexibilityMinutes}
	hits := make([]ports.SearchHit, 0, len(candidates))
	for _, r := range candidates {
		if !matching.IsDateMatch(in.Date, r.Date) {
			continue
		}
		if !matching.IsLocationMatch(in.Source, r.Source, in.Destination, r.Destination) {
			continue
		}
		offer := matching.TimeRange{DepartureTime: r.Time}
		if !matching.IsTimeMatch(want, offer) {
			continue
		}
		hits = append(hits, ports.SearchHit{
			Ride:        ports.NewRideView(r),
			Score:       matching.MatchScore(want, offer),
			MatchReason: matching.MatchReason(r.Destination, r.FlightTrain),
		})
	}

	// rank by score, then earliest departure
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Ride.Time < hits[j].Ride.Time
	})

	return hits, nil
}
