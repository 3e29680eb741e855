package service

import (
	"context"
	"math"

	"rydin/internal/domain/reliability"
	"rydin/internal/ports"
)

// GetSystemOverview collects aggregate metrics about today's rides and rider standing.
func (service *adminService) GetSystemOverview(ctx context.Context) (ports.SystemOverviewResult, error) {
	var res ports.SystemOverviewResult
	res.Timestamp = service.now().UTC()
	res.Date = service.today()

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		// ----- ride metrics -----
		stats, err := service.rideRepo.DayStats(txCtx, res.Date)
		if err != nil {
			return err
		}
		res.Metrics.ByStatus = make(map[string]int, len(stats.ByStatus))
		for status, n := range stats.ByStatus {
			res.Metrics.ByStatus[string(status)] = n
			res.Metrics.RidesToday += n
		}
		res.Metrics.BucketRidesToday = stats.FromBucket
		res.Metrics.SeatsTaken = stats.SeatsTaken
		res.Metrics.SeatsTotal = stats.SeatsTotal
		if stats.SeatsTotal > 0 {
			ratio := float64(stats.SeatsTaken) / float64(stats.SeatsTotal)
			res.Metrics.SeatUtilization = math.Round(ratio*1000) / 1000
		}

		// ----- rider standing -----
		capped, err := service.userRepo.CountByNoShows(txCtx, reliability.CapAfterNoShows)
		if err != nil {
			return err
		}
		restricted, err := service.userRepo.CountByNoShows(txCtx, reliability.RestrictAfterNoShows)
		if err != nil {
			return err
		}
		// restricted riders are also past the cap threshold; report them once
		res.Metrics.CappedRiders = capped - restricted
		res.Metrics.RestrictedRiders = restricted

		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "admin_overview_failed", "Failed to collect system overview", err, nil)
		return ports.SystemOverviewResult{}, classify(err)
	}

	return res, nil
}
