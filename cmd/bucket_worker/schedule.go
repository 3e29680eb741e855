package bucketworker

import (
	"context"
	"fmt"
	"time"
)

// nextRunAt returns the first moment strictly after now whose local wall clock
// reads clock (HH:MM) in loc.
func nextRunAt(now time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse run time %q: %w", clock, err)
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}

// runDaily calls job once at start and then every day at clock until ctx is cancelled.
func runDaily(ctx context.Context, clock string, loc *time.Location, now func() time.Time, job func(context.Context)) error {
	job(ctx)
	for {
		next, err := nextRunAt(now(), clock, loc)
		if err != nil {
			return err
		}
		timer := time.NewTimer(next.Sub(now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			job(ctx)
		}
	}
}
