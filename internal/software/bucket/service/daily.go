package service

import (
	"context"
	"fmt"

	"rydin/internal/domain/bucket"
	"rydin/internal/general/metrics"
	"rydin/internal/ports"
)

const producer = "bucket-worker"

// CreateDailyAutoBuckets ensures every slot of today's plan exists. A failing
// slot is logged and counted; the rest of the batch still runs.
func (service *bucketService) CreateDailyAutoBuckets(ctx context.Context) (ports.DailyBucketsResult, error) {
	res := ports.DailyBucketsResult{Date: service.today()}

	for _, slot := range bucket.DailyPlan() {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		out, err := service.ensureSlot(ctx, slot, res.Date)
		switch {
		case err != nil:
			res.Failed++
			metrics.BucketSlots.WithLabelValues("failed").Inc()
			service.logger.Warn(ctx, "bucket_slot_failed", "Failed to create bucket ride", err, map[string]any{
				"bucket_id":  slot.Bucket.ID,
				"time":       slot.Time,
				"girls_only": slot.GirlsOnly,
			})
		case out.Created:
			res.Created++
			metrics.BucketSlots.WithLabelValues("created").Inc()
		default:
			res.Existing++
			metrics.BucketSlots.WithLabelValues("existing").Inc()
		}
	}

	service.logger.Info(ctx, "daily_buckets_created",
		fmt.Sprintf("Daily buckets for %s: %d created, %d existing, %d failed", res.Date, res.Created, res.Existing, res.Failed),
		res,
	)
	return res, nil
}
