package bucketworker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestNextRunAt(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)

	tests := []struct {
		name  string
		now   time.Time
		clock string
		want  time.Time
	}{
		{"later today", time.Date(2026, 3, 2, 1, 0, 0, 0, ist), "04:30", time.Date(2026, 3, 2, 4, 30, 0, 0, ist)},
		{"already passed", time.Date(2026, 3, 2, 9, 0, 0, 0, ist), "04:30", time.Date(2026, 3, 3, 4, 30, 0, 0, ist)},
		{"exactly now", time.Date(2026, 3, 2, 4, 30, 0, 0, ist), "04:30", time.Date(2026, 3, 3, 4, 30, 0, 0, ist)},
		{"month end", time.Date(2026, 3, 31, 23, 0, 0, 0, ist), "04:30", time.Date(2026, 4, 1, 4, 30, 0, 0, ist)},
		// 22:30 UTC is already the next morning on campus
		{"utc input", time.Date(2026, 3, 1, 22, 30, 0, 0, time.UTC), "04:30", time.Date(2026, 3, 2, 4, 30, 0, 0, ist)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextRunAt(tt.now, tt.clock, ist)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("nextRunAt = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := nextRunAt(time.Now(), "4.30", ist); err == nil {
		t.Fatal("expected error for malformed clock")
	}
}

func TestRunDailyRunsAtStartAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- runDaily(ctx, "04:30", time.UTC, time.Now, func(context.Context) {
			runs.Add(1)
			cancel()
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runDaily: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runDaily did not stop after cancel")
	}
	if runs.Load() != 1 {
		t.Fatalf("runs = %d, want 1", runs.Load())
	}
}
