package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"rydin/internal/domain/bucket"
	"rydin/internal/domain/ride"
	"rydin/internal/general/contracts"
	"rydin/internal/general/logger"
	"rydin/internal/general/memstore"
	"rydin/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

type recordingPublisher struct {
	mu     sync.Mutex
	bodies map[string][][]byte
}

func (p *recordingPublisher) Publish(exchange, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bodies == nil {
		p.bodies = make(map[string][][]byte)
	}
	p.bodies[routingKey] = append(p.bodies[routingKey], body)
	return nil
}

// fakeConsumer delivers the queued bodies and returns.
type fakeConsumer struct {
	queue  string
	bodies [][]byte
	errs   []error
}

func (c *fakeConsumer) Consume(ctx context.Context, queue, tag string, prefetch int, handler func(context.Context, amqp.Delivery) error) error {
	c.queue = queue
	for _, b := range c.bodies {
		c.errs = append(c.errs, handler(ctx, amqp.Delivery{Body: b}))
	}
	return nil
}

var fixedNow = time.Date(2030, 3, 10, 6, 30, 0, 0, time.UTC)

func newService(t *testing.T, consumer Consumer) (*bucketService, *memstore.Store, *recordingPublisher) {
	t.Helper()
	store := memstore.New()
	pub := &recordingPublisher{}
	svc := NewBucketService(logger.Discard(), store.UnitOfWork(), store.Rides(), store.Events(), pub, consumer, time.UTC).(*bucketService)
	svc.now = func() time.Time { return fixedNow }
	return svc, store, pub
}

func TestCreateAutoBucketRideIsIdempotent(t *testing.T) {
	svc, _, pub := newService(t, nil)
	ctx := context.Background()

	first, err := svc.CreateAutoBucketRide(ctx, "airport-morning", "05:00", false)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if !first.Created || first.Ride.Date != "2030-03-10" || first.Ride.HostID != bucket.SystemHostID {
		t.Fatalf("first result: %+v", first)
	}
	if first.Ride.SeatsTotal != 4 || first.Ride.EstimatedFare != 1200 || first.Ride.BucketID != "airport-morning" {
		t.Fatalf("ride not built from template: %+v", first.Ride)
	}

	second, err := svc.CreateAutoBucketRide(ctx, "airport-morning", "05:00", false)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.Created || second.Ride.RideID != first.Ride.RideID {
		t.Fatalf("second result: %+v", second)
	}

	// the girls-only twin is a different slot
	twin, err := svc.CreateAutoBucketRide(ctx, "airport-morning", "05:00", true)
	if err != nil {
		t.Fatalf("twin: %v", err)
	}
	if !twin.Created || twin.Ride.RideID == first.Ride.RideID || !twin.Ride.GirlsOnly {
		t.Fatalf("twin result: %+v", twin)
	}

	if got := len(pub.bodies["ride.status.open"]); got != 2 {
		t.Fatalf("published %d open statuses, want 2", got)
	}
}

func TestCreateAutoBucketRideRejectsBadInput(t *testing.T) {
	svc, _, _ := newService(t, nil)
	ctx := context.Background()

	if _, err := svc.CreateAutoBucketRide(ctx, "moon-base", "05:00", false); !errors.Is(err, bucket.ErrUnknownBucket) {
		t.Fatalf("unknown bucket err = %v", err)
	}
	if _, err := svc.CreateAutoBucketRide(ctx, "airport-morning", "25:00", false); !errors.Is(err, ride.ErrInvalidTime) {
		t.Fatalf("bad time err = %v", err)
	}
}

func TestCreateDailyAutoBuckets(t *testing.T) {
	svc, _, _ := newService(t, nil)
	ctx := context.Background()

	// one slot exists already
	if _, err := svc.CreateAutoBucketRide(ctx, "central-station", "08:00", false); err != nil {
		t.Fatalf("seed slot: %v", err)
	}

	res, err := svc.CreateDailyAutoBuckets(ctx)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	// airport 6 slots x 2 variants + central 6 + cmbt 6
	if res.Created != 23 || res.Existing != 1 || res.Failed != 0 {
		t.Fatalf("first run: %+v", res)
	}

	res, err = svc.CreateDailyAutoBuckets(ctx)
	if err != nil {
		t.Fatalf("second daily: %v", err)
	}
	if res.Created != 0 || res.Existing != 24 {
		t.Fatalf("second run: %+v", res)
	}

	rides, err := svc.BucketRidesForDate(ctx, "airport-morning", "2030-03-10")
	if err != nil {
		t.Fatalf("bucket rides: %v", err)
	}
	if len(rides) != 12 {
		t.Fatalf("airport rides = %d, want 12", len(rides))
	}
	if rides[0].Time != "05:00" {
		t.Fatalf("rides not ordered by time: %s first", rides[0].Time)
	}
}

// failingRides fails every insert for one destination.
type failingRides struct {
	ports.RideRepository
	destination string
}

func (f failingRides) CreateIfAbsent(ctx context.Context, r *ride.Ride) (bool, error) {
	if r.Destination == f.destination {
		return false, errors.New("disk full")
	}
	return f.RideRepository.CreateIfAbsent(ctx, r)
}

func TestCreateDailyAutoBucketsContinuesPastFailures(t *testing.T) {
	svc, store, _ := newService(t, nil)
	svc.rideRepo = failingRides{RideRepository: store.Rides(), destination: "CMBT Bus Stand"}

	res, err := svc.CreateDailyAutoBuckets(context.Background())
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if res.Created != 18 || res.Failed != 6 {
		t.Fatalf("result: %+v", res)
	}
}

func TestFindMatchingBucket(t *testing.T) {
	svc, _, _ := newService(t, nil)

	b, ok := svc.FindMatchingBucket("srm campus", "  cmbt bus stand ")
	if !ok || b.ID != "cmbt-busstand" {
		t.Fatalf("match = %+v, %v", b, ok)
	}
	if _, ok := svc.FindMatchingBucket("SRM Campus", "Marina Beach"); ok {
		t.Fatal("unexpected match")
	}
	if len(svc.Catalogue()) != 5 {
		t.Fatalf("catalogue size = %d", len(svc.Catalogue()))
	}
}

func TestGenerationRequestRoundTrip(t *testing.T) {
	svc, _, pub := newService(t, nil)
	ctx := context.Background()

	if err := svc.RequestGeneration(ctx, "admin-1"); err != nil {
		t.Fatalf("request: %v", err)
	}
	sent := pub.bodies[contracts.RouteBucketPrefix+"manual"]
	if len(sent) != 1 {
		t.Fatalf("requests published = %d", len(sent))
	}

	var req contracts.BucketGenerateRequest
	if err := json.Unmarshal(sent[0], &req); err != nil || req.RequestedBy != "admin-1" {
		t.Fatalf("request body: %+v, %v", req, err)
	}

	consumer := &fakeConsumer{bodies: [][]byte{sent[0], []byte("not json")}}
	worker, store, _ := newService(t, consumer)
	if err := worker.RunRequestConsumer(ctx, 1); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if consumer.queue != contracts.QueueBucketRequests {
		t.Fatalf("queue = %q", consumer.queue)
	}
	if consumer.errs[0] != nil || consumer.errs[1] == nil {
		t.Fatalf("handler errors = %v", consumer.errs)
	}
	rides, _ := store.Rides().ListByBucketAndDate(ctx, "cmbt-busstand", "2030-03-10")
	if len(rides) != 6 {
		t.Fatalf("cmbt rides = %d", len(rides))
	}
}

func TestRunRequestConsumerNeedsBroker(t *testing.T) {
	svc, _, _ := newService(t, nil)
	if err := svc.RunRequestConsumer(context.Background(), 1); !errors.Is(err, ErrNoConsumer) {
		t.Fatalf("err = %v", err)
	}
}
