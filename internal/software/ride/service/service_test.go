package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"rydin/internal/domain/ride"
	"rydin/internal/domain/user"
	"rydin/internal/general/logger"
	"rydin/internal/general/memstore"
	"rydin/internal/ports"
)

const testDate = "2030-01-15"

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	fail bool
}

func (p *recordingPublisher) Publish(exchange, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range p.keys {
		if k == key {
			return true
		}
	}
	return false
}

type fixture struct {
	store *memstore.Store
	pub   *recordingPublisher
	svc   *rideService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	pub := &recordingPublisher{}
	svc := NewRideService(logger.Discard(), store.UnitOfWork(), Repositories{
		Rides:   store.Rides(),
		Members: store.Members(),
		Users:   store.Users(),
		Events:  store.Events(),
		Shares:  store.Shares(),
	}, pub, time.UTC).(*rideService)
	return &fixture{store: store, pub: pub, svc: svc}
}

func (f *fixture) addUser(t *testing.T, name string, gender user.Gender, edit ...func(*user.User)) string {
	t.Helper()
	u, err := user.NewUser(strings.ToLower(name)+"@srmist.edu.in", name, gender, user.RoleStudent)
	if err != nil {
		t.Fatalf("new user: %v", err)
	}
	for _, fn := range edit {
		fn(u)
	}
	if err := f.store.Users().CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func (f *fixture) createRide(t *testing.T, hostID string, seats int, girlsOnly bool) ports.RideView {
	t.Helper()
	v, err := f.svc.CreateRide(context.Background(), ports.CreateRideInput{
		HostID:        hostID,
		Source:        "SRM Campus",
		Destination:   "Chennai Airport (MAA)",
		Date:          testDate,
		Time:          "08:00",
		SeatsTotal:    seats,
		EstimatedFare: 1200,
		GirlsOnly:     girlsOnly,
	})
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}
	return v
}

func TestCreateRideValidates(t *testing.T) {
	f := newFixture(t)
	host := f.addUser(t, "Host", user.GenderMale)

	cases := []struct {
		name string
		in   ports.CreateRideInput
		want error
	}{
		{"no seats", ports.CreateRideInput{HostID: host, Source: "A", Destination: "B", Date: testDate, Time: "08:00", EstimatedFare: 10}, ride.ErrInvalidSeats},
		{"no fare", ports.CreateRideInput{HostID: host, Source: "A", Destination: "B", Date: testDate, Time: "08:00", SeatsTotal: 2}, ride.ErrInvalidFare},
		{"bad date", ports.CreateRideInput{HostID: host, Source: "A", Destination: "B", Date: "15/01/2030", Time: "08:00", SeatsTotal: 2, EstimatedFare: 10}, ride.ErrInvalidDate},
		{"unknown host", ports.CreateRideInput{HostID: "ghost", Source: "A", Destination: "B", Date: testDate, Time: "08:00", SeatsTotal: 2, EstimatedFare: 10}, user.ErrUserNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.CreateRide(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	v := f.createRide(t, host, 3, false)
	if v.Status != "open" || v.SeatsTaken != 0 || v.FarePerPerson != 1200 {
		t.Fatalf("unexpected new ride: %+v", v)
	}
	if !f.pub.has("ride.status.open") {
		t.Fatal("expected ride.status.open to be published")
	}
}

func TestJoinRideFillsThenRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.addUser(t, "Host", user.GenderMale)
	a := f.addUser(t, "Asha", user.GenderFemale)
	b := f.addUser(t, "Bala", user.GenderMale)
	c := f.addUser(t, "Chitra", user.GenderFemale)
	r := f.createRide(t, host, 2, false)

	res, err := f.svc.JoinRide(ctx, r.RideID, a)
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	if res.Ride.SeatsTaken != 1 || res.Ride.Status != "open" || res.Ride.FarePerPerson != 600 {
		t.Fatalf("after first join: %+v", res.Ride)
	}

	res, err = f.svc.JoinRide(ctx, r.RideID, b)
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if res.Ride.SeatsTaken != 2 || res.Ride.Status != "full" {
		t.Fatalf("after second join: %+v", res.Ride)
	}

	if _, err := f.svc.JoinRide(ctx, r.RideID, c); !errors.Is(err, ride.ErrRideFull) {
		t.Fatalf("third join err = %v, want ErrRideFull", err)
	}
	if _, err := f.svc.JoinRide(ctx, r.RideID, a); !errors.Is(err, ride.ErrRideFull) {
		t.Fatalf("full ride is checked before membership, got %v", err)
	}
	if !f.pub.has("ride.member.joined") || !f.pub.has("ride.status.full") {
		t.Fatalf("missing publications: %v", f.pub.keys)
	}
}

func TestJoinRideLastSeatHasOneWinner(t *testing.T) {
	f := newFixture(t)
	host := f.addUser(t, "Host", user.GenderMale)
	r := f.createRide(t, host, 1, false)

	const riders = 16
	ids := make([]string, riders)
	for i := range ids {
		ids[i] = f.addUser(t, "Rider"+string(rune('A'+i)), user.GenderFemale)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		full    int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.JoinRide(context.Background(), r.RideID, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, ride.ErrRideFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	if winners != 1 || full != riders-1 {
		t.Fatalf("winners = %d, full = %d", winners, full)
	}
	got, err := f.svc.GetRide(context.Background(), r.RideID)
	if err != nil {
		t.Fatalf("get ride: %v", err)
	}
	if got.SeatsTaken != 1 || got.Status != "full" {
		t.Fatalf("ride after race: %+v", got)
	}
}

func TestJoinRidePreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.addUser(t, "Host", user.GenderFemale)
	him := f.addUser(t, "Dev", user.GenderMale)
	her := f.addUser(t, "Esha", user.GenderFemale)

	t.Run("missing ride", func(t *testing.T) {
		if _, err := f.svc.JoinRide(ctx, "no-such-ride", her); !errors.Is(err, ride.ErrRideUnavailable) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("host", func(t *testing.T) {
		r := f.createRide(t, host, 3, false)
		if _, err := f.svc.JoinRide(ctx, r.RideID, host); !errors.Is(err, ride.ErrAlreadyJoined) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("twice", func(t *testing.T) {
		r := f.createRide(t, host, 3, false)
		if _, err := f.svc.JoinRide(ctx, r.RideID, her); err != nil {
			t.Fatalf("join: %v", err)
		}
		if _, err := f.svc.JoinRide(ctx, r.RideID, her); !errors.Is(err, ride.ErrAlreadyJoined) {
			t.Fatalf("err = %v", err)
		}
		got, _ := f.svc.GetRide(ctx, r.RideID)
		if got.SeatsTaken != 1 {
			t.Fatalf("seats taken = %d", got.SeatsTaken)
		}
	})

	t.Run("girls only", func(t *testing.T) {
		r := f.createRide(t, host, 3, true)
		if _, err := f.svc.JoinRide(ctx, r.RideID, him); !errors.Is(err, ride.ErrEligibilityMismatch) {
			t.Fatalf("err = %v", err)
		}
		if _, err := f.svc.JoinRide(ctx, r.RideID, her); err != nil {
			t.Fatalf("eligible join: %v", err)
		}
	})

	t.Run("locked before full", func(t *testing.T) {
		r := f.createRide(t, host, 1, false)
		if _, err := f.svc.JoinRide(ctx, r.RideID, her); err != nil {
			t.Fatalf("join: %v", err)
		}
		if _, err := f.svc.LockRide(ctx, r.RideID, host); err != nil {
			t.Fatalf("lock: %v", err)
		}
		if _, err := f.svc.JoinRide(ctx, r.RideID, him); !errors.Is(err, ride.ErrRideLocked) {
			t.Fatalf("err = %v, want ErrRideLocked", err)
		}
	})
}

func TestJoinRideReliabilityRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.addUser(t, "Host", user.GenderMale)

	restricted := f.addUser(t, "Restricted", user.GenderMale, func(u *user.User) {
		u.NoShowCount = 3
		u.ReliabilityScore = 40
	})
	r := f.createRide(t, host, 4, false)
	if _, err := f.svc.JoinRide(ctx, r.RideID, restricted); !errors.Is(err, ride.ErrJoinRestricted) {
		t.Fatalf("restricted join err = %v", err)
	}

	capped := f.addUser(t, "Capped", user.GenderMale, func(u *user.User) {
		u.NoShowCount = 2
		u.ReliabilityScore = 70
	})
	first := f.createRide(t, host, 4, false)
	second := f.createRide(t, host, 4, false)
	third := f.createRide(t, host, 4, false)

	if _, err := f.svc.JoinRide(ctx, first.RideID, capped); err != nil {
		t.Fatalf("first capped join: %v", err)
	}
	if _, err := f.svc.JoinRide(ctx, second.RideID, capped); err != nil {
		t.Fatalf("second capped join: %v", err)
	}

	// leaving does not hand back a join for the day
	if _, err := f.svc.LeaveRide(ctx, second.RideID, capped); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, err := f.svc.JoinRide(ctx, third.RideID, capped); !errors.Is(err, ride.ErrJoinRestricted) {
		t.Fatalf("third capped join err = %v", err)
	}
}

func TestLeaveRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.addUser(t, "Host", user.GenderMale)
	a := f.addUser(t, "Asha", user.GenderFemale)
	r := f.createRide(t, host, 1, false)

	if _, err := f.svc.LeaveRide(ctx, r.RideID, a); !errors.Is(err, ride.ErrNotMember) {
		t.Fatalf("non-member leave err = %v", err)
	}
	if _, err := f.svc.JoinRide(ctx, r.RideID, a); err != nil {
		t.Fatalf("join: %v", err)
	}
	v, err := f.svc.LeaveRide(ctx, r.RideID, a)
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if v.Status != "open" || v.SeatsTaken != 0 {
		t.Fatalf("after leave: %+v", v)
	}
}

func TestLockLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.addUser(t, "Host", user.GenderMale)
	a := f.addUser(t, "Asha", user.GenderFemale, func(u *user.User) { u.TrustScore = 1.5 })
	r := f.createRide(t, host, 3, false)

	if _, err := f.svc.JoinRide(ctx, r.RideID, a); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.svc.LockRide(ctx, r.RideID, a); !errors.Is(err, ride.ErrNotHost) {
		t.Fatalf("member lock err = %v", err)
	}

	locked, err := f.svc.LockRide(ctx, r.RideID, host)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if locked.Status != "locked" || locked.LockedAt == nil {
		t.Fatalf("after lock: %+v", locked)
	}
	if _, err := f.svc.LockRide(ctx, r.RideID, host); !errors.Is(err, ride.ErrInvalidStatusTransition) {
		t.Fatalf("relock err = %v", err)
	}
	if _, err := f.svc.LeaveRide(ctx, r.RideID, a); !errors.Is(err, ride.ErrRideLocked) {
		t.Fatalf("leave locked err = %v", err)
	}
	if _, err := f.svc.UnlockRide(ctx, r.RideID, host); !errors.Is(err, ride.ErrRideHasMembers) {
		t.Fatalf("unlock with members err = %v", err)
	}

	// acknowledge twice keeps the first timestamp
	first, err := f.svc.AcknowledgeCommitment(ctx, r.RideID, a)
	if err != nil {
		t.Fatalf("ack: %v", err)
	}
	second, err := f.svc.AcknowledgeCommitment(ctx, r.RideID, a)
	if err != nil {
		t.Fatalf("second ack: %v", err)
	}
	if !second.CommitmentAcknowledged || !first.AcknowledgedAt.Equal(*second.AcknowledgedAt) {
		t.Fatalf("ack not idempotent: %+v vs %+v", first, second)
	}
	if _, err := f.svc.AcknowledgeCommitment(ctx, r.RideID, host); !errors.Is(err, ride.ErrNotMember) {
		t.Fatalf("host ack err = %v", err)
	}

	// backing out costs trust, floored at zero, and the ride stays locked
	res, err := f.svc.CancelAfterLock(ctx, r.RideID, a)
	if err != nil {
		t.Fatalf("cancel after lock: %v", err)
	}
	if res.NewTrustScore != 0 || res.TrustPenalty != 2 {
		t.Fatalf("trust after cancel: %+v", res)
	}
	if res.Ride.Status != "locked" || res.Ride.SeatsTaken != 0 {
		t.Fatalf("ride after cancel: %+v", res.Ride)
	}

	unlocked, err := f.svc.UnlockRide(ctx, r.RideID, host)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if unlocked.Status != "open" || unlocked.LockedAt != nil {
		t.Fatalf("after unlock: %+v", unlocked)
	}

	var types []ride.EventType
	for _, e := range f.store.EventsFor(r.RideID) {
		types = append(types, e.Type)
	}
	want := []ride.EventType{
		ride.EventRideCreated, ride.EventMemberJoined, ride.EventRideLocked,
		ride.EventCommitmentAcknowledged, ride.EventCancelledAfterLock, ride.EventRideUnlocked,
	}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("events = %v, want %v", types, want)
		}
	}
}

func TestCancelAfterLockDefaultTrust(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.addUser(t, "Host", user.GenderMale)
	a := f.addUser(t, "Asha", user.GenderFemale)
	r := f.createRide(t, host, 2, false)

	if _, err := f.svc.CancelAfterLock(ctx, r.RideID, a); !errors.Is(err, ride.ErrRideNotLocked) {
		t.Fatalf("open ride err = %v", err)
	}
	if _, err := f.svc.JoinRide(ctx, r.RideID, a); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.svc.LockRide(ctx, r.RideID, host); err != nil {
		t.Fatalf("lock: %v", err)
	}
	res, err := f.svc.CancelAfterLock(ctx, r.RideID, a)
	if err != nil {
		t.Fatalf("cancel after lock: %v", err)
	}
	if res.NewTrustScore != user.DefaultTrustScore-2 {
		t.Fatalf("trust = %v", res.NewTrustScore)
	}
}

func TestCompleteAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.addUser(t, "Host", user.GenderMale)
	a := f.addUser(t, "Asha", user.GenderFemale)
	r := f.createRide(t, host, 2, false)

	if _, err := f.svc.JoinRide(ctx, r.RideID, a); err != nil {
		t.Fatalf("join: %v", err)
	}
	done, err := f.svc.CompleteRide(ctx, r.RideID, host)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != "completed" {
		t.Fatalf("status = %s", done.Status)
	}
	for _, id := range []string{host, a} {
		u, _ := f.store.Users().GetByID(ctx, id)
		if u.CompletedRides != 1 {
			t.Fatalf("user %s completed rides = %d", id, u.CompletedRides)
		}
	}

	// terminal rides are immutable
	if _, err := f.svc.CancelRide(ctx, r.RideID, host); !errors.Is(err, ride.ErrInvalidStatusTransition) {
		t.Fatalf("cancel completed err = %v", err)
	}
	if _, err := f.svc.LockRide(ctx, r.RideID, host); !errors.Is(err, ride.ErrRideUnavailable) {
		t.Fatalf("lock completed err = %v", err)
	}
	b := f.addUser(t, "Bala", user.GenderMale)
	if _, err := f.svc.JoinRide(ctx, r.RideID, b); !errors.Is(err, ride.ErrRideUnavailable) {
		t.Fatalf("join completed err = %v", err)
	}

	other := f.createRide(t, host, 2, false)
	cancelled, err := f.svc.CancelRide(ctx, other.RideID, host)
	if err != nil || cancelled.Status != "cancelled" {
		t.Fatalf("cancel: %+v, %v", cancelled, err)
	}
}

func TestSearchRidesRanksByScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.addUser(t, "Host", user.GenderMale)

	create := func(dest, at string) ports.RideView {
		v, err := f.svc.CreateRide(ctx, ports.CreateRideInput{
			HostID: host, Source: "SRM Campus", Destination: dest,
			Date: testDate, Time: at, SeatsTotal: 3, EstimatedFare: 900,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return v
	}
	near := create("Chennai Central Station", "09:00")
	far := create("Chennai Central Station", "10:30")
	create("Chennai Central Station", "13:00")
	create("Tambaram Railway Station", "09:00")

	hits, err := f.svc.SearchRides(ctx, ports.SearchInput{
		Source:             " srm campus ",
		Destination:        "CHENNAI CENTRAL STATION",
		Date:               testDate,
		DepartureTime:      "09:10",
		FlexibilityMinutes: 30,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].Ride.RideID != near.RideID || hits[1].Ride.RideID != far.RideID {
		t.Fatalf("unexpected ranking: %+v", hits)
	}
	if hits[0].MatchReason != "Railway travel" {
		t.Fatalf("reason = %q", hits[0].MatchReason)
	}

	if _, err := f.svc.SearchRides(ctx, ports.SearchInput{Date: testDate, DepartureTime: "9am"}); !errors.Is(err, ride.ErrInvalidTime) {
		t.Fatalf("bad time err = %v", err)
	}
}

func TestShareWithParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.addUser(t, "Host", user.GenderFemale)
	a := f.addUser(t, "Asha", user.GenderFemale)
	stranger := f.addUser(t, "Stranger", user.GenderMale)
	r := f.createRide(t, host, 3, true)

	if _, err := f.svc.JoinRide(ctx, r.RideID, a); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.svc.RideSummary(ctx, r.RideID, stranger); !errors.Is(err, ride.ErrNotParticipant) {
		t.Fatalf("stranger summary err = %v", err)
	}
	if _, err := f.svc.ShareWithParent(ctx, r.RideID, a); !errors.Is(err, user.ErrNoEmergencyContact) {
		t.Fatalf("no contact err = %v", err)
	}

	name, phone := "Amma", "+91 90000 00000"
	if _, err := f.store.Users().UpdateProfile(ctx, a, user.ProfilePatch{
		EmergencyContactName:  &name,
		EmergencyContactPhone: &phone,
	}); err != nil {
		t.Fatalf("update profile: %v", err)
	}

	res, err := f.svc.ShareWithParent(ctx, r.RideID, a)
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if res.ContactPhone != phone || len(res.Summary.Passengers) != 2 {
		t.Fatalf("share result: %+v", res)
	}
	if !strings.Contains(res.Message, "Girls-only ride") || !strings.Contains(res.Message, "Fare per person: Rs 600.00") {
		t.Fatalf("message:\n%s", res.Message)
	}
	if f.store.ShareCount(r.RideID) != 1 {
		t.Fatalf("share count = %d", f.store.ShareCount(r.RideID))
	}
}

func TestShareHistoryNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	withContact := func(u *user.User) {
		u.EmergencyContactName = "Appa"
		u.EmergencyContactPhone = "+91 90000 00001"
	}
	host := f.addUser(t, "Host", user.GenderMale, withContact)
	other := f.addUser(t, "Other", user.GenderMale)

	clock := time.Date(2030, 1, 14, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	airport := f.createRide(t, host, 3, false)
	station, err := f.svc.CreateRide(ctx, ports.CreateRideInput{
		HostID:        host,
		Source:        "SRM Campus",
		Destination:   "Chennai Central",
		Date:          testDate,
		Time:          "18:30",
		SeatsTotal:    3,
		EstimatedFare: 600,
	})
	if err != nil {
		t.Fatalf("create second ride: %v", err)
	}

	for i := 0; i < 11; i++ {
		if _, err := f.svc.ShareWithParent(ctx, airport.RideID, host); err != nil {
			t.Fatalf("share %d: %v", i, err)
		}
	}
	if _, err := f.svc.ShareWithParent(ctx, station.RideID, host); err != nil {
		t.Fatalf("share station: %v", err)
	}

	history, err := f.svc.ShareHistory(ctx, host)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != shareHistoryLimit {
		t.Fatalf("history length = %d, want %d", len(history), shareHistoryLimit)
	}
	latest := history[0]
	if latest.RideID != station.RideID || latest.Destination != "Chennai Central" || latest.Time != "18:30" || latest.Date != testDate {
		t.Fatalf("latest share = %+v", latest)
	}
	for i := 1; i < len(history); i++ {
		if history[i].SharedAt.After(history[i-1].SharedAt) {
			t.Fatalf("history not newest first at %d: %v after %v", i, history[i].SharedAt, history[i-1].SharedAt)
		}
		if history[i].RideID != airport.RideID || history[i].Source != "SRM Campus" {
			t.Fatalf("share %d = %+v", i, history[i])
		}
	}

	none, err := f.svc.ShareHistory(ctx, other)
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("other history = %v, %v", none, err)
	}
}

func TestPublishFailureDoesNotFailJoin(t *testing.T) {
	f := newFixture(t)
	host := f.addUser(t, "Host", user.GenderMale)
	a := f.addUser(t, "Asha", user.GenderFemale)
	r := f.createRide(t, host, 2, false)

	f.pub.fail = true
	if _, err := f.svc.JoinRide(context.Background(), r.RideID, a); err != nil {
		t.Fatalf("join with broker down: %v", err)
	}
}

type brokenUnitOfWork struct{}

func (brokenUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return errors.New("connection refused")
}

func TestStoreFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.svc.uow = brokenUnitOfWork{}

	_, err := f.svc.JoinRide(context.Background(), "ride", "user")
	if !errors.Is(err, ports.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}
