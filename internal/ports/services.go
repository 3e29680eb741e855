package ports

import (
	"context"
	"time"

	"rydin/internal/domain/bucket"
	"rydin/internal/domain/reliability"
	"rydin/internal/domain/ride"
	"rydin/internal/domain/user"
)

// ----- DTOs for Ride Service -----

// CreateRideInput is the validated input required to create a ride.
type CreateRideInput struct {
	HostID        string
	Source        string
	Destination   string
	Date          string
	Time          string
	SeatsTotal    int
	EstimatedFare float64
	GirlsOnly     bool
	FlightTrain   string
}

// RideView is the read model of a ride returned by every ride operation.
type RideView struct {
	RideID        string     `json:"ride_id"`
	HostID        string     `json:"host_id"`
	Source        string     `json:"source"`
	Destination   string     `json:"destination"`
	Date          string     `json:"date"`
	Time          string     `json:"time"`
	SeatsTotal    int        `json:"seats_total"`
	SeatsTaken    int        `json:"seats_taken"`
	SeatsLeft     int        `json:"seats_left"`
	Status        string     `json:"status"`
	LockedAt      *time.Time `json:"locked_at,omitempty"`
	EstimatedFare float64    `json:"estimated_fare"`
	FarePerPerson float64    `json:"fare_per_person"`
	Savings       float64    `json:"savings"`
	GirlsOnly     bool       `json:"girls_only"`
	FlightTrain   string     `json:"flight_train,omitempty"`
	BucketID      string     `json:"bucket_id,omitempty"`
	BucketName    string     `json:"bucket_name,omitempty"`
}

// NewRideView builds the read model of r.
func NewRideView(r *ride.Ride) RideView {
	return RideView{
		RideID:        r.ID,
		HostID:        r.HostID,
		Source:        r.Source,
		Destination:   r.Destination,
		Date:          r.Date,
		Time:          r.Time,
		SeatsTotal:    r.SeatsTotal,
		SeatsTaken:    r.SeatsTaken,
		SeatsLeft:     r.SeatsLeft(),
		Status:        r.Status.String(),
		LockedAt:      r.LockedAt,
		EstimatedFare: r.EstimatedFare,
		FarePerPerson: r.FarePerPerson(),
		Savings:       r.Savings(),
		GirlsOnly:     r.GirlsOnly,
		FlightTrain:   r.FlightTrain,
		BucketID:      r.BucketID,
		BucketName:    r.BucketName,
	}
}

// JoinResult is returned by a successful JoinRide.
type JoinResult struct {
	Ride     RideView  `json:"ride"`
	JoinedAt time.Time `json:"joined_at"`
	Message  string    `json:"message"`
}

// MemberView is a ride member with their commitment flag.
type MemberView struct {
	UserID                 string     `json:"user_id"`
	JoinedAt               time.Time  `json:"joined_at"`
	CommitmentAcknowledged bool       `json:"commitment_acknowledged"`
	AcknowledgedAt         *time.Time `json:"acknowledged_at,omitempty"`
	PaymentStatus          string     `json:"payment_status"`
}

// NewMemberView builds the read model of m.
func NewMemberView(m *ride.Member) MemberView {
	return MemberView{
		UserID:                 m.UserID,
		JoinedAt:               m.JoinedAt,
		CommitmentAcknowledged: m.CommitmentAcknowledged,
		AcknowledgedAt:         m.AcknowledgedAt,
		PaymentStatus:          string(m.PaymentStatus),
	}
}

// CancelAfterLockResult reports the trust penalty applied to a member who backed out.
type CancelAfterLockResult struct {
	Ride          RideView `json:"ride"`
	TrustPenalty  float64  `json:"trust_penalty"`
	NewTrustScore float64  `json:"new_trust_score"`
	Message       string   `json:"message"`
}

// SearchInput is a rider's discovery query.
type SearchInput struct {
	Source             string
	Destination        string
	Date               string
	DepartureTime      string
	FlexibilityMinutes int
}

// SearchHit is a ranked ride matching a SearchInput.
type SearchHit struct {
	Ride        RideView `json:"ride"`
	Score       float64  `json:"score"`
	MatchReason string   `json:"match_reason"`
}

// Passenger is one rider listed in a ride summary.
type Passenger struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone,omitempty"`
	TrustScore float64 `json:"trust_score"`
	IsHost     bool    `json:"is_host"`
}

// RideSummary is what a rider can share with a parent or guardian.
type RideSummary struct {
	RideID        string      `json:"ride_id"`
	Source        string      `json:"source"`
	Destination   string      `json:"destination"`
	Date          string      `json:"date"`
	Time          string      `json:"time"`
	EstimatedFare float64     `json:"estimated_fare"`
	FarePerPerson float64     `json:"fare_per_person"`
	GirlsOnly     bool        `json:"girls_only"`
	Passengers    []Passenger `json:"passengers"`
}

// ShareResult is returned after a ride summary was shared with the emergency contact.
type ShareResult struct {
	Summary      RideSummary `json:"summary"`
	Message      string      `json:"message"`
	ContactName  string      `json:"contact_name"`
	ContactPhone string      `json:"contact_phone"`
	SharedAt     time.Time   `json:"shared_at"`
}

// ----- Ride Service Interface -----

// RideService exposes the boundary for the ride service.
type RideService interface {
	CreateRide(ctx context.Context, in CreateRideInput) (RideView, error)
	GetRide(ctx context.Context, rideID string) (RideView, error)
	SearchRides(ctx context.Context, in SearchInput) ([]SearchHit, error)
	JoinRide(ctx context.Context, rideID, userID string) (JoinResult, error)
	LeaveRide(ctx context.Context, rideID, userID string) (RideView, error)
	LockRide(ctx context.Context, rideID, hostID string) (RideView, error)
	UnlockRide(ctx context.Context, rideID, hostID string) (RideView, error)
	AcknowledgeCommitment(ctx context.Context, rideID, userID string) (MemberView, error)
	CancelAfterLock(ctx context.Context, rideID, userID string) (CancelAfterLockResult, error)
	CommittedMembers(ctx context.Context, rideID string) ([]MemberView, error)
	CompleteRide(ctx context.Context, rideID, hostID string) (RideView, error)
	CancelRide(ctx context.Context, rideID, hostID string) (RideView, error)
	RideSummary(ctx context.Context, rideID, userID string) (RideSummary, error)
	ShareWithParent(ctx context.Context, rideID, userID string) (ShareResult, error)
	ShareHistory(ctx context.Context, userID string) ([]ParentShare, error)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- Reliability Service Interface -----

// ReliabilityService records no-shows and derives join permissions.
type ReliabilityService interface {
	RecordNoShow(ctx context.Context, userID string) (reliability.Outcome, error)
	GetUserReliability(ctx context.Context, userID string) (reliability.Metrics, error)
	ClearNoShowCount(ctx context.Context, userID string) error
	ClearEligibleNoShows(ctx context.Context) (int, error)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Bucket Service -----

// BucketRideResult is returned when a bucket slot is ensured.
type BucketRideResult struct {
	Ride    RideView `json:"ride"`
	Created bool     `json:"created"`
}

// DailyBucketsResult summarizes one daily generation run.
type DailyBucketsResult struct {
	Date     string `json:"date"`
	Created  int    `json:"created"`
	Existing int    `json:"existing"`
	Failed   int    `json:"failed"`
}

// ----- Bucket Service Interface -----

// BucketService pre-creates rides on popular routes.
type BucketService interface {
	Catalogue() []bucket.Bucket
	FindMatchingBucket(source, destination string) (bucket.Bucket, bool)
	CreateAutoBucketRide(ctx context.Context, bucketID, slotTime string, girlsOnly bool) (BucketRideResult, error)
	CreateDailyAutoBuckets(ctx context.Context) (DailyBucketsResult, error)
	BucketRidesForDate(ctx context.Context, bucketID, date string) ([]RideView, error)
	RequestGeneration(ctx context.Context, requestedBy string) error
	RunRequestConsumer(ctx context.Context, prefetch int) error
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Profile Service -----

// ProfileView is the profile as shown to its owner.
type ProfileView struct {
	UserID                string  `json:"user_id"`
	Email                 string  `json:"email"`
	Name                  string  `json:"name"`
	Department            string  `json:"department,omitempty"`
	Year                  string  `json:"year,omitempty"`
	Phone                 string  `json:"phone,omitempty"`
	Gender                string  `json:"gender"`
	EmergencyContactName  string  `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string  `json:"emergency_contact_phone,omitempty"`
	TrustScore            float64 `json:"trust_score"`
	ReliabilityScore      int     `json:"reliability_score"`
	NoShowCount           int     `json:"no_show_count"`
	CompletedRides        int     `json:"completed_rides"`
}

// NewProfileView builds the read model of u.
func NewProfileView(u *user.User) ProfileView {
	return ProfileView{
		UserID:                u.ID,
		Email:                 u.Email,
		Name:                  u.Name,
		Department:            u.Department,
		Year:                  u.Year,
		Phone:                 u.Phone,
		Gender:                u.Gender.String(),
		EmergencyContactName:  u.EmergencyContactName,
		EmergencyContactPhone: u.EmergencyContactPhone,
		TrustScore:            u.TrustScore,
		ReliabilityScore:      u.ReliabilityScore,
		NoShowCount:           u.NoShowCount,
		CompletedRides:        u.CompletedRides,
	}
}

// ProfileUpdateResult reports whether the update reached the primary store.
// When Stale is true the values are held in the override tier only.
type ProfileUpdateResult struct {
	Profile *ProfileView      `json:"profile,omitempty"`
	Pending user.ProfilePatch `json:"pending"`
	Stale   bool              `json:"stale"`
}

// ----- Profile Service Interface -----

// ProfileService reads and updates rider profiles.
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (ProfileView, error)
	UpdateProfile(ctx context.Context, userID string, patch user.ProfilePatch) (ProfileUpdateResult, error)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Admin Service -----

// OverviewMetrics are the aggregates shown on the admin dashboard.
type OverviewMetrics struct {
	RidesToday       int            `json:"rides_today"`
	ByStatus         map[string]int `json:"by_status"`
	BucketRidesToday int            `json:"bucket_rides_today"`
	SeatsTaken       int            `json:"seats_taken"`
	SeatsTotal       int            `json:"seats_total"`
	SeatUtilization  float64        `json:"seat_utilization"`
	CappedRiders     int            `json:"capped_riders"`
	RestrictedRiders int            `json:"restricted_riders"`
}

// SystemOverviewResult is the top-level response DTO for GET /admin/overview endpoint.
type SystemOverviewResult struct {
	Timestamp time.Time       `json:"timestamp"`
	Date      string          `json:"date"`
	Metrics   OverviewMetrics `json:"metrics"`
}

// ActiveRidesResult is the top-level response DTO for GET /admin/rides/active endpoint.
type ActiveRidesResult struct {
	Rides      []RideView `json:"rides"`
	TotalCount int        `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
}

// ----- Admin Service Interface -----

// AdminService exposes monitoring operations for campus administrators.
type AdminService interface {
	GetSystemOverview(ctx context.Context) (SystemOverviewResult, error)
	GetActiveRides(ctx context.Context, page, pageSize string) (ActiveRidesResult, error)
}
