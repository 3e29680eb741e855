package contracts

// Exchanges
const (
	ExchangeRideTopic = "ride_topic"
)

// Queues
const (
	QueueRideStatus     = "ride_status"
	QueueRideMembers    = "ride_members"
	QueueBucketRequests = "bucket_requests"
)

// Routing patterns
const (
	RouteRideStatusPrefix = "ride.status."     // {status}
	RouteRideMemberPrefix = "ride.member."     // {action}
	RouteBucketPrefix     = "bucket.generate." // {trigger}
)

// Member actions used as routing key suffixes.
const (
	MemberJoined             = "joined"
	MemberLeft               = "left"
	MemberAcknowledged       = "acknowledged"
	MemberCancelledAfterLock = "cancelled_after_lock"
)
