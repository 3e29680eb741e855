package contracts

import "time"

// RideStatusMessage is published by Ride Service whenever status or seat counts change.
// Routing key: "ride.status.{status}" on ExchangeRideTopic.
type RideStatusMessage struct {
	RideID     string    `json:"ride_id"`
	Status     string    `json:"status"` // open|full|locked|completed|cancelled
	SeatsTotal int       `json:"seats_total"`
	SeatsTaken int       `json:"seats_taken"`
	Timestamp  time.Time `json:"timestamp"`
	Envelope
}

// RideMemberMessage is published by Ride Service when membership changes.
// Routing key: "ride.member.{action}" on ExchangeRideTopic.
type RideMemberMessage struct {
	RideID    string    `json:"ride_id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Envelope
}
