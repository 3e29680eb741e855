package contracts

import "time"

// BucketGenerateRequest asks the bucket worker to run the daily generation now.
// Routing key: "bucket.generate.{trigger}" on ExchangeRideTopic.
type BucketGenerateRequest struct {
	RequestedBy string    `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
	Envelope
}
