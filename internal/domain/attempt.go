package domain

import (
	"encoding/json"
	"time"
)

// Outcome is the resolved state of one delivery attempt.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeDelivered Outcome = "delivered"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// DeliveryAttempt is the unit of work processed for one subscriber in
// one firing. Attempts are not persisted; the dedup key is what survives
// a restart.
type DeliveryAttempt struct {
	SubscriberID string
	Job          JobType
	TriggerAt    time.Time
	// Attempts counts gateway send tries; zero if no send was made.
	Attempts int
	Outcome  Outcome
	Reason   string
}

// Payload is an opaque renderable unit produced by the content provider.
// The delivery core forwards the raw messages without interpreting them.
type Payload struct {
	Messages []json.RawMessage
}
