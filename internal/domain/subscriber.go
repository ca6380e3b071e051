package domain

import "time"

// Subscriber holds per-user push settings.
type Subscriber struct {
	ID        string
	City      string
	Enabled   map[JobType]bool
	CreatedAt time.Time
}

// NewSubscriber returns a subscriber with every job disabled and the
// given default city. First interaction with the bot creates this shape.
func NewSubscriber(id, city string) *Subscriber {
	return &Subscriber{
		ID:      id,
		City:    city,
		Enabled: make(map[JobType]bool, 4),
	}
}

// EnabledFor reports whether the subscriber has job enabled.
func (s *Subscriber) EnabledFor(job JobType) bool {
	return s.Enabled[job]
}
