package store

import (
	"context"
	"errors"

	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/domain"
)

// ErrNotFound is returned when a subscriber does not exist.
var ErrNotFound = errors.New("subscriber not found")

// Repo defines storage operations for subscribers and their push
// settings. Writes must be visible to the next read (the dispatcher
// re-checks settings right before sending).
type Repo interface {
	Upsert(ctx context.Context, s *domain.Subscriber) error
	Get(ctx context.Context, id string) (*domain.Subscriber, error)
	EligibleSubscribers(ctx context.Context, job domain.JobType) ([]domain.Subscriber, error)
	SetEnabled(ctx context.Context, id string, job domain.JobType, enabled bool) error
	SetCity(ctx context.Context, id, city string) error
	Close() error
}
