// Package content produces ready-to-send notification payloads from the
// Central Weather Administration open-data platform.
package content

import (
	"context"
	"errors"

	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/domain"
)

// ErrNoContent means there is nothing to push for this trigger: today is
// not a solar-term day, or no typhoon advisory is active. It is
// permanent for the current firing and must not be retried.
var ErrNoContent = errors.New("no content for this trigger")

// Provider supplies notification payloads and the typhoon advisory
// predicate the scheduler consults for condition-driven jobs.
type Provider interface {
	Fetch(ctx context.Context, job domain.JobType, city string) (domain.Payload, error)
	// ActiveAdvisory reports whether a typhoon advisory is in effect and
	// returns its identifier when it is.
	ActiveAdvisory(ctx context.Context) (bool, string, error)
}
