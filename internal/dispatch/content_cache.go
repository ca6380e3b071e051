package dispatch

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/content"
	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/domain"
	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/retry"
)

// contentCache fetches each (job, city) payload once per dispatch and
// shares it across that city's subscribers. Failures are not cached;
// a later subscriber gets a fresh try.
type contentCache struct {
	provider content.Provider
	policy   retry.Policy

	sf  singleflight.Group
	mu  sync.Mutex
	got map[string]domain.Payload
}

func newContentCache(provider content.Provider, policy retry.Policy) *contentCache {
	return &contentCache{
		provider: provider,
		policy:   policy,
		got:      make(map[string]domain.Payload),
	}
}

func (cc *contentCache) fetch(ctx context.Context, job domain.JobType, city string) (domain.Payload, error) {
	key := string(job) + "|" + city

	cc.mu.Lock()
	if p, ok := cc.got[key]; ok {
		cc.mu.Unlock()
		return p, nil
	}
	cc.mu.Unlock()

	v, err, _ := cc.sf.Do(key, func() (any, error) {
		var payload domain.Payload
		_, err := cc.policy.Do(ctx, func(ctx context.Context) error {
			p, err := cc.provider.Fetch(ctx, job, city)
			if err != nil {
				return err
			}
			payload = p
			return nil
		}, func(err error) bool { return !errors.Is(err, content.ErrNoContent) })
		if err != nil {
			return nil, err
		}
		cc.mu.Lock()
		cc.got[key] = payload
		cc.mu.Unlock()
		return payload, nil
	})
	if err != nil {
		return domain.Payload{}, err
	}
	return v.(domain.Payload), nil
}
