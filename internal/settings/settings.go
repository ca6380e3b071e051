// Package settings mutates subscriber notification preferences. It is
// the write side called from conversation handlers; the coordinator
// only reads.
package settings

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/domain"
	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/store"
)

var (
	ErrUnknownJobType = errors.New("settings: unknown job type")
	ErrUnknownCity    = errors.New("settings: unknown city")
)

// counties are the CWA forecast location names. City settings must
// match one exactly or the datastore queries come back empty.
var counties = map[string]struct{}{
	"臺北市": {}, "新北市": {}, "桃園市": {}, "臺中市": {}, "臺南市": {},
	"高雄市": {}, "基隆市": {}, "新竹市": {}, "嘉義市": {}, "新竹縣": {},
	"苗栗縣": {}, "彰化縣": {}, "南投縣": {}, "雲林縣": {}, "嘉義縣": {},
	"屏東縣": {}, "宜蘭縣": {}, "花蓮縣": {}, "臺東縣": {}, "澎湖縣": {},
	"金門縣": {}, "連江縣": {},
}

// ValidCity reports whether city is a recognized forecast location.
func ValidCity(city string) bool {
	_, ok := counties[city]
	return ok
}

// Service applies preference changes, creating the subscriber row on
// first contact.
type Service struct {
	repo        store.Repo
	defaultCity string
	log         *zap.Logger
}

func New(repo store.Repo, defaultCity string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, defaultCity: defaultCity, log: log}
}

// SetEnabled turns one notification type on or off for a subscriber.
// An unknown subscriber is created with the default city first.
func (s *Service) SetEnabled(ctx context.Context, id string, job domain.JobType, enabled bool) error {
	if !job.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownJobType, job)
	}

	err := s.repo.SetEnabled(ctx, id, job, enabled)
	if errors.Is(err, store.ErrNotFound) {
		sub := domain.NewSubscriber(id, s.defaultCity)
		sub.Enabled[job] = enabled
		if err := s.repo.Upsert(ctx, sub); err != nil {
			return fmt.Errorf("create subscriber: %w", err)
		}
		s.log.Info("subscriber created",
			zap.String("user_id", id),
			zap.String("job", string(job)),
			zap.Bool("enabled", enabled))
		return nil
	}
	if err != nil {
		return fmt.Errorf("set enabled: %w", err)
	}

	s.log.Info("setting changed",
		zap.String("user_id", id),
		zap.String("job", string(job)),
		zap.Bool("enabled", enabled))
	return nil
}

// SetCity changes the forecast city for a subscriber. An unknown
// subscriber is created with the requested city and all notifications
// off.
func (s *Service) SetCity(ctx context.Context, id, city string) error {
	if !ValidCity(city) {
		return fmt.Errorf("%w: %q", ErrUnknownCity, city)
	}

	err := s.repo.SetCity(ctx, id, city)
	if errors.Is(err, store.ErrNotFound) {
		if err := s.repo.Upsert(ctx, domain.NewSubscriber(id, city)); err != nil {
			return fmt.Errorf("create subscriber: %w", err)
		}
		s.log.Info("subscriber created", zap.String("user_id", id), zap.String("city", city))
		return nil
	}
	if err != nil {
		return fmt.Errorf("set city: %w", err)
	}

	s.log.Info("city changed", zap.String("user_id", id), zap.String("city", city))
	return nil
}

// Settings returns the current preferences for a subscriber.
func (s *Service) Settings(ctx context.Context, id string) (*domain.Subscriber, error) {
	sub, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
