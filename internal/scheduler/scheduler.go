package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/domain"
)

// AdvisoryChecker is the predicate condition-driven jobs consult before
// firing. The content provider implements it.
type AdvisoryChecker interface {
	ActiveAdvisory(ctx context.Context) (bool, string, error)
}

// Dispatcher receives firing events. Dispatch must not block: the tick
// loop only detects firings, delivery runs elsewhere.
type Dispatcher interface {
	Dispatch(ctx context.Context, f domain.Firing)
}

// Options holds the scheduler dependencies.
type Options struct {
	Jobs       []domain.JobDefinition
	Location   *time.Location
	Advisories AdvisoryChecker
	Dispatcher Dispatcher
	Interval   time.Duration
	Logger     *zap.Logger
}

// Scheduler converts the static job table into firing events at minute
// granularity. Not safe for concurrent use; Run is the only caller in
// production.
type Scheduler struct {
	jobs       []domain.JobDefinition
	loc        *time.Location
	advisories AdvisoryChecker
	dispatcher Dispatcher
	interval   time.Duration
	log        *zap.Logger

	// lastFired dedupes repeated ticks within the same minute.
	lastFired map[domain.JobType]time.Time
	// pending holds condition-driven triggers whose predicate check has
	// not resolved yet (advisory endpoint error); re-checked next tick.
	pending map[domain.JobType]time.Time
}

// New creates a Scheduler. Interval defaults to one minute.
func New(opts Options) *Scheduler {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		jobs:       opts.Jobs,
		loc:        loc,
		advisories: opts.Advisories,
		dispatcher: opts.Dispatcher,
		interval:   interval,
		log:        log,
		lastFired:  make(map[domain.JobType]time.Time),
		pending:    make(map[domain.JobType]time.Time),
	}
}

// Run drives the tick loop until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started",
		zap.Duration("interval", s.interval),
		zap.String("tz", s.loc.String()),
		zap.Int("jobs", len(s.jobs)),
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case now := <-ticker.C:
			for _, f := range s.Tick(ctx, now) {
				s.log.Info("job due",
					zap.String("job", string(f.Job)),
					zap.Time("trigger", f.TriggerAt),
				)
				s.dispatcher.Dispatch(ctx, f)
			}
		}
	}
}

// Tick returns the firings due at now, truncated to the minute in the
// configured timezone. Calling it twice within the same minute produces
// each firing at most once.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) []domain.Firing {
	local := now.In(s.loc).Truncate(time.Minute)

	var firings []domain.Firing
	for _, job := range s.jobs {
		if !job.DueAt(local) || s.lastFired[job.Type].Equal(local) {
			continue
		}
		if job.Conditional {
			if s.pending[job.Type].IsZero() {
				s.pending[job.Type] = local
			}
			continue
		}
		s.lastFired[job.Type] = local
		firings = append(firings, domain.Firing{Job: job.Type, TriggerAt: local})
	}

	return append(firings, s.resolvePending(ctx)...)
}

// resolvePending evaluates the advisory predicate for condition-driven
// triggers. A predicate error keeps the trigger pending so the next
// tick retries the check; it is not a delivery failure.
func (s *Scheduler) resolvePending(ctx context.Context) []domain.Firing {
	var firings []domain.Firing
	for jobType, triggerAt := range s.pending {
		active, advisoryID, err := s.advisories.ActiveAdvisory(ctx)
		if err != nil {
			s.log.Warn("advisory check failed, retrying next tick",
				zap.String("job", string(jobType)),
				zap.Error(err),
			)
			continue
		}
		delete(s.pending, jobType)
		if !active {
			continue
		}
		s.lastFired[jobType] = triggerAt
		firings = append(firings, domain.Firing{
			Job:        jobType,
			TriggerAt:  triggerAt,
			AdvisoryID: advisoryID,
		})
	}
	return firings
}
