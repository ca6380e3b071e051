// Package dispatch turns firing events into deliveries: subscriber
// fan-out, content fetch, gateway send with retry, and the dedup record
// that keeps each logical firing delivered at most once.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/content"
	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/dedup"
	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/domain"
	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/gateway"
	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/retry"
	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/store"
)

// Report summarizes one processed firing.
type Report struct {
	Firing    domain.Firing
	Attempts  []domain.DeliveryAttempt
	Delivered int
	Failed    int
	Skipped   int
}

// Options holds the coordinator dependencies and tuning knobs.
type Options struct {
	Store    store.Repo
	Dedup    dedup.Store
	Provider content.Provider
	Gateway  gateway.Gateway
	Logger   *zap.Logger

	// Workers bounds the per-firing fan-out so the push API's rate
	// limits are respected.
	Workers        int
	AttemptTimeout time.Duration
	ContentRetry   retry.Policy
	SendRetry      retry.Policy
}

// Coordinator processes firing events. Dispatch is asynchronous and
// in-flight work is tracked so shutdown can drain it.
type Coordinator struct {
	store    store.Repo
	dedup    dedup.Store
	provider content.Provider
	gateway  gateway.Gateway
	log      *zap.Logger

	workers        int
	attemptTimeout time.Duration
	contentRetry   retry.Policy
	sendRetry      retry.Policy

	inflight sync.WaitGroup
}

// NewCoordinator builds a Coordinator with defaults for any zero-valued
// tuning knob.
func NewCoordinator(opts Options) *Coordinator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 8
	}
	attemptTimeout := opts.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = 30 * time.Second
	}
	contentRetry := opts.ContentRetry
	if contentRetry.MaxAttempts == 0 {
		// Initial try plus two immediate retries with a short fixed
		// delay; stale content is worse than one missed notification.
		contentRetry = retry.Policy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}
	}
	sendRetry := opts.SendRetry
	if sendRetry.MaxAttempts == 0 {
		sendRetry = retry.Policy{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    8 * time.Second,
			Exponential: true,
		}
	}
	return &Coordinator{
		store:          opts.Store,
		dedup:          opts.Dedup,
		provider:       opts.Provider,
		gateway:        opts.Gateway,
		log:            log,
		workers:        workers,
		attemptTimeout: attemptTimeout,
		contentRetry:   contentRetry,
		sendRetry:      sendRetry,
	}
}

// Dispatch processes the firing in the background. The parent context's
// cancelation does not abort in-flight deliveries; Drain waits for them
// and every attempt carries its own deadline.
func (c *Coordinator) Dispatch(ctx context.Context, f domain.Firing) {
	c.inflight.Add(1)
	detached := context.WithoutCancel(ctx)
	go func() {
		defer c.inflight.Done()
		rep, err := c.Run(detached, f)
		if err != nil {
			c.log.Error("dispatch aborted, window missed",
				zap.String("job", string(f.Job)),
				zap.Time("trigger", f.TriggerAt),
				zap.Error(err),
			)
			return
		}
		c.log.Info("dispatch finished",
			zap.String("job", string(f.Job)),
			zap.Time("trigger", f.TriggerAt),
			zap.Int("delivered", rep.Delivered),
			zap.Int("failed", rep.Failed),
			zap.Int("skipped", rep.Skipped),
		)
	}()
}

// Drain waits for in-flight dispatches to finish, up to timeout.
func (c *Coordinator) Drain(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("drain timed out with dispatches in flight")
	}
}

// Run processes one firing synchronously and returns its report. The
// only error is a failed subscriber lookup, which aborts the whole
// batch; per-subscriber failures are isolated in the report.
func (c *Coordinator) Run(ctx context.Context, f domain.Firing) (*Report, error) {
	subs, err := c.store.EligibleSubscribers(ctx, f.Job)
	if err != nil {
		return nil, fmt.Errorf("eligible subscribers for %s: %w", f.Job, err)
	}

	rep := &Report{Firing: f}
	if len(subs) == 0 {
		return rep, nil
	}

	cache := newContentCache(c.provider, c.contentRetry)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, sub := range subs {
		sub := sub
		g.Go(func() error {
			att := c.deliver(gctx, f, sub, cache)
			mu.Lock()
			rep.Attempts = append(rep.Attempts, att)
			switch att.Outcome {
			case domain.OutcomeDelivered:
				rep.Delivered++
			case domain.OutcomeFailed:
				rep.Failed++
			case domain.OutcomeSkipped:
				rep.Skipped++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers record outcomes, they never return errors

	return rep, nil
}

// deliver resolves one (subscriber, firing) attempt.
func (c *Coordinator) deliver(ctx context.Context, f domain.Firing, sub domain.Subscriber, cache *contentCache) domain.DeliveryAttempt {
	att := domain.DeliveryAttempt{
		SubscriberID: sub.ID,
		Job:          f.Job,
		TriggerAt:    f.TriggerAt,
		Outcome:      domain.OutcomePending,
	}
	log := c.log.With(zap.String("subscriber", sub.ID), zap.String("job", string(f.Job)))

	ctx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	key := dedupKey(f, sub.ID)
	seen, err := c.dedup.Seen(ctx, key)
	if err != nil {
		// Proceeding risks a duplicate; skipping risks a silent drop.
		// The final mark still guards the recorded outcome.
		log.Warn("dedup lookup failed, proceeding", zap.Error(err))
	} else if seen {
		att.Outcome = domain.OutcomeSkipped
		att.Reason = "already delivered"
		return att
	}

	// Settings may have changed since the eligibility query; re-read so
	// a subscriber who just disabled the job receives nothing.
	if cur, err := c.store.Get(ctx, sub.ID); err == nil {
		if !cur.EnabledFor(f.Job) {
			att.Outcome = domain.OutcomeSkipped
			att.Reason = "disabled before send"
			return att
		}
		sub = *cur
	} else {
		log.Warn("settings re-check failed, using snapshot", zap.Error(err))
	}

	payload, err := cache.fetch(ctx, f.Job, sub.City)
	if err != nil {
		att.Outcome = domain.OutcomeSkipped
		if errors.Is(err, content.ErrNoContent) {
			att.Reason = "no content"
		} else {
			att.Reason = "content unavailable"
			log.Warn("content fetch exhausted", zap.String("city", sub.City), zap.Error(err))
		}
		return att
	}

	attempts, err := c.sendRetry.Do(ctx, func(ctx context.Context) error {
		return c.gateway.Push(ctx, sub.ID, payload)
	}, func(err error) bool { return !gateway.IsPermanent(err) })
	att.Attempts = attempts
	if err != nil {
		att.Outcome = domain.OutcomeFailed
		att.Reason = err.Error()
		log.Error("push failed", zap.Int("attempts", attempts), zap.Error(err))
		return att
	}

	// Record after the gateway accepted: a crash in between leaves the
	// key unmarked and the firing safe to retry. A rare duplicate send
	// is tolerated, a silent drop is not.
	first, err := c.dedup.MarkIfAbsent(ctx, key)
	if err != nil {
		log.Error("dedup record failed after send", zap.Error(err))
	} else if !first {
		att.Outcome = domain.OutcomeSkipped
		att.Reason = "concurrent delivery recorded first"
		return att
	}

	att.Outcome = domain.OutcomeDelivered
	return att
}

// dedupKey names one logical delivery. Time-driven firings are keyed by
// the (subscriber, job, trigger) triple. Condition-driven firings drop
// the trigger time and key on the advisory id instead: hourly checks
// re-fire while an advisory stays active, and the same advisory must be
// pushed once, not once per hour. A new advisory id forms a new key.
func dedupKey(f domain.Firing, subscriberID string) string {
	if f.AdvisoryID != "" {
		return fmt.Sprintf("push:%s:%s:%s", f.Job, subscriberID, f.AdvisoryID)
	}
	return fmt.Sprintf("push:%s:%d:%s", f.Job, f.TriggerAt.Unix(), subscriberID)
}
