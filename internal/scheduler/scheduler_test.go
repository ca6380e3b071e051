package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/domain"
)

type fakeAdvisories struct {
	active bool
	id     string
	err    error
	calls  int
}

func (f *fakeAdvisories) ActiveAdvisory(context.Context) (bool, string, error) {
	f.calls++
	return f.active, f.id, f.err
}

type captureDispatcher struct{ firings []domain.Firing }

func (c *captureDispatcher) Dispatch(_ context.Context, f domain.Firing) {
	c.firings = append(c.firings, f)
}

func taipei(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return loc
}

func newTestScheduler(t *testing.T, adv *fakeAdvisories) *Scheduler {
	t.Helper()
	return New(Options{
		Jobs:       domain.DefaultJobs(),
		Location:   taipei(t),
		Advisories: adv,
		Dispatcher: &captureDispatcher{},
	})
}

func TestTickFiresDailyJobOnce(t *testing.T) {
	s := newTestScheduler(t, &fakeAdvisories{})
	loc := taipei(t)

	// 08:00 Taipei on a Tuesday: only the daily weather job is due.
	now := time.Date(2025, time.August, 26, 8, 0, 12, 0, loc)
	firings := s.Tick(context.Background(), now)
	if len(firings) != 1 || firings[0].Job != domain.DailyWeather {
		t.Fatalf("want one daily_weather firing, got %+v", firings)
	}
	want := time.Date(2025, time.August, 26, 8, 0, 0, 0, loc)
	if !firings[0].TriggerAt.Equal(want) {
		t.Fatalf("trigger not truncated to minute: %v", firings[0].TriggerAt)
	}
}

func TestTickIdempotentWithinMinute(t *testing.T) {
	s := newTestScheduler(t, &fakeAdvisories{})
	loc := taipei(t)

	first := s.Tick(context.Background(), time.Date(2025, time.August, 26, 8, 0, 5, 0, loc))
	second := s.Tick(context.Background(), time.Date(2025, time.August, 26, 8, 0, 45, 0, loc))
	if len(first) != 1 {
		t.Fatalf("want one firing on first tick, got %+v", first)
	}
	if len(second) != 0 {
		t.Fatalf("second tick in same minute fired again: %+v", second)
	}
}

func TestTickWeekendJobUsesConfiguredCalendar(t *testing.T) {
	s := newTestScheduler(t, &fakeAdvisories{})
	loc := taipei(t)

	// 2025-08-29 is a Friday in Taipei.
	friday := s.Tick(context.Background(), time.Date(2025, time.August, 29, 19, 0, 0, 0, loc))
	if len(friday) != 1 || friday[0].Job != domain.WeekendForecast {
		t.Fatalf("want weekend_forecast on Friday 19:00, got %+v", friday)
	}

	saturday := s.Tick(context.Background(), time.Date(2025, time.August, 30, 19, 0, 0, 0, loc))
	if len(saturday) != 0 {
		t.Fatalf("weekend_forecast fired on Saturday: %+v", saturday)
	}
}

func TestTickNoAdvisoryMeansNoTyphoonFiring(t *testing.T) {
	adv := &fakeAdvisories{active: false}
	s := newTestScheduler(t, adv)
	loc := taipei(t)

	firings := s.Tick(context.Background(), time.Date(2025, time.August, 26, 14, 0, 0, 0, loc))
	if len(firings) != 0 {
		t.Fatalf("want zero firings without advisory, got %+v", firings)
	}
	if adv.calls != 1 {
		t.Fatalf("predicate should be consulted once, got %d", adv.calls)
	}
}

func TestTickActiveAdvisoryFiresWithID(t *testing.T) {
	s := newTestScheduler(t, &fakeAdvisories{active: true, id: "TD2507"})
	loc := taipei(t)

	firings := s.Tick(context.Background(), time.Date(2025, time.August, 26, 14, 0, 0, 0, loc))
	if len(firings) != 1 || firings[0].Job != domain.TyphoonWatch {
		t.Fatalf("want typhoon_watch firing, got %+v", firings)
	}
	if firings[0].AdvisoryID != "TD2507" {
		t.Fatalf("advisory id missing: %+v", firings[0])
	}
}

func TestPredicateErrorDefersToNextTick(t *testing.T) {
	adv := &fakeAdvisories{active: true, id: "TD2507", err: errors.New("cwa down")}
	s := newTestScheduler(t, adv)
	loc := taipei(t)

	due := time.Date(2025, time.August, 26, 14, 0, 0, 0, loc)
	if firings := s.Tick(context.Background(), due); len(firings) != 0 {
		t.Fatalf("errored predicate should not fire: %+v", firings)
	}

	// Endpoint recovers; next tick resolves the pending trigger with the
	// original trigger timestamp.
	adv.err = nil
	next := s.Tick(context.Background(), due.Add(time.Minute))
	if len(next) != 1 || next[0].Job != domain.TyphoonWatch {
		t.Fatalf("want deferred typhoon firing, got %+v", next)
	}
	if !next[0].TriggerAt.Equal(due.Truncate(time.Minute)) {
		t.Fatalf("deferred firing lost its trigger time: %v", next[0].TriggerAt)
	}
}
