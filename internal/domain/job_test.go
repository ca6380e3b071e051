package domain

import (
	"testing"
	"time"
)

// helper: build a local time in the given tz
func mustLocal(t *testing.T, tz string, y int, m time.Month, d, hh, mm int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return time.Date(y, m, d, hh, mm, 0, 0, loc)
}

func TestDueAt_DailyRule(t *testing.T) {
	def := JobDefinition{Type: DailyWeather, Hour: 8, Minute: 0}

	at := mustLocal(t, "Asia/Taipei", 2025, time.August, 26, 8, 0)
	if !def.DueAt(at) {
		t.Fatalf("expected due at 08:00")
	}
	if def.DueAt(at.Add(time.Minute)) {
		t.Fatalf("not due at 08:01")
	}
	if def.DueAt(at.Add(-8 * time.Hour)) {
		t.Fatalf("not due at midnight")
	}
}

func TestDueAt_WeekdayFilter(t *testing.T) {
	def := JobDefinition{Type: WeekendForecast, Hour: 19, Minute: 0, Days: []time.Weekday{time.Friday}}

	// 2025-08-29 is a Friday.
	friday := mustLocal(t, "Asia/Taipei", 2025, time.August, 29, 19, 0)
	if !def.DueAt(friday) {
		t.Fatalf("expected due Friday 19:00")
	}
	if def.DueAt(friday.Add(24 * time.Hour)) {
		t.Fatalf("not due Saturday 19:00")
	}
}

func TestDueAt_ConditionalRuleMatchesEveryHour(t *testing.T) {
	def := JobDefinition{Type: TyphoonWatch, Minute: 0, Conditional: true}

	for hour := 0; hour < 24; hour++ {
		at := mustLocal(t, "Asia/Taipei", 2025, time.August, 26, hour, 0)
		if !def.DueAt(at) {
			t.Fatalf("expected due at %02d:00", hour)
		}
	}
	if def.DueAt(mustLocal(t, "Asia/Taipei", 2025, time.August, 26, 9, 30)) {
		t.Fatalf("not due at half past")
	}
}

func TestJobTypeValid(t *testing.T) {
	for _, jt := range AllJobTypes() {
		if !jt.Valid() {
			t.Fatalf("%s should be valid", jt)
		}
	}
	if JobType("moon_phase").Valid() {
		t.Fatalf("unknown type should be invalid")
	}
}
