package domain

import "time"

// JobType identifies one of the recurring push notification kinds.
type JobType string

const (
	DailyWeather      JobType = "daily_weather"
	WeekendForecast   JobType = "weekend_forecast"
	TyphoonWatch      JobType = "typhoon_watch"
	SolarTermReminder JobType = "solar_terms"
)

// AllJobTypes returns the closed set of job types, in delivery-table order.
func AllJobTypes() []JobType {
	return []JobType{DailyWeather, WeekendForecast, TyphoonWatch, SolarTermReminder}
}

// Valid reports whether t is one of the known job types.
func (t JobType) Valid() bool {
	switch t {
	case DailyWeather, WeekendForecast, TyphoonWatch, SolarTermReminder:
		return true
	}
	return false
}

// JobDefinition is a recurring trigger specification. Definitions are
// static: loaded once at startup, never mutated at runtime.
type JobDefinition struct {
	Type   JobType
	Hour   int
	Minute int
	// Days restricts firing to the listed weekdays (empty = every day).
	// Evaluated against the configured timezone's calendar date.
	Days []time.Weekday
	// Conditional jobs match every hour at Minute and are only dispatched
	// when the advisory predicate reports an active advisory.
	Conditional bool
}

// DueAt reports whether the definition's trigger rule matches local,
// which must already be in the configured timezone and truncated to the
// minute.
func (d JobDefinition) DueAt(local time.Time) bool {
	if len(d.Days) > 0 {
		match := false
		for _, day := range d.Days {
			if local.Weekday() == day {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	if d.Conditional {
		return local.Minute() == d.Minute
	}
	return local.Hour() == d.Hour && local.Minute() == d.Minute
}

// DefaultJobs is the production trigger table: daily weather at 08:00,
// solar-term reminder at 07:30, weekend forecast Friday 19:00 and an
// hourly typhoon advisory check.
func DefaultJobs() []JobDefinition {
	return []JobDefinition{
		{Type: DailyWeather, Hour: 8, Minute: 0},
		{Type: SolarTermReminder, Hour: 7, Minute: 30},
		{Type: WeekendForecast, Hour: 19, Minute: 0, Days: []time.Weekday{time.Friday}},
		{Type: TyphoonWatch, Minute: 0, Conditional: true},
	}
}

// Firing is a single trigger event: a job that became due at a concrete
// logical time. AdvisoryID is set for condition-driven jobs so a new
// advisory within the same window forms a distinct dedup key.
type Firing struct {
	Job        JobType
	TriggerAt  time.Time
	AdvisoryID string
}
