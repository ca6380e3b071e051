package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// jobColumn maps a job type to its settings column. Validating here
// keeps the column name out of caller-controlled input.
func jobColumn(job domain.JobType) (string, error) {
	switch job {
	case domain.DailyWeather:
		return "daily_weather", nil
	case domain.WeekendForecast:
		return "weekend_forecast", nil
	case domain.TyphoonWatch:
		return "typhoon_watch", nil
	case domain.SolarTermReminder:
		return "solar_terms", nil
	}
	return "", fmt.Errorf("unknown job type %q", job)
}

const subscriberColumns = `user_id, city, daily_weather, weekend_forecast, typhoon_watch, solar_terms, created_at`

// Upsert inserts or updates a subscriber's settings.
func (r *SQLiteRepo) Upsert(ctx context.Context, s *domain.Subscriber) error {
	if s == nil {
		return errors.New("nil subscriber")
	}

	created := s.CreatedAt.UTC().Unix()
	if s.CreatedAt.IsZero() {
		created = time.Now().UTC().Unix()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscribers (
			user_id, city, daily_weather, weekend_forecast,
			typhoon_watch, solar_terms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			city             = excluded.city,
			daily_weather    = excluded.daily_weather,
			weekend_forecast = excluded.weekend_forecast,
			typhoon_watch    = excluded.typhoon_watch,
			solar_terms      = excluded.solar_terms`,
		s.ID, s.City,
		boolToInt(s.Enabled[domain.DailyWeather]),
		boolToInt(s.Enabled[domain.WeekendForecast]),
		boolToInt(s.Enabled[domain.TyphoonWatch]),
		boolToInt(s.Enabled[domain.SolarTermReminder]),
		created,
	)
	return err
}

// Get returns a subscriber by id or ErrNotFound.
func (r *SQLiteRepo) Get(ctx context.Context, id string) (*domain.Subscriber, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE user_id = ?`,
		id,
	)
	s, err := scanSubscriber(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, err
}

// EligibleSubscribers returns every subscriber with the given job enabled.
func (r *SQLiteRepo) EligibleSubscribers(ctx context.Context, job domain.JobType) ([]domain.Subscriber, error) {
	col, err := jobColumn(job)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE `+col+` = 1
		ORDER BY user_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// SetEnabled toggles one job flag for a subscriber.
func (r *SQLiteRepo) SetEnabled(ctx context.Context, id string, job domain.JobType, enabled bool) error {
	col, err := jobColumn(job)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE subscribers
		SET `+col+` = ?
		WHERE user_id = ?`,
		boolToInt(enabled), id,
	)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// SetCity updates a subscriber's preferred city.
func (r *SQLiteRepo) SetCity(ctx context.Context, id, city string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscribers
		SET city = ?
		WHERE user_id = ?`,
		city, id,
	)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(row rowScanner) (*domain.Subscriber, error) {
	var (
		id        string
		city      string
		daily     int
		weekend   int
		typhoon   int
		solar     int
		createdAt int64
	)
	if err := row.Scan(&id, &city, &daily, &weekend, &typhoon, &solar, &createdAt); err != nil {
		return nil, err
	}
	return &domain.Subscriber{
		ID:   id,
		City: city,
		Enabled: map[domain.JobType]bool{
			domain.DailyWeather:      daily != 0,
			domain.WeekendForecast:   weekend != 0,
			domain.TyphoonWatch:      typhoon != 0,
			domain.SolarTermReminder: solar != 0,
		},
		CreatedAt: time.Unix(createdAt, 0).UTC(),
	}, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
