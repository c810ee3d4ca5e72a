// Package legacysms reads viewing statistics kept by the legacy streaming
// media service.
package legacysms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

const mediaStatsByDayQuery = `SELECT day, num_hits FROM stats.media_stats_by_day WHERE media_id = $1 ORDER BY day`

// Config describes the legacy statistics database.
type Config struct {
	DSN          string
	MaxOpenConns int
}

// DayStats is the number of views of a media item on one day.
type DayStats struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

// StatsReader queries the legacy statistics database.
type StatsReader struct {
	db *sql.DB
}

// Open connects to the legacy statistics database using the postgres driver.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("legacysms: dsn is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("legacysms: open: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("legacysms: ping: %w", err)
	}
	return db, nil
}

// NewStatsReader wraps an open database handle.
func NewStatsReader(db *sql.DB) *StatsReader {
	if db == nil {
		return nil
	}
	return &StatsReader{db: db}
}

// MediaStatsByDay returns per-day view counts for the legacy media id, oldest first.
func (r *StatsReader) MediaStatsByDay(ctx context.Context, mediaID int64) ([]DayStats, error) {
	if r == nil {
		return nil, errors.New("legacysms: stats reader not configured")
	}

	rows, err := r.db.QueryContext(ctx, mediaStatsByDayQuery, mediaID)
	if err != nil {
		return nil, fmt.Errorf("legacysms: query media stats: %w", err)
	}
	defer rows.Close()

	stats := make([]DayStats, 0)
	for rows.Next() {
		var (
			day  sql.NullTime
			hits sql.NullInt64
		)
		if err := rows.Scan(&day, &hits); err != nil {
			return nil, fmt.Errorf("legacysms: scan media stats: %w", err)
		}
		if !day.Valid {
			continue
		}
		stats = append(stats, DayStats{Date: day.Time.Format("2006-01-02"), Views: hits.Int64})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("legacysms: iterate media stats: %w", err)
	}
	return stats, nil
}
