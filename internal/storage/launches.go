package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrLaunchNotFound is returned when a launch row is not found.
var ErrLaunchNotFound = errors.New("launch not found")

// frecencyExpr computes the ranking score of a launch row in SQL:
// count weighted by a hyperbolic decay over the age in days. More recent
// launches of equal count always score higher, and the decay never
// inverts the ordering of equal-recency rows.
const frecencyExpr = `count * (1.0 / (1.0 + ((? - last_used_unix_ms) / 86400000.0)))`

// RecordLaunch upserts a launch event: first launch inserts the row,
// every subsequent launch of the same id increments count and refreshes
// the timestamp and metadata. Never creates duplicate rows.
func (s *SQLiteStore) RecordLaunch(ctx context.Context, l *Launch) error {
	if l == nil {
		return errors.New("launch cannot be nil")
	}
	if l.ID == "" {
		return errors.New("id is required")
	}
	if l.Name == "" {
		return errors.New("name is required")
	}

	now := l.LastUsedMs
	if now == 0 {
		now = time.Now().UnixMilli()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO launches (id, name, exec, icon, description, count, last_used_unix_ms)
		VALUES (?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(id) DO UPDATE SET
		  count = count + 1,
		  last_used_unix_ms = excluded.last_used_unix_ms,
		  name = excluded.name,
		  exec = excluded.exec,
		  icon = excluded.icon,
		  description = excluded.description
	`, l.ID, l.Name, l.Exec, l.Icon, l.Description, now)
	if err != nil {
		return fmt.Errorf("failed to record launch: %w", err)
	}
	return nil
}

// Frecent returns up to limit launches ordered by frecency score.
func (s *SQLiteStore) Frecent(ctx context.Context, limit int) ([]Launch, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, exec, icon, description, count, last_used_unix_ms
		FROM launches
		ORDER BY `+frecencyExpr+` DESC
		LIMIT ?
	`, time.Now().UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query frecent launches: %w", err)
	}
	defer rows.Close()

	var launches []Launch
	for rows.Next() {
		var l Launch
		if err := rows.Scan(&l.ID, &l.Name, &l.Exec, &l.Icon, &l.Description, &l.Count, &l.LastUsedMs); err != nil {
			return nil, fmt.Errorf("failed to scan launch: %w", err)
		}
		launches = append(launches, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating launches: %w", err)
	}
	return launches, nil
}

// FrecencyScores returns a map of launch id to frecency score for every
// row in the ledger. Used to rank the installed-app list on empty query.
func (s *SQLiteStore) FrecencyScores(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, `+frecencyExpr+` AS score FROM launches
	`, time.Now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query frecency scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[string]float64)
	for rows.Next() {
		var id string
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			return nil, fmt.Errorf("failed to scan frecency score: %w", err)
		}
		scores[id] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating frecency scores: %w", err)
	}
	return scores, nil
}

// RemoveLaunch deletes a single launch row by id. Returns true if a row
// was removed.
func (s *SQLiteStore) RemoveLaunch(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errors.New("id is required")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM launches WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to remove launch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// ClearLaunches deletes every row from the ledger and returns the number
// of rows removed.
func (s *SQLiteStore) ClearLaunches(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM launches`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear launches: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// LaunchCount returns the number of distinct ids in the ledger.
func (s *SQLiteStore) LaunchCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM launches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count launches: %w", err)
	}
	return n, nil
}
