// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/petrogames/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for session data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on pragma failure.
			_ = cerr
		}
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			game_id TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			seed INTEGER NOT NULL,
			level_reached INTEGER NOT NULL,
			completed INTEGER NOT NULL,
			total_points INTEGER NOT NULL,
			rounds_correct INTEGER NOT NULL,
			rounds_missed INTEGER NOT NULL,
			best_streak INTEGER NOT NULL,
			hints_used INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_item_stats (
			session_id TEXT NOT NULL,
			item TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			latency_sum_ms INTEGER NOT NULL,
			latency_count INTEGER NOT NULL,
			PRIMARY KEY (session_id, item)
		);`,
		`CREATE TABLE IF NOT EXISTS achievements (
			game_id TEXT NOT NULL,
			id TEXT NOT NULL,
			title TEXT NOT NULL,
			session_id TEXT NOT NULL,
			unlocked_at TEXT NOT NULL,
			PRIMARY KEY (game_id, id)
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			game_id TEXT PRIMARY KEY,
			saved_at TEXT NOT NULL,
			data TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_game ON sessions(game_id);`,
		`CREATE INDEX IF NOT EXISTS idx_session_item_stats_item ON session_item_stats(item);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a session with its per-item stats and the achievements
// unlocked during it. Saving an id that already exists continues that session:
// score fields are replaced, duration and item counters accumulate. Achievements
// already on record keep their first unlock.
func (s *Store) InsertSession(ctx context.Context, stats model.SessionStats, items []model.ItemStats, unlocked []model.AchievementRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, game_id, started_at, ended_at, seed, level_reached, completed, total_points, rounds_correct, rounds_missed, best_streak, hints_used, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			ended_at = excluded.ended_at,
			level_reached = excluded.level_reached,
			completed = excluded.completed,
			total_points = excluded.total_points,
			rounds_correct = excluded.rounds_correct,
			rounds_missed = excluded.rounds_missed,
			best_streak = excluded.best_streak,
			hints_used = excluded.hints_used,
			duration_ms = sessions.duration_ms + excluded.duration_ms`,
		stats.ID,
		stats.GameID,
		stats.StartedAt.Format(time.RFC3339Nano),
		stats.EndedAt.Format(time.RFC3339Nano),
		stats.Seed,
		stats.LevelReached,
		boolInt(stats.Completed),
		stats.TotalPoints,
		stats.RoundsCorrect,
		stats.RoundsMissed,
		stats.BestStreak,
		stats.HintsUsed,
		stats.DurationMs,
	)
	if err != nil {
		return err
	}

	if len(items) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO session_item_stats (session_id, item, correct, incorrect, latency_sum_ms, latency_count)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(session_id, item) DO UPDATE SET
				correct = correct + excluded.correct,
				incorrect = incorrect + excluded.incorrect,
				latency_sum_ms = latency_sum_ms + excluded.latency_sum_ms,
				latency_count = latency_count + excluded.latency_count`)
		if perr != nil {
			err = perr
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, is := range items {
			if _, err = stmt.ExecContext(ctx, stats.ID, is.Key, is.Correct, is.Incorrect, is.LatencySumMs, is.LatencyCount); err != nil {
				return err
			}
		}
	}

	for _, a := range unlocked {
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO achievements (game_id, id, title, session_id, unlocked_at) VALUES (?, ?, ?, ?, ?)`,
			a.GameID, a.ID, a.Title, a.SessionID, a.UnlockedAt.Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetWeakItems aggregates item stats over the most recent sessions of a game.
func (s *Store) GetWeakItems(ctx context.Context, window int, gameID string) ([]model.ItemAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_sessions AS (
		SELECT id FROM sessions
		WHERE (? = '' OR game_id = ?)
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT st.item, SUM(st.correct) AS correct, SUM(st.incorrect) AS incorrect,
		SUM(st.latency_sum_ms) AS latency_sum_ms, SUM(st.latency_count) AS latency_count
	FROM session_item_stats st
	JOIN recent_sessions r ON r.id = st.session_id
	GROUP BY st.item`

	rows, err := s.db.QueryContext(ctx, query, gameID, gameID, window)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	return scanAggregates(rows)
}

// ListSessions returns session aggregates filtered by stats config.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Game != "" {
		clauses = append(clauses, "game_id = ?")
		args = append(args, cfg.Game)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, game_id, ended_at, rounds_correct, rounds_missed, total_points, level_reached, duration_ms
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		if err := rows.Scan(&agg.SessionID, &agg.GameID, &endedAt, &agg.Correct, &agg.Incorrect, &agg.Points, &agg.LevelReached, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	return sessions, nil
}

// ListItemAggregatesForSessions aggregates per-item stats across sessions.
func (s *Store) ListItemAggregatesForSessions(ctx context.Context, sessionIDs []string) ([]model.ItemAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(sessionIDs)
	query := fmt.Sprintf(`SELECT item, SUM(correct) AS correct, SUM(incorrect) AS incorrect,
		SUM(latency_sum_ms) AS latency_sum_ms, SUM(latency_count) AS latency_count
		FROM session_item_stats
		WHERE session_id IN (%s)
		GROUP BY item`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	return scanAggregates(rows)
}

// ListItemStatsForSessions returns per-session stats for selected items.
func (s *Store) ListItemStatsForSessions(ctx context.Context, sessionIDs []string, items []string) (map[string]map[string]model.ItemAggregate, error) {
	if len(sessionIDs) == 0 || len(items) == 0 {
		return map[string]map[string]model.ItemAggregate{}, nil
	}
	idPlaceholders, args := inClause(sessionIDs)
	itemPlaceholders, itemArgs := inClause(items)
	args = append(args, itemArgs...)

	query := fmt.Sprintf(`SELECT session_id, item, correct, incorrect, latency_sum_ms, latency_count
		FROM session_item_stats
		WHERE session_id IN (%s) AND item IN (%s)`, idPlaceholders, itemPlaceholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	result := map[string]map[string]model.ItemAggregate{}
	for rows.Next() {
		var sessionID string
		var agg model.ItemAggregate
		if err := rows.Scan(&sessionID, &agg.Key, &agg.Correct, &agg.Incorrect, &agg.LatencySumMs, &agg.LatencyCount); err != nil {
			return nil, err
		}
		if _, ok := result[sessionID]; !ok {
			result[sessionID] = map[string]model.ItemAggregate{}
		}
		result[sessionID][agg.Key] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListAchievements returns recorded unlocks, oldest first. An empty game id
// lists every game.
func (s *Store) ListAchievements(ctx context.Context, gameID string) ([]model.AchievementRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT game_id, id, title, session_id, unlocked_at FROM achievements
		 WHERE (? = '' OR game_id = ?)
		 ORDER BY unlocked_at ASC, game_id ASC, id ASC`, gameID, gameID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var out []model.AchievementRecord
	for rows.Next() {
		var rec model.AchievementRecord
		var unlockedAt string
		if err := rows.Scan(&rec.GameID, &rec.ID, &rec.Title, &rec.SessionID, &unlockedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, unlockedAt)
		if err != nil {
			return nil, err
		}
		rec.UnlockedAt = parsed
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveSnapshot stores the resumable state of a game, replacing any earlier one.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (game_id, saved_at, data) VALUES (?, ?, ?)
		 ON CONFLICT(game_id) DO UPDATE SET saved_at = excluded.saved_at, data = excluded.data`,
		snap.GameID, snap.SavedAt.Format(time.RFC3339Nano), string(data))
	return err
}

// LoadSnapshot returns the stored snapshot for a game. ok is false when none exists.
func (s *Store) LoadSnapshot(ctx context.Context, gameID string) (snap model.Snapshot, ok bool, err error) {
	var data string
	err = s.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE game_id = ?`, gameID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, err
	}
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

// DeleteSnapshot removes the stored snapshot of a game.
func (s *Store) DeleteSnapshot(ctx context.Context, gameID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE game_id = ?`, gameID)
	return err
}

func scanAggregates(rows *sql.Rows) ([]model.ItemAggregate, error) {
	var result []model.ItemAggregate
	for rows.Next() {
		var agg model.ItemAggregate
		if err := rows.Scan(&agg.Key, &agg.Correct, &agg.Incorrect, &agg.LatencySumMs, &agg.LatencyCount); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func inClause(values []string) (string, []any) {
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return strings.Join(placeholders, ","), args
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
