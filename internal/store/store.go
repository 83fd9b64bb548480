// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/typemeter/internal/metrics"
	"github.com/verte-zerg/typemeter/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("session not found")

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
			id INTEGER PRIMARY KEY,
			uuid TEXT NOT NULL UNIQUE,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			lang TEXT NOT NULL,
			content TEXT NOT NULL,
			target_len INTEGER NOT NULL,
			wpm INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			consistency INTEGER,
			duration_ms INTEGER NOT NULL,
			cpm INTEGER NOT NULL DEFAULT 0,
			ks_total INTEGER NOT NULL,
			ks_correct INTEGER NOT NULL,
			ks_incorrect INTEGER NOT NULL,
			ks_extra INTEGER NOT NULL,
			err_punctuation INTEGER NOT NULL,
			err_case INTEGER NOT NULL,
			err_number INTEGER NOT NULL,
			err_other INTEGER NOT NULL,
			xp INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_keys (
			session_id INTEGER NOT NULL,
			glyph TEXT NOT NULL,
			presses INTEGER NOT NULL,
			misses INTEGER NOT NULL,
			PRIMARY KEY (session_id, glyph)
		);`,
		`CREATE TABLE IF NOT EXISTS session_points (
			session_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			x INTEGER NOT NULL,
			wpm REAL NOT NULL,
			accuracy REAL NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_session_keys_key ON session_keys(glyph);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a completed session with its key counts and time series.
// A UUID is assigned when rec.UUID is empty.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord) (int64, error) {
	if rec.UUID == "" {
		rec.UUID = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	r := rec.Result
	var consistency sql.NullInt64
	if r.Consistency != nil {
		consistency = sql.NullInt64{Int64: int64(*r.Consistency), Valid: true}
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (uuid, started_at, ended_at, mode, lang, content, target_len, wpm, accuracy, errors, consistency, duration_ms, cpm,
			ks_total, ks_correct, ks_incorrect, ks_extra, err_punctuation, err_case, err_number, err_other, xp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UUID,
		formatTime(rec.StartedAt),
		formatTime(rec.EndedAt),
		rec.Mode,
		rec.Lang,
		rec.Content,
		rec.TargetLen,
		r.WPM,
		r.Accuracy,
		r.Errors,
		consistency,
		r.Duration().Round(time.Millisecond).Milliseconds(),
		r.CPM,
		r.Keystrokes.Total,
		r.Keystrokes.Correct,
		r.Keystrokes.Incorrect,
		r.Keystrokes.Extra,
		r.ErrorTypes.Punctuation,
		r.ErrorTypes.Case,
		r.ErrorTypes.Number,
		r.ErrorTypes.Other,
		rec.XP,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err = insertKeys(ctx, tx, id, r.Keystrokes); err != nil {
		return 0, err
	}
	if err = insertPoints(ctx, tx, id, r.Series); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func insertKeys(ctx context.Context, tx *sql.Tx, id int64, ks metrics.KeystrokeStats) error {
	keys := map[string]struct{}{}
	for k := range ks.KeyCounts {
		keys[k] = struct{}{}
	}
	for k := range ks.Misses {
		keys[k] = struct{}{}
	}
	if len(keys) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO session_keys (session_id, glyph, presses, misses) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for k := range keys {
		if _, err := stmt.ExecContext(ctx, id, k, ks.KeyCounts[k], ks.Misses[k]); err != nil {
			return err
		}
	}
	return nil
}

func insertPoints(ctx context.Context, tx *sql.Tx, id int64, points []metrics.Point) error {
	if len(points) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO session_points (session_id, seq, x, wpm, accuracy) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i, p := range points {
		if _, err := stmt.ExecContext(ctx, id, i, p.X, p.WPM, p.Accuracy); err != nil {
			return err
		}
	}
	return nil
}

// GetWeakKeys aggregates key stats over the most recent sessions.
func (s *Store) GetWeakKeys(ctx context.Context, window int, lang string) ([]model.KeyAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_sessions AS (
		SELECT id FROM sessions
		WHERE (? = '' OR lang = ?)
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT k.glyph, SUM(k.presses) AS presses, SUM(k.misses) AS misses
	FROM session_keys k
	JOIN recent_sessions r ON r.id = k.session_id
	GROUP BY k.glyph
	ORDER BY k.glyph`

	rows, err := s.db.QueryContext(ctx, query, lang, lang, window)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	return scanKeyAggregates(rows)
}

// ListSessions returns session aggregates filtered by stats config, oldest first.
// A positive cfg.Last keeps only the most recent sessions.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Lang != "" {
		clauses = append(clauses, "lang = ?")
		args = append(args, cfg.Lang)
	}
	if cfg.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, cfg.Mode)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	limit := -1
	if cfg.Last > 0 {
		limit = cfg.Last
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT * FROM (
			SELECT id, ended_at, mode, wpm, accuracy, consistency, errors, duration_ms, xp
			FROM sessions
			WHERE %s
			ORDER BY ended_at DESC, id DESC
			LIMIT ?
		) ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		var consistency sql.NullInt64
		if err := rows.Scan(&agg.SessionID, &endedAt, &agg.Mode, &agg.WPM, &agg.Accuracy, &consistency, &agg.Errors, &agg.DurationMs, &agg.XP); err != nil {
			return nil, err
		}
		parsed, err := parseTime(endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		agg.Consistency = nullableInt(consistency)
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession loads a full session record including key counts and time series.
func (s *Store) GetSession(ctx context.Context, id int64) (model.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, uuid, started_at, ended_at, mode, lang, content, target_len, wpm, accuracy, errors, consistency, duration_ms, cpm,
			ks_total, ks_correct, ks_incorrect, ks_extra, err_punctuation, err_case, err_number, err_other, xp
		 FROM sessions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionRecord{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return model.SessionRecord{}, err
	}
	if err := s.loadKeys(ctx, &rec); err != nil {
		return model.SessionRecord{}, err
	}
	if err := s.loadPoints(ctx, &rec); err != nil {
		return model.SessionRecord{}, err
	}
	return rec, nil
}

// LastSession returns the most recently finished session.
func (s *Store) LastSession(ctx context.Context) (model.SessionRecord, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM sessions ORDER BY ended_at DESC, id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionRecord{}, ErrNotFound
	}
	if err != nil {
		return model.SessionRecord{}, err
	}
	return s.GetSession(ctx, id)
}

// TotalXP sums experience over all stored sessions.
func (s *Store) TotalXP(ctx context.Context) (int, error) {
	var total sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT SUM(xp) FROM sessions`).Scan(&total); err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}

// ListKeyAggregatesForSessions aggregates per-key stats across sessions.
func (s *Store) ListKeyAggregatesForSessions(ctx context.Context, sessionIDs []int64) ([]model.KeyAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inList(sessionIDs)
	query := fmt.Sprintf(`SELECT glyph, SUM(presses) AS presses, SUM(misses) AS misses
		FROM session_keys
		WHERE session_id IN (%s)
		GROUP BY glyph
		ORDER BY glyph`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	return scanKeyAggregates(rows)
}

// ListKeyStatsForSessions returns per-session stats for selected keys.
func (s *Store) ListKeyStatsForSessions(ctx context.Context, sessionIDs []int64, keys []string) (map[int64]map[string]model.KeyAggregate, error) {
	if len(sessionIDs) == 0 || len(keys) == 0 {
		return map[int64]map[string]model.KeyAggregate{}, nil
	}
	idPlaceholders, args := inList(sessionIDs)
	keyPlaceholders := make([]string, len(keys))
	for i, k := range keys {
		keyPlaceholders[i] = "?"
		args = append(args, k)
	}

	query := fmt.Sprintf(`SELECT session_id, glyph, presses, misses
		FROM session_keys
		WHERE session_id IN (%s) AND glyph IN (%s)`, idPlaceholders, strings.Join(keyPlaceholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	result := map[int64]map[string]model.KeyAggregate{}
	for rows.Next() {
		var sessionID int64
		var agg model.KeyAggregate
		if err := rows.Scan(&sessionID, &agg.Key, &agg.Presses, &agg.Misses); err != nil {
			return nil, err
		}
		if _, ok := result[sessionID]; !ok {
			result[sessionID] = map[string]model.KeyAggregate{}
		}
		result[sessionID][agg.Key] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) loadKeys(ctx context.Context, rec *model.SessionRecord) error {
	rows, err := s.db.QueryContext(ctx, `SELECT glyph, presses, misses FROM session_keys WHERE session_id = ?`, rec.ID)
	if err != nil {
		return err
	}
	defer closeRows(rows)
	aggs, err := scanKeyAggregates(rows)
	if err != nil {
		return err
	}
	counts := map[string]int{}
	misses := map[string]int{}
	for _, agg := range aggs {
		if agg.Presses > 0 {
			counts[agg.Key] = agg.Presses
		}
		if agg.Misses > 0 {
			misses[agg.Key] = agg.Misses
		}
	}
	rec.Result.Keystrokes.KeyCounts = counts
	rec.Result.Keystrokes.Misses = misses
	return nil
}

func (s *Store) loadPoints(ctx context.Context, rec *model.SessionRecord) error {
	rows, err := s.db.QueryContext(ctx, `SELECT x, wpm, accuracy FROM session_points WHERE session_id = ? ORDER BY seq`, rec.ID)
	if err != nil {
		return err
	}
	defer closeRows(rows)
	var points []metrics.Point
	for rows.Next() {
		var p metrics.Point
		if err := rows.Scan(&p.X, &p.WPM, &p.Accuracy); err != nil {
			return err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rec.Result.Series = points
	return nil
}

func scanRecord(row *sql.Row) (model.SessionRecord, error) {
	var rec model.SessionRecord
	var startedAt, endedAt string
	var consistency sql.NullInt64
	var durationMs int64
	r := &rec.Result
	err := row.Scan(&rec.ID, &rec.UUID, &startedAt, &endedAt, &rec.Mode, &rec.Lang, &rec.Content, &rec.TargetLen,
		&r.WPM, &r.Accuracy, &r.Errors, &consistency, &durationMs, &r.CPM,
		&r.Keystrokes.Total, &r.Keystrokes.Correct, &r.Keystrokes.Incorrect, &r.Keystrokes.Extra,
		&r.ErrorTypes.Punctuation, &r.ErrorTypes.Case, &r.ErrorTypes.Number, &r.ErrorTypes.Other, &rec.XP)
	if err != nil {
		return rec, err
	}
	if rec.StartedAt, err = parseTime(startedAt); err != nil {
		return rec, err
	}
	if rec.EndedAt, err = parseTime(endedAt); err != nil {
		return rec, err
	}
	r.Seconds = float64(durationMs) / 1000
	r.Consistency = nullableInt(consistency)
	return rec, nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func scanKeyAggregates(rows *sql.Rows) ([]model.KeyAggregate, error) {
	var result []model.KeyAggregate
	for rows.Next() {
		var agg model.KeyAggregate
		if err := rows.Scan(&agg.Key, &agg.Presses, &agg.Misses); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

func inList(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}
