package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	match_id INTEGER NOT NULL,
	time TEXT NOT NULL,
	time_seconds INTEGER NOT NULL,
	team TEXT NOT NULL,
	steam_id INTEGER,
	slot INTEGER,
	name TEXT,
	hero TEXT,
	target_slot INTEGER NOT NULL,
	target_steam_id INTEGER,
	target_name TEXT,
	target_hero TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_match ON reports(match_id, time_seconds);
CREATE INDEX IF NOT EXISTS idx_reports_target ON reports(match_id, target_steam_id);
`

const selectColumns = "id, match_id, time, team, steam_id, slot, name, hero, target_slot, target_steam_id, target_name, target_hero, created_at"

// writeOp is one batch handed to the writer goroutine.
type writeOp struct {
	reports []Report
	result  chan error
}

// ErrClosed is returned by writes issued after Close.
var ErrClosed = errors.New("report store closed")

// Store keeps reports in SQLite. All writes go through a single writer goroutine.
type Store struct {
	db     *sql.DB
	writes chan writeOp
	done   chan struct{}
	logger *slog.Logger

	// mu guards closed and every send on writes.
	mu     sync.RWMutex
	closed bool

	closeOnce sync.Once
	closeErr  error
}

var _ Repository = (*Store)(nil)

// NewStore opens (or creates) the SQLite report database.
func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening report db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("setting WAL mode: %w (also: close: %v)", err, cerr)
		}
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("creating schema: %w (also: close: %v)", err, cerr)
		}
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &Store{
		db:     db,
		writes: make(chan writeOp, 64),
		done:   make(chan struct{}),
		logger: logger,
	}

	go s.writeLoop()
	return s, nil
}

// Add validates and inserts reports in one transaction. Input order is kept
// as the tie-break between reports at the same second.
func (s *Store) Add(ctx context.Context, reports []Report) error {
	prepared, err := prepare(reports)
	if err != nil {
		return err
	}
	if len(prepared) == 0 {
		return nil
	}
	op := writeOp{reports: prepared, result: make(chan error, 1)}
	if err := s.enqueue(ctx, op); err != nil {
		return err
	}
	select {
	case err := <-op.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush blocks until every queued batch has been written. After Close it
// returns at once, since Close already drained the queue.
func (s *Store) Flush() {
	op := writeOp{result: make(chan error, 1)}
	if err := s.enqueue(context.Background(), op); err != nil {
		return
	}
	<-op.result
}

// enqueue hands op to the writer goroutine unless the store is closed.
func (s *Store) enqueue(ctx context.Context, op writeOp) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.writes <- op:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Query returns reports for a match ordered by match time, then insertion.
func (s *Store) Query(ctx context.Context, opts QueryOpts) ([]Report, error) {
	query := "SELECT " + selectColumns + " FROM reports WHERE 1=1"
	var args []any

	if opts.MatchID != 0 {
		query += " AND match_id = ?"
		args = append(args, opts.MatchID)
	}
	if opts.Team != "" {
		query += " AND team = ?"
		args = append(args, opts.Team)
	}
	if opts.Filter.Slot != nil {
		query += " AND target_slot = ?"
		args = append(args, *opts.Filter.Slot)
	}
	if opts.Filter.SteamID != 0 {
		query += " AND target_steam_id = ?"
		args = append(args, int64(opts.Filter.SteamID))
	}

	query += " ORDER BY match_id, time_seconds, rowid"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanReports(rows)
}

// Matches summarizes stored matches, most recently reported first.
func (s *Store) Matches(ctx context.Context, limit int) ([]MatchSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id,
			SUM(CASE WHEN team = 'FRIENDLY' THEN 1 ELSE 0 END),
			SUM(CASE WHEN team = 'ENEMY' THEN 1 ELSE 0 END),
			COUNT(*),
			MAX(created_at)
		FROM reports
		GROUP BY match_id
		ORDER BY MAX(created_at) DESC, match_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []MatchSummary
	for rows.Next() {
		var m MatchSummary
		if err := rows.Scan(&m.MatchID, &m.TeamReports, &m.EnemyReports, &m.Total, &m.LastReportAt); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteMatch removes every report of a match and returns how many were deleted.
func (s *Store) DeleteMatch(ctx context.Context, matchID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE match_id = ?", matchID)
	if err != nil {
		return 0, fmt.Errorf("deleting match %d: %w", matchID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting match %d: %w", matchID, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("match %d: %w", matchID, ErrNotFound)
	}
	return n, nil
}

// Close flushes pending writes and closes the database. Later calls return
// the first call's result.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.writes)
		s.mu.Unlock()
		<-s.done
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

func (s *Store) writeLoop() {
	defer close(s.done)
	for op := range s.writes {
		if len(op.reports) == 0 {
			op.result <- nil
			continue
		}
		err := s.insert(op.reports)
		if err != nil {
			s.logger.Error("report write failed", "match_id", op.reports[0].MatchID, "count", len(op.reports), "error", err)
		}
		op.result <- err
	}
}

func (s *Store) insert(reports []Report) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning insert: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO reports (id, match_id, time, time_seconds, team, steam_id, slot, name, hero, target_slot, target_steam_id, target_name, target_hero, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range reports {
		secs, _ := clockSeconds(r.Time)
		if _, err := stmt.Exec(r.ID, r.MatchID, r.Time, secs, r.Team, int64(r.SteamID), r.Slot, r.Name, r.Hero,
			r.TargetSlot, int64(r.TargetSteamID), r.TargetName, r.TargetHero, r.CreatedAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting report %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reports: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Rows and pgx.Rows.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanReports(rows rowScanner) ([]Report, error) {
	var out []Report
	for rows.Next() {
		var r Report
		var steamID, targetSteamID int64
		var name, hero, targetName, targetHero sql.NullString
		if err := rows.Scan(&r.ID, &r.MatchID, &r.Time, &r.Team, &steamID, &r.Slot, &name, &hero,
			&r.TargetSlot, &targetSteamID, &targetName, &targetHero, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		r.SteamID = uint64(steamID)
		r.TargetSteamID = uint64(targetSteamID)
		r.Name = name.String
		r.Hero = hero.String
		r.TargetName = targetName.String
		r.TargetHero = targetHero.String
		out = append(out, r)
	}
	return out, rows.Err()
}
