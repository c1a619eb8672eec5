package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS reports (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	match_id BIGINT NOT NULL,
	time TEXT NOT NULL,
	time_seconds INTEGER NOT NULL,
	team TEXT NOT NULL,
	steam_id BIGINT NOT NULL DEFAULT 0,
	slot INTEGER NOT NULL DEFAULT 0,
	name TEXT,
	hero TEXT,
	target_slot INTEGER NOT NULL,
	target_steam_id BIGINT NOT NULL DEFAULT 0,
	target_name TEXT,
	target_hero TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_match ON reports(match_id, time_seconds);
`

// PGStore keeps reports in PostgreSQL for deployments that share one database.
type PGStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ Repository = (*PGStore)(nil)

// NewPGStore connects to dsn and creates the schema if needed.
func NewPGStore(ctx context.Context, dsn string, logger *slog.Logger) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &PGStore{pool: pool, logger: logger}, nil
}

// Add validates and inserts reports in one batch.
func (s *PGStore) Add(ctx context.Context, reports []Report) error {
	prepared, err := prepare(reports)
	if err != nil {
		return err
	}
	if len(prepared) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range prepared {
		secs, _ := clockSeconds(r.Time)
		batch.Queue(`INSERT INTO reports (id, match_id, time, time_seconds, team, steam_id, slot, name, hero, target_slot, target_steam_id, target_name, target_hero, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			r.ID, r.MatchID, r.Time, secs, r.Team, int64(r.SteamID), r.Slot, r.Name, r.Hero,
			r.TargetSlot, int64(r.TargetSteamID), r.TargetName, r.TargetHero, r.CreatedAt)
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		s.logger.Error("report write failed", "match_id", prepared[0].MatchID, "count", len(prepared), "error", err)
		return fmt.Errorf("inserting reports: %w", err)
	}
	return nil
}

// Query returns reports for a match ordered by match time, then insertion.
func (s *PGStore) Query(ctx context.Context, opts QueryOpts) ([]Report, error) {
	query := "SELECT " + selectColumns + " FROM reports WHERE TRUE"
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if opts.MatchID != 0 {
		query += " AND match_id = " + arg(opts.MatchID)
	}
	if opts.Team != "" {
		query += " AND team = " + arg(opts.Team)
	}
	if opts.Filter.Slot != nil {
		query += " AND target_slot = " + arg(*opts.Filter.Slot)
	}
	if opts.Filter.SteamID != 0 {
		query += " AND target_steam_id = " + arg(int64(opts.Filter.SteamID))
	}
	query += " ORDER BY match_id, time_seconds, seq"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

// Matches summarizes stored matches, most recently reported first.
func (s *PGStore) Matches(ctx context.Context, limit int) ([]MatchSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT match_id,
			COUNT(*) FILTER (WHERE team = 'FRIENDLY'),
			COUNT(*) FILTER (WHERE team = 'ENEMY'),
			COUNT(*),
			MAX(created_at)
		FROM reports
		GROUP BY match_id
		ORDER BY MAX(created_at) DESC, match_id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

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
func (s *PGStore) DeleteMatch(ctx context.Context, matchID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM reports WHERE match_id = $1", matchID)
	if err != nil {
		return 0, fmt.Errorf("deleting match %d: %w", matchID, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("match %d: %w", matchID, ErrNotFound)
	}
	return tag.RowsAffected(), nil
}

// Close releases the connection pool.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
