package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Repository stores reports per match.
type Repository interface {
	Add(ctx context.Context, reports []Report) error
	Query(ctx context.Context, opts QueryOpts) ([]Report, error)
	Matches(ctx context.Context, limit int) ([]MatchSummary, error)
	DeleteMatch(ctx context.Context, matchID int64) (int64, error)
	Close() error
}

// QueryOpts holds filters for report queries.
type QueryOpts struct {
	MatchID int64
	Team    string
	Filter  PlayerFilter
	Limit   int
}

// prepare validates reports and fills in IDs and creation times.
func prepare(reports []Report) ([]Report, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	out := make([]Report, len(reports))
	for i, r := range reports {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt == "" {
			r.CreatedAt = now
		}
		out[i] = r
	}
	return out, nil
}

// Open returns the repository for a storage driver: "sqlite" (path) or "postgres" (dsn).
func Open(ctx context.Context, driver, path, dsn string, logger *slog.Logger) (Repository, error) {
	switch driver {
	case "", "sqlite":
		return NewStore(path, logger)
	case "postgres":
		return NewPGStore(ctx, dsn, logger)
	}
	return nil, fmt.Errorf("unknown storage driver %q", driver)
}
