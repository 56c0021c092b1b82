package holdings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Snapshot is a point-in-time record of portfolio totals, taken by the
// nightly job so value history survives trade deletions.
type Snapshot struct {
	ID            uuid.UUID       `json:"id"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	TotalRealized decimal.Decimal `json:"total_realized"`
	TotalFees     decimal.Decimal `json:"total_fees"`
	PositionCount int             `json:"position_count"`
	TakenAt       time.Time       `json:"taken_at"`
}

// SnapshotQuerier is the pool subset the snapshot store needs.
type SnapshotQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// SnapshotRepository persists portfolio snapshots.
type SnapshotRepository struct {
	pool SnapshotQuerier
}

func NewSnapshotRepository(pool SnapshotQuerier) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Save records one snapshot of the given portfolio.
func (r *SnapshotRepository) Save(ctx context.Context, p *Portfolio) (*Snapshot, error) {
	snap := &Snapshot{
		ID:            uuid.New(),
		TotalInvested: p.TotalInvested,
		TotalRealized: p.TotalRealized,
		TotalFees:     p.TotalFees,
		PositionCount: len(p.Positions),
	}

	query := `
		INSERT INTO portfolio_snapshots (id, total_invested, total_realized, total_fees, position_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING taken_at`

	err := r.pool.QueryRow(ctx, query,
		snap.ID, snap.TotalInvested, snap.TotalRealized, snap.TotalFees, snap.PositionCount,
	).Scan(&snap.TakenAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return snap, nil
}

// ListRecent returns the newest snapshots, most recent first.
func (r *SnapshotRepository) ListRecent(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}
	query := `
		SELECT id, total_invested, total_realized, total_fees, position_count, taken_at
		FROM portfolio_snapshots
		ORDER BY taken_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var result []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.TotalInvested, &s.TotalRealized, &s.TotalFees, &s.PositionCount, &s.TakenAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}
	return result, nil
}
