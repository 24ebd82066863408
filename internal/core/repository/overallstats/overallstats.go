package overallstats

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/blobindexer/syncer/internal/core"
)

// Repository keeps the cumulative stats row of one kind.
type Repository[T any] struct {
	pg   *bun.DB
	kind core.StatsKind

	// incrementQuery takes the row id and the inclusive block range as ?0, ?1 and ?2.
	incrementQuery string
}

var _ core.OverallStatsRepository = (*Repository[core.BlobOverallStats])(nil)

var _ core.OverallStatsReader[core.BlobOverallStats] = (*Repository[core.BlobOverallStats])(nil)

func NewBlobRepository(db *bun.DB) *Repository[core.BlobOverallStats] {
	return &Repository[core.BlobOverallStats]{pg: db, kind: core.BlobStats, incrementQuery: incrementBlobStats}
}

func NewBlockRepository(db *bun.DB) *Repository[core.BlockOverallStats] {
	return &Repository[core.BlockOverallStats]{pg: db, kind: core.BlockStats, incrementQuery: incrementBlockStats}
}

func NewTransactionRepository(db *bun.DB) *Repository[core.TransactionOverallStats] {
	return &Repository[core.TransactionOverallStats]{pg: db, kind: core.TransactionStats, incrementQuery: incrementTransactionStats}
}

func CreateTables(ctx context.Context, pgDB *bun.DB) error {
	for _, m := range []any{
		&core.BlobOverallStats{},
		&core.BlockOverallStats{},
		&core.TransactionOverallStats{},
	} {
		_, err := pgDB.NewCreateTable().
			Model(m).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return errors.Wrapf(err, "%T pg create table", m)
		}
	}
	return nil
}

func (r *Repository[T]) Kind() core.StatsKind {
	return r.kind
}

func (r *Repository[T]) Increment(ctx context.Context, tx bun.IDB, br core.BlockRange) error {
	defer core.Timer(time.Now(), "Increment(%s, %d-%d)", r.kind, br.From, br.To)

	if tx == nil {
		tx = r.pg
	}

	_, err := tx.ExecContext(ctx, r.incrementQuery, core.OverallStatsID, br.From, br.To)
	if err != nil {
		return errors.Wrapf(err, "increment %s overall stats", r.kind)
	}

	return nil
}

func (r *Repository[T]) GetOverallStats(ctx context.Context) (*T, error) {
	ret := new(T)

	err := r.pg.NewSelect().Model(ret).
		Where("id = ?", core.OverallStatsID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "select %s overall stats", r.kind)
	}

	return ret, nil
}
