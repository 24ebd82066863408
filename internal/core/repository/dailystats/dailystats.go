package dailystats

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/blobindexer/syncer/internal/core"
)

// Repository computes the daily stats of one kind from the indexer tables.
type Repository[T any] struct {
	pg   *bun.DB
	kind core.StatsKind

	// populateQuery takes the inclusive start of the range (or NULL)
	// and the exclusive end as ?0 and ?1.
	populateQuery string
}

var _ core.DailyStatsRepository = (*Repository[core.BlobDailyStats])(nil)

var _ core.DailyStatsReader[core.BlobDailyStats] = (*Repository[core.BlobDailyStats])(nil)

func NewBlobRepository(db *bun.DB) *Repository[core.BlobDailyStats] {
	return &Repository[core.BlobDailyStats]{pg: db, kind: core.BlobStats, populateQuery: populateBlobStats}
}

func NewBlockRepository(db *bun.DB) *Repository[core.BlockDailyStats] {
	return &Repository[core.BlockDailyStats]{pg: db, kind: core.BlockStats, populateQuery: populateBlockStats}
}

func NewTransactionRepository(db *bun.DB) *Repository[core.TransactionDailyStats] {
	return &Repository[core.TransactionDailyStats]{pg: db, kind: core.TransactionStats, populateQuery: populateTransactionStats}
}

func CreateTables(ctx context.Context, pgDB *bun.DB) error {
	for _, m := range []any{
		&core.BlobDailyStats{},
		&core.BlockDailyStats{},
		&core.TransactionDailyStats{},
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

func (r *Repository[T]) GetLastDay(ctx context.Context) (time.Time, error) {
	var day time.Time

	err := r.pg.NewSelect().Model((*T)(nil)).
		Column("day").
		Order("day DESC").
		Limit(1).
		Scan(ctx, &day)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, core.ErrNotFound
	}
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "select last %s stats day", r.kind)
	}

	return core.Day(day), nil
}

func (r *Repository[T]) Populate(ctx context.Context, dr core.DayRange) (int, error) {
	defer core.Timer(time.Now(), "Populate(%s)", r.kind)

	var from *time.Time
	if dr.From != nil {
		f := core.Day(*dr.From)
		from = &f
	}
	to := core.Day(dr.To).AddDate(0, 0, 1)

	if from != nil && !from.Before(to) {
		return 0, nil
	}

	res, err := r.pg.ExecContext(ctx, r.populateQuery, from, to)
	if err != nil {
		return 0, errors.Wrapf(err, "populate %s daily stats", r.kind)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}

	return int(n), nil
}

func (r *Repository[T]) GetDailyStats(ctx context.Context, dr core.DayRange) ([]*T, error) {
	var ret []*T

	q := r.pg.NewSelect().Model(&ret).
		Where("day <= ?", core.Day(dr.To).Format(time.DateOnly))
	if dr.From != nil {
		q = q.Where("day >= ?", core.Day(*dr.From).Format(time.DateOnly))
	}

	err := q.Order("day ASC").Scan(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "select %s daily stats", r.kind)
	}

	return ret, nil
}
