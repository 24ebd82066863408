package syncstate

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/blobindexer/syncer/internal/core"
)

var _ core.SyncStateRepository = (*Repository)(nil)

type Repository struct {
	pg *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{pg: db}
}

func CreateTables(ctx context.Context, pgDB *bun.DB) error {
	_, err := pgDB.NewCreateTable().
		Model(&core.SyncState{}).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "sync state pg create table")
	}
	return nil
}

func (r *Repository) GetSyncState(ctx context.Context) (*core.SyncState, error) {
	ret := new(core.SyncState)

	err := r.pg.NewSelect().Model(ret).
		Where("id = ?", core.SyncStateID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return ret, nil
}

// LockSyncState selects the row FOR UPDATE, so concurrent writers
// of the aggregated block cursor are serialized on it.
func (r *Repository) LockSyncState(ctx context.Context, tx bun.IDB) (*core.SyncState, error) {
	if tx == nil {
		tx = r.pg
	}

	ret := new(core.SyncState)

	err := tx.NewSelect().Model(ret).
		Where("id = ?", core.SyncStateID).
		For("UPDATE").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select sync state for update")
	}

	return ret, nil
}

// UpsertSyncState writes only the fields set in upd.
// tx may be nil to write outside a transaction.
func (r *Repository) UpsertSyncState(ctx context.Context, tx bun.IDB, upd *core.SyncStateUpdate) error {
	if tx == nil {
		tx = r.pg
	}

	state := &core.SyncState{
		ID:                  core.SyncStateID,
		LastFinalizedBlock:  upd.LastFinalizedBlock,
		LastAggregatedBlock: upd.LastAggregatedBlock,
		UpdatedAt:           time.Now().UTC(),
	}

	q := tx.NewInsert().Model(state).
		On("CONFLICT (id) DO UPDATE").
		Set("updated_at = EXCLUDED.updated_at")
	if upd.LastFinalizedBlock != nil {
		q = q.Set("last_finalized_block = EXCLUDED.last_finalized_block")
	}
	if upd.LastAggregatedBlock != nil {
		q = q.Set("last_aggregated_block = EXCLUDED.last_aggregated_block")
	}

	if _, err := q.Exec(ctx); err != nil {
		return errors.Wrap(err, "upsert sync state")
	}

	return nil
}
