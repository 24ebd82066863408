package core

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// SyncStateID is the primary key of the only sync state row.
const SyncStateID = 1

// SyncState is the shared progress row of the indexer and the stats syncer.
// LastFinalizedBlock is moved by the indexer; LastAggregatedBlock is the
// overall stats cursor and only moves together with the stats it covers.
type SyncState struct {
	bun.BaseModel `bun:"table:blockchain_sync_state" json:"-"`

	ID                  int       `bun:",pk" json:"-"`
	LastFinalizedBlock  *int64    `json:"last_finalized_block"`
	LastAggregatedBlock *int64    `json:"last_aggregated_block"`
	UpdatedAt           time.Time `bun:"type:timestamptz,notnull,default:current_timestamp" json:"updated_at"`
}

// SyncStateUpdate is a partial update, nil fields are left untouched.
type SyncStateUpdate struct {
	LastFinalizedBlock  *int64
	LastAggregatedBlock *int64
}

type SyncStateRepository interface {
	// GetSyncState returns ErrNotFound if the row does not exist.
	GetSyncState(ctx context.Context) (*SyncState, error)
	// LockSyncState reads the row inside tx and holds a row lock until tx ends.
	LockSyncState(ctx context.Context, tx bun.IDB) (*SyncState, error)
	UpsertSyncState(ctx context.Context, tx bun.IDB, upd *SyncStateUpdate) error
}
