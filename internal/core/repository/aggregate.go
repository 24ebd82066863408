package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/blobindexer/syncer/internal/core"
)

// Statistics is a quick summary of the indexed data.
type Statistics struct {
	FirstBlock *int64 `json:"first_block"`
	LastBlock  *int64 `json:"last_block"`

	BlockCount       int `json:"block_count"`
	TransactionCount int `json:"transaction_count"`
	BlobCount        int `json:"blob_count"`
	AddressCount     int `json:"address_count"`

	LastFinalizedBlock  *int64 `json:"last_finalized_block"`
	LastAggregatedBlock *int64 `json:"last_aggregated_block"`
}

func GetStatistics(ctx context.Context, db *DB) (*Statistics, error) {
	var ret Statistics
	var err error

	err = db.PG.NewSelect().Model((*core.Block)(nil)).
		ColumnExpr("min(number) AS first_block").
		ColumnExpr("max(number) AS last_block").
		Scan(ctx, &ret.FirstBlock, &ret.LastBlock)
	if err != nil {
		return nil, errors.Wrap(err, "first and last blocks")
	}
	ret.BlockCount, err = db.PG.NewSelect().Model((*core.Block)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block count")
	}
	ret.TransactionCount, err = db.PG.NewSelect().Model((*core.Transaction)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "transaction count")
	}
	ret.BlobCount, err = db.PG.NewSelect().Model((*core.Blob)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "blob count")
	}
	ret.AddressCount, err = db.PG.NewSelect().Model((*core.Address)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "address count")
	}

	state := new(core.SyncState)
	err = db.PG.NewSelect().Model(state).Where("id = ?", core.SyncStateID).Limit(1).Scan(ctx)
	switch {
	case err == nil:
		ret.LastFinalizedBlock, ret.LastAggregatedBlock = state.LastFinalizedBlock, state.LastAggregatedBlock
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, errors.Wrap(err, "sync state")
	}

	return &ret, nil
}
