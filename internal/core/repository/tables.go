package repository

import (
	"context"

	"github.com/blobindexer/syncer/internal/core/repository/block"
	"github.com/blobindexer/syncer/internal/core/repository/dailystats"
	"github.com/blobindexer/syncer/internal/core/repository/overallstats"
	"github.com/blobindexer/syncer/internal/core/repository/syncstate"
	"github.com/blobindexer/syncer/internal/core/repository/tx"
)

// CreateTables creates the stats tables.
// With indexer set it also creates the tables normally owned by the indexer.
func CreateTables(ctx context.Context, db *DB, indexer bool) error {
	if indexer {
		if err := block.CreateTables(ctx, db.CH, db.PG); err != nil {
			return err
		}
		if err := tx.CreateTables(ctx, db.PG); err != nil {
			return err
		}
		if err := syncstate.CreateTables(ctx, db.PG); err != nil {
			return err
		}
	}

	if err := dailystats.CreateTables(ctx, db.PG); err != nil {
		return err
	}
	if err := overallstats.CreateTables(ctx, db.PG); err != nil {
		return err
	}

	return nil
}
