package pgmigrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/blobindexer/syncer/internal/core"
	"github.com/blobindexer/syncer/internal/core/repository/dailystats"
	"github.com/blobindexer/syncer/internal/core/repository/overallstats"
	"github.com/blobindexer/syncer/internal/core/repository/syncstate"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		// the indexer usually creates the sync state row first
		if err := syncstate.CreateTables(ctx, db); err != nil {
			return err
		}
		if err := dailystats.CreateTables(ctx, db); err != nil {
			return err
		}
		if err := overallstats.CreateTables(ctx, db); err != nil {
			return err
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for _, m := range []any{
			&core.BlobDailyStats{},
			&core.BlockDailyStats{},
			&core.TransactionDailyStats{},
			&core.BlobOverallStats{},
			&core.BlockOverallStats{},
			&core.TransactionOverallStats{},
		} {
			_, err := db.NewDropTable().Model(m).IfExists().Exec(ctx)
			if err != nil {
				return errors.Wrapf(err, "drop %T", m)
			}
		}
		return nil
	})
}
