package pgmigrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		// sync state tables created by older indexer versions lack the cursor
		_, err := db.ExecContext(ctx, `ALTER TABLE blockchain_sync_state ADD COLUMN IF NOT EXISTS last_aggregated_block bigint`)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `ALTER TABLE blockchain_sync_state DROP COLUMN IF EXISTS last_aggregated_block`)
		return err
	})
}
