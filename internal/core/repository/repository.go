package repository

import (
	"github.com/blobindexer/syncer/internal/core"
	"github.com/blobindexer/syncer/internal/core/repository/block"
	"github.com/blobindexer/syncer/internal/core/repository/dailystats"
	"github.com/blobindexer/syncer/internal/core/repository/overallstats"
	"github.com/blobindexer/syncer/internal/core/repository/tx"
)

type DailyStats[T any] interface {
	core.DailyStatsRepository
	core.DailyStatsReader[T]
}

type OverallStats[T any] interface {
	core.OverallStatsRepository
	core.OverallStatsReader[T]
}

var (
	_ DailyStats[core.BlobDailyStats]            = (*dailystats.Repository[core.BlobDailyStats])(nil)
	_ DailyStats[core.BlockDailyStats]           = (*dailystats.Repository[core.BlockDailyStats])(nil)
	_ DailyStats[core.TransactionDailyStats]     = (*dailystats.Repository[core.TransactionDailyStats])(nil)
	_ OverallStats[core.BlobOverallStats]        = (*overallstats.Repository[core.BlobOverallStats])(nil)
	_ OverallStats[core.BlockOverallStats]       = (*overallstats.Repository[core.BlockOverallStats])(nil)
	_ OverallStats[core.TransactionOverallStats] = (*overallstats.Repository[core.TransactionOverallStats])(nil)
)

// Indexer writes the tables the stats are computed from.
// Only fixtures and local development use it, the real indexer is a separate service.
type Indexer interface {
	core.BlockRepository
	core.TransactionRepository
	core.BlobRepository
	core.AddressRepository
}

type (
	blockRepo = block.Repository
	txRepo    = tx.Repository
)

type indexer struct {
	*blockRepo
	*txRepo
}

func NewIndexer(db *DB) Indexer { //nolint:ireturn // one value for both repositories
	return &indexer{
		blockRepo: block.NewRepository(db.CH, db.PG),
		txRepo:    tx.NewRepository(db.PG),
	}
}
