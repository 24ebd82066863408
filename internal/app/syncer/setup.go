package syncer

import (
	"github.com/pkg/errors"

	"github.com/blobindexer/syncer/internal/app"
	"github.com/blobindexer/syncer/internal/app/dailystats"
	"github.com/blobindexer/syncer/internal/app/overallstats"
	"github.com/blobindexer/syncer/internal/core"
	"github.com/blobindexer/syncer/internal/core/repository"
	"github.com/blobindexer/syncer/internal/core/repository/block"
	dailyrepo "github.com/blobindexer/syncer/internal/core/repository/dailystats"
	overallrepo "github.com/blobindexer/syncer/internal/core/repository/overallstats"
	"github.com/blobindexer/syncer/internal/core/repository/syncstate"
	"github.com/blobindexer/syncer/internal/queue"
)

// NewDailyStats binds the daily aggregator to the database stores.
func NewDailyStats(db *repository.DB, b queue.Backend) (*dailystats.Service, error) {
	return dailystats.NewService(&app.DailyStatsConfig{
		Backend:     b,
		BlockSource: block.NewRepository(db.CH, db.PG),
		Entities: []app.DailyStatsEntity{
			{Kind: core.BlobStats, Repo: dailyrepo.NewBlobRepository(db.PG)},
			{Kind: core.BlockStats, Repo: dailyrepo.NewBlockRepository(db.PG)},
			{Kind: core.TransactionStats, Repo: dailyrepo.NewTransactionRepository(db.PG)},
		},
	})
}

// NewOverallStats binds the overall aggregator to the database stores.
func NewOverallStats(db *repository.DB, b queue.Backend, batchSize int64) (*overallstats.Service, error) {
	return overallstats.NewService(&app.OverallStatsConfig{
		Backend:       b,
		SyncStateRepo: syncstate.NewRepository(db.PG),
		TxRunner:      repository.NewTxRunner(db.PG),
		Entities: []app.OverallStatsEntity{
			{Kind: core.BlobStats, Repo: overallrepo.NewBlobRepository(db.PG)},
			{Kind: core.BlockStats, Repo: overallrepo.NewBlockRepository(db.PG)},
			{Kind: core.TransactionStats, Repo: overallrepo.NewTransactionRepository(db.PG)},
		},
		BatchSize: batchSize,
	})
}

// Setup creates both aggregators on the given backend and the orchestrator owning them.
func Setup(db *repository.DB, b queue.Backend, batchSize int64) (*Service, error) {
	daily, err := NewDailyStats(db, b)
	if err != nil {
		return nil, errors.Wrap(err, "new daily stats syncer")
	}

	overall, err := NewOverallStats(db, b, batchSize)
	if err != nil {
		return nil, errors.Wrap(err, "new overall stats syncer")
	}

	return NewService(&app.SyncerConfig{
		Backend: b,
		Daily:   daily,
		Overall: overall,
	}), nil
}
