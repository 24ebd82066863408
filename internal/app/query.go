package app

import (
	"context"

	"github.com/blobindexer/syncer/internal/core"
	"github.com/blobindexer/syncer/internal/core/repository"
	"github.com/blobindexer/syncer/internal/queue"
)

type QueryConfig struct {
	DB *repository.DB

	// Syncer is nil if the stats syncer does not run in this process.
	Syncer SyncerService
}

// OverallStats holds the cumulative rows, nil until the first aggregation.
type OverallStats struct {
	Blob        *core.BlobOverallStats        `json:"blob"`
	Block       *core.BlockOverallStats       `json:"block"`
	Transaction *core.TransactionOverallStats `json:"transaction"`
}

// DailyStats holds the rows of the requested kind only.
type DailyStats struct {
	Kind        core.StatsKind                `json:"kind"`
	Blob        []*core.BlobDailyStats        `json:"blob,omitempty"`
	Block       []*core.BlockDailyStats       `json:"block,omitempty"`
	Transaction []*core.TransactionDailyStats `json:"transaction,omitempty"`
}

type QueryService interface {
	GetStatistics(ctx context.Context) (*repository.Statistics, error)

	GetSyncState(ctx context.Context) (*core.SyncState, error)

	GetOverallStats(ctx context.Context) (*OverallStats, error)
	GetDailyStats(ctx context.Context, kind core.StatsKind, r core.DayRange) (*DailyStats, error)

	GetJobs(ctx context.Context) ([]*queue.RepeatableJob, error)
}
