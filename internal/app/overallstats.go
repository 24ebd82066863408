package app

import (
	"context"

	"github.com/blobindexer/syncer/internal/core"
	"github.com/blobindexer/syncer/internal/queue"
)

type OverallStatsEntity struct {
	Kind core.StatsKind
	Repo core.OverallStatsRepository
}

type OverallStatsConfig struct {
	Backend       queue.Backend
	SyncStateRepo core.SyncStateRepository
	TxRunner      core.TransactionRunner
	Entities      []OverallStatsEntity

	// BatchSize is the maximum number of blocks aggregated in one transaction.
	BatchSize int64
}

type OverallStatsService interface {
	UpdaterService
	Update(ctx context.Context) error
}
