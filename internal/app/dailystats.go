package app

import (
	"context"

	"github.com/blobindexer/syncer/internal/core"
	"github.com/blobindexer/syncer/internal/queue"
)

type DailyStatsEntity struct {
	Kind core.StatsKind
	Repo core.DailyStatsRepository
}

type DailyStatsConfig struct {
	Backend     queue.Backend
	BlockSource core.BlockSource
	Entities    []DailyStatsEntity
}

type DailyStatsService interface {
	UpdaterService
	Update(ctx context.Context) error
}
