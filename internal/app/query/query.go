package query

import (
	"context"

	"github.com/pkg/errors"

	"github.com/blobindexer/syncer/internal/app"
	"github.com/blobindexer/syncer/internal/core"
	"github.com/blobindexer/syncer/internal/core/repository"
	"github.com/blobindexer/syncer/internal/core/repository/dailystats"
	"github.com/blobindexer/syncer/internal/core/repository/overallstats"
	"github.com/blobindexer/syncer/internal/core/repository/syncstate"
	"github.com/blobindexer/syncer/internal/queue"
)

var _ app.QueryService = (*Service)(nil)

type Service struct {
	cfg *app.QueryConfig

	syncStateRepo core.SyncStateRepository

	blobDaily  core.DailyStatsReader[core.BlobDailyStats]
	blockDaily core.DailyStatsReader[core.BlockDailyStats]
	txDaily    core.DailyStatsReader[core.TransactionDailyStats]

	blobOverall  core.OverallStatsReader[core.BlobOverallStats]
	blockOverall core.OverallStatsReader[core.BlockOverallStats]
	txOverall    core.OverallStatsReader[core.TransactionOverallStats]
}

func NewService(_ context.Context, cfg *app.QueryConfig) (*Service, error) {
	var s = new(Service)

	s.cfg = cfg
	pg := s.cfg.DB.PG
	s.syncStateRepo = syncstate.NewRepository(pg)
	s.blobDaily = dailystats.NewBlobRepository(pg)
	s.blockDaily = dailystats.NewBlockRepository(pg)
	s.txDaily = dailystats.NewTransactionRepository(pg)
	s.blobOverall = overallstats.NewBlobRepository(pg)
	s.blockOverall = overallstats.NewBlockRepository(pg)
	s.txOverall = overallstats.NewTransactionRepository(pg)

	return s, nil
}

func (s *Service) GetStatistics(ctx context.Context) (*repository.Statistics, error) {
	return repository.GetStatistics(ctx, s.cfg.DB)
}

func (s *Service) GetSyncState(ctx context.Context) (*core.SyncState, error) {
	return s.syncStateRepo.GetSyncState(ctx)
}

func overall[T any](ctx context.Context, r core.OverallStatsReader[T]) (*T, error) {
	ret, err := r.GetOverallStats(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	return ret, err
}

func (s *Service) GetOverallStats(ctx context.Context) (*app.OverallStats, error) {
	var (
		ret app.OverallStats
		err error
	)

	if ret.Blob, err = overall(ctx, s.blobOverall); err != nil {
		return nil, err
	}
	if ret.Block, err = overall(ctx, s.blockOverall); err != nil {
		return nil, err
	}
	if ret.Transaction, err = overall(ctx, s.txOverall); err != nil {
		return nil, err
	}

	return &ret, nil
}

func (s *Service) GetDailyStats(ctx context.Context, kind core.StatsKind, r core.DayRange) (*app.DailyStats, error) {
	var err error

	if r.From != nil && r.From.After(r.To) {
		return nil, errors.Wrap(core.ErrInvalidArg, "from day is after to day")
	}

	ret := &app.DailyStats{Kind: kind}

	switch kind {
	case core.BlobStats:
		ret.Blob, err = s.blobDaily.GetDailyStats(ctx, r)
	case core.BlockStats:
		ret.Block, err = s.blockDaily.GetDailyStats(ctx, r)
	case core.TransactionStats:
		ret.Transaction, err = s.txDaily.GetDailyStats(ctx, r)
	default:
		return nil, errors.Wrapf(core.ErrInvalidArg, "unknown stats kind '%s'", kind)
	}
	if err != nil {
		return nil, err
	}

	return ret, nil
}

func (s *Service) GetJobs(ctx context.Context) ([]*queue.RepeatableJob, error) {
	if s.cfg.Syncer == nil {
		return nil, errors.Wrap(core.ErrNotFound, "stats syncer is not running")
	}
	return s.cfg.Syncer.Jobs(ctx)
}
