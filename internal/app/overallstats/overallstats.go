package overallstats

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"github.com/blobindexer/syncer/internal/app"
	"github.com/blobindexer/syncer/internal/app/updater"
	"github.com/blobindexer/syncer/internal/core"
)

const (
	Name = "overall-stats-syncer"

	DefaultBatchSize = 2_000_000
)

// ErrCursorMoved is returned when another instance has aggregated blocks
// after the pending range was read. The batch is rolled back.
var ErrCursorMoved = errors.New("aggregated block cursor moved")

var _ app.OverallStatsService = (*Service)(nil)

type Service struct {
	*app.OverallStatsConfig
	*updater.Service
}

func NewService(cfg *app.OverallStatsConfig) (*Service, error) {
	var s = new(Service)

	s.OverallStatsConfig = cfg

	// validate config
	if s.BatchSize < 1 {
		s.BatchSize = DefaultBatchSize
	}

	u, err := updater.New(Name, cfg.Backend, s.Update)
	if err != nil {
		return nil, err
	}
	s.Service = u

	return s, nil
}

// pendingRange returns the finalized blocks not yet covered by the overall stats.
func (s *Service) pendingRange(ctx context.Context) (core.BlockRange, bool, error) {
	state, err := s.SyncStateRepo.GetSyncState(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return core.BlockRange{}, false, nil
	}
	if err != nil {
		return core.BlockRange{}, false, errors.Wrap(err, "get sync state")
	}
	if state.LastFinalizedBlock == nil {
		return core.BlockRange{}, false, nil
	}

	r := core.BlockRange{To: *state.LastFinalizedBlock}
	if state.LastAggregatedBlock != nil {
		r.From = *state.LastAggregatedBlock + 1
	}

	// a single new block waits for the next one
	if r.From >= r.To {
		return r, false, nil
	}

	return r, true, nil
}

// Batches splits the range into consecutive chunks of at most size blocks.
func Batches(r core.BlockRange, size int64) []core.BlockRange {
	if size < 1 || r.To < r.From {
		return nil
	}

	n := (r.Len() + size - 1) / size

	ret := make([]core.BlockRange, 0, n)
	for i := int64(0); i < n; i++ {
		from := r.From + i*size
		ret = append(ret, core.BlockRange{
			From: from,
			To:   min(from+size-1, r.To),
		})
	}

	return ret
}

// checkCursor verifies the batch starts right after the aggregated block cursor.
func checkCursor(last *int64, batch core.BlockRange) error {
	switch {
	case last == nil && batch.From == 0:
		return nil
	case last != nil && *last == batch.From-1:
		return nil
	case last == nil:
		return errors.Wrapf(ErrCursorMoved, "expected %d, got none", batch.From-1)
	default:
		return errors.Wrapf(ErrCursorMoved, "expected %d, got %d", batch.From-1, *last)
	}
}

func (s *Service) batchOps(batch core.BlockRange) []core.TxOp {
	ops := make([]core.TxOp, 0, len(s.Entities)+2)

	ops = append(ops, func(ctx context.Context, tx bun.IDB) error {
		state, err := s.SyncStateRepo.LockSyncState(ctx, tx)
		if err != nil {
			return errors.Wrap(err, "lock sync state")
		}
		return checkCursor(state.LastAggregatedBlock, batch)
	})

	for _, e := range s.Entities {
		e := e
		ops = append(ops, func(ctx context.Context, tx bun.IDB) error {
			return errors.Wrapf(e.Repo.Increment(ctx, tx, batch), "increment %s stats", e.Kind)
		})
	}

	lastAggregated := batch.To
	ops = append(ops, func(ctx context.Context, tx bun.IDB) error {
		err := s.SyncStateRepo.UpsertSyncState(ctx, tx, &core.SyncStateUpdate{LastAggregatedBlock: &lastAggregated})
		return errors.Wrap(err, "move aggregated block cursor")
	})

	return ops
}

// Update adds every finalized block range not aggregated yet to the overall stats.
// Each batch is committed together with the cursor.
func (s *Service) Update(ctx context.Context) error {
	defer core.Timer(time.Now(), "%s.Update", Name)

	r, ok, err := s.pendingRange(ctx)
	if err != nil {
		return errors.Wrap(err, Name)
	}
	if !ok {
		log.Info().
			Str("updater", Name).
			Int64("from", r.From).
			Int64("to", r.To).
			Msg("no new finalized blocks, skipping")
		return nil
	}

	batches := Batches(r, s.BatchSize)

	for i, b := range batches {
		if err := s.TxRunner.Run(ctx, s.batchOps(b)...); err != nil {
			return errors.Wrapf(err, "%s: aggregate blocks %d-%d", Name, b.From, b.To)
		}

		if len(batches) > 1 {
			log.Info().
				Str("updater", Name).
				Int("batch", i+1).
				Int("batches", len(batches)).
				Int64("from", b.From).
				Int64("to", b.To).
				Msg("batch aggregated")
		}
	}

	log.Info().
		Str("updater", Name).
		Int64("from", r.From).
		Int64("to", r.To).
		Int("batches", len(batches)).
		Msg("overall stats updated")

	return nil
}
