package dailystats

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/blobindexer/syncer/internal/app"
	"github.com/blobindexer/syncer/internal/app/updater"
	"github.com/blobindexer/syncer/internal/core"
)

const Name = "daily-stats-syncer"

var _ app.DailyStatsService = (*Service)(nil)

type Service struct {
	*app.DailyStatsConfig
	*updater.Service
}

func NewService(cfg *app.DailyStatsConfig) (*Service, error) {
	var s = new(Service)

	s.DailyStatsConfig = cfg

	u, err := updater.New(Name, cfg.Backend, s.Update)
	if err != nil {
		return nil, err
	}
	s.Service = u

	return s, nil
}

type pending struct {
	entity app.DailyStatsEntity
	from   *time.Time
}

// targetDay is the last complete day, the day of the latest block may still grow.
func (s *Service) targetDay(ctx context.Context) (time.Time, bool, error) {
	latest, err := s.BlockSource.GetLatestBlock(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, "get latest block")
	}
	return core.Day(latest.Timestamp).AddDate(0, 0, -1), true, nil
}

func (s *Service) pendingKinds(ctx context.Context, target time.Time) ([]pending, error) {
	var ret []pending

	for _, e := range s.Entities {
		last, err := e.Repo.GetLastDay(ctx)
		if errors.Is(err, core.ErrNotFound) {
			ret = append(ret, pending{entity: e})
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "get last %s stats day", e.Kind)
		}

		last = core.Day(last)
		if !last.Before(target) {
			continue
		}

		from := last.AddDate(0, 0, 1)
		ret = append(ret, pending{entity: e, from: &from})
	}

	return ret, nil
}

// Update backfills daily stats of every kind up to the last complete day.
func (s *Service) Update(ctx context.Context) error {
	target, ok, err := s.targetDay(ctx)
	if err != nil {
		return errors.Wrap(err, Name)
	}
	if !ok {
		log.Info().Str("updater", Name).Msg("no blocks indexed yet, skipping")
		return nil
	}

	todo, err := s.pendingKinds(ctx, target)
	if err != nil {
		return errors.Wrap(err, Name)
	}
	if len(todo) == 0 {
		log.Info().
			Str("updater", Name).
			Time("target_day", target).
			Msg("daily stats are up to date, skipping")
		return nil
	}

	var total int
	populated := zerolog.Dict()
	for _, p := range todo {
		n, err := p.entity.Repo.Populate(ctx, core.DayRange{From: p.from, To: target})
		if err != nil {
			return errors.Wrapf(err, "%s: populate %s stats", Name, p.entity.Kind)
		}
		populated.Int(string(p.entity.Kind), n)
		total += n
	}

	// a kind without rows on its pending days is retried on every tick
	if total == 0 {
		log.Info().
			Str("updater", Name).
			Time("target_day", target).
			Msg("no new daily stats rows, skipping")
		return nil
	}

	log.Info().
		Str("updater", Name).
		Time("target_day", target).
		Dict("populated_days", populated).
		Msg("daily stats updated")

	return nil
}
