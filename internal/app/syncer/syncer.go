package syncer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/blobindexer/syncer/internal/app"
	"github.com/blobindexer/syncer/internal/queue"
)

const Name = "stats-syncer"

var _ app.SyncerService = (*Service)(nil)

type Service struct {
	*app.SyncerConfig
}

func NewService(cfg *app.SyncerConfig) *Service {
	var s = new(Service)

	s.SyncerConfig = cfg

	s.Backend.OnError(func(err error) {
		log.Error().Err(err).Str("component", Name).Msg("queue backend connection error")
	})

	return s
}

// Start schedules both updaters concurrently.
// A registration that succeeded is kept even if the other one failed.
func (s *Service) Start(ctx context.Context, sch *app.SyncerSchedule) error {
	var g errgroup.Group

	g.Go(func() error {
		_, err := s.Daily.Run(ctx, sch.DailyCronPattern)
		return err
	})
	g.Go(func() error {
		_, err := s.Overall.Run(ctx, sch.OverallCronPattern)
		return err
	})

	if err := g.Wait(); err != nil {
		return &app.StartError{Err: err}
	}

	if sch.RunOnStart {
		for _, u := range []app.UpdaterService{s.Daily, s.Overall} {
			if _, err := u.Trigger(ctx); err != nil {
				return &app.StartError{Err: err}
			}
		}
	}

	log.Info().
		Str("daily_pattern", sch.DailyCronPattern).
		Str("overall_pattern", sch.OverallCronPattern).
		Bool("run_on_start", sch.RunOnStart).
		Msg("stats syncer started")

	return nil
}

func (s *Service) Jobs(ctx context.Context) ([]*queue.RepeatableJob, error) {
	var ret []*queue.RepeatableJob

	for _, u := range []app.UpdaterService{s.Daily, s.Overall} {
		jobs, err := u.Jobs(ctx)
		if err != nil {
			return nil, err
		}
		ret = append(ret, jobs...)
	}

	return ret, nil
}

func (s *Service) Close(ctx context.Context) error {
	err := app.Teardown(Name,
		app.TeardownStep{
			Name: "close " + s.Daily.Name(),
			Run:  func() error { return s.Daily.Close(ctx) },
		},
		app.TeardownStep{
			Name: "close " + s.Overall.Name(),
			Run:  func() error { return s.Overall.Close(ctx) },
		},
		app.TeardownStep{
			Name: "disconnect queue backend",
			Run: func() error {
				s.Backend.RemoveAllListeners()
				if !s.Backend.Connected() {
					return nil
				}
				return errors.Wrap(s.Backend.Close(), "close backend")
			},
		},
	)
	if err != nil {
		return err
	}

	log.Info().Msg("stats syncer closed")

	return nil
}
