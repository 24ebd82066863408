package updater

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/blobindexer/syncer/internal/app"
	"github.com/blobindexer/syncer/internal/core"
	"github.com/blobindexer/syncer/internal/queue"
)

var _ app.UpdaterService = (*Service)(nil)

// Service runs one named update function on a repeat pattern.
// The queue worker guarantees a single running update at a time.
type Service struct {
	name   string
	queue  queue.Queue
	worker queue.Worker
	update app.UpdateFunc
}

func New(name string, backend queue.Backend, update app.UpdateFunc) (*Service, error) {
	s := &Service{name: name, update: update}

	q, err := backend.NewQueue(name)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: create queue", name)
	}

	w, err := backend.NewWorker(name, s.process)
	if err != nil {
		_ = q.Close(context.Background())
		return nil, errors.Wrapf(err, "%s: create worker", name)
	}

	q.OnError(func(err error) {
		log.Error().Err(err).Str("updater", name).Msg("queue error")
	})
	w.OnError(func(err error) {
		log.Error().Err(err).Str("updater", name).Msg("worker error")
	})

	s.queue, s.worker = q, w

	return s, nil
}

func (s *Service) Name() string {
	return s.name
}

func (s *Service) process(ctx context.Context, job *queue.Job) error {
	defer core.Timer(time.Now(), "%s(%s)", s.name, job.ID)

	return s.update(ctx)
}

func (s *Service) Run(ctx context.Context, pattern string) (*queue.RepeatableJob, error) {
	job, err := s.queue.AddRepeatable(ctx, s.name, pattern)
	if err != nil {
		return nil, &app.SchedulingError{Updater: s.name, Err: err}
	}

	log.Info().
		Str("updater", s.name).
		Str("pattern", pattern).
		Time("next", job.Next).
		Msg("scheduled")

	return job, nil
}

func (s *Service) Trigger(ctx context.Context) (*queue.Job, error) {
	job, err := s.queue.Add(ctx, s.name)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: trigger", s.name)
	}
	return job, nil
}

// Enqueue triggers the named updater through the backend without running it here.
// A worker of the updater attached to the same backend takes the trigger.
// The queue is released together with the backend.
func Enqueue(ctx context.Context, backend queue.Backend, name string) (*queue.Job, error) {
	q, err := backend.NewQueue(name)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: create queue", name)
	}

	job, err := q.Add(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: trigger", name)
	}

	return job, nil
}

func (s *Service) Jobs(ctx context.Context) ([]*queue.RepeatableJob, error) {
	jobs, err := s.queue.ListRepeatable(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: list repeatable jobs", s.name)
	}
	return jobs, nil
}

func (s *Service) removeRepeatable(ctx context.Context) error {
	jobs, err := s.queue.ListRepeatable(ctx)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		if err := s.queue.RemoveRepeatable(ctx, j.Key()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Close(ctx context.Context) error {
	err := app.Teardown(s.name,
		app.TeardownStep{
			Name: "remove repeatable jobs",
			Run:  func() error { return s.removeRepeatable(ctx) },
		},
		app.TeardownStep{
			Name: "close worker",
			Run:  func() error { return s.worker.Close(ctx) },
		},
		app.TeardownStep{
			Name: "close queue",
			Run:  func() error { return s.queue.Close(ctx) },
		},
		app.TeardownStep{
			Name: "remove listeners",
			Run: func() error {
				s.queue.RemoveAllListeners()
				s.worker.RemoveAllListeners()
				return nil
			},
		},
	)
	if err != nil {
		return err
	}

	log.Info().Str("updater", s.name).Msg("closed")

	return nil
}
