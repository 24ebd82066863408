// Package local implements in-process job queues for single instance deployments.
// Repeat patterns are scheduled with robfig/cron, queue state is lost on restart.
package local

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/blobindexer/syncer/internal/queue"
)

var _ queue.Backend = (*Backend)(nil)

type Backend struct {
	queue.Listeners

	cron *cron.Cron

	mx     sync.Mutex
	queues map[string]*state
	closed bool
}

// state is shared by the queue and the worker with the same name.
type state struct {
	name string

	// at most one trigger waits for the worker, the rest are coalesced
	triggers chan *queue.Job

	entries map[string]*entry
	worker  *Worker
	closed  bool
}

type entry struct {
	job *queue.RepeatableJob
	id  cron.EntryID
}

func NewBackend() *Backend {
	b := &Backend{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		queues: make(map[string]*state),
	}
	b.cron.Start()
	return b
}

func (b *Backend) state(name string) (*state, error) {
	if b.closed {
		return nil, errors.Wrapf(queue.ErrClosed, "backend")
	}
	if st, ok := b.queues[name]; ok {
		return st, nil
	}
	st := &state{
		name:     name,
		triggers: make(chan *queue.Job, 1),
		entries:  make(map[string]*entry),
	}
	b.queues[name] = st
	return st, nil
}

func (b *Backend) NewQueue(name string) (queue.Queue, error) { //nolint:ireturn // implements queue.Backend
	b.mx.Lock()
	defer b.mx.Unlock()

	st, err := b.state(name)
	if err != nil {
		return nil, err
	}
	st.closed = false

	return &Queue{backend: b, st: st}, nil
}

func (b *Backend) NewWorker(name string, proc queue.Processor) (queue.Worker, error) { //nolint:ireturn // implements queue.Backend
	b.mx.Lock()
	defer b.mx.Unlock()

	st, err := b.state(name)
	if err != nil {
		return nil, err
	}
	if st.worker != nil {
		return nil, errors.Errorf("queue %s already has a worker", name)
	}

	w := &Worker{
		backend: b,
		st:      st,
		proc:    proc,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	st.worker = w

	go w.loop()

	return w, nil
}

func (b *Backend) Connected() bool {
	b.mx.Lock()
	defer b.mx.Unlock()

	return !b.closed
}

// Close stops the cron runner and waits for running triggers.
// Workers are closed by their owners.
func (b *Backend) Close() error {
	b.mx.Lock()
	if b.closed {
		b.mx.Unlock()
		return nil
	}
	b.closed = true
	b.mx.Unlock()

	<-b.cron.Stop().Done()

	return nil
}

func (b *Backend) trigger(st *state, name string) (*queue.Job, error) {
	b.mx.Lock()
	closed := st.closed || b.closed
	b.mx.Unlock()
	if closed {
		return nil, errors.Wrapf(queue.ErrClosed, "queue %s", st.name)
	}

	job := &queue.Job{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: time.Now().UTC(),
	}

	select {
	case st.triggers <- job:
	default:
		log.Debug().Str("queue", st.name).Str("job", name).Msg("previous trigger is still pending, skipping")
	}

	return job, nil
}
