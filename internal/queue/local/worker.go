package local

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/blobindexer/syncer/internal/queue"
)

var _ queue.Worker = (*Worker)(nil)

// Worker runs triggered jobs of one queue sequentially.
type Worker struct {
	queue.Listeners

	backend *Backend
	st      *state
	proc    queue.Processor

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func (w *Worker) stopped() bool {
	select {
	case <-w.stop:
		return true
	default:
		return false
	}
}

func (w *Worker) loop() {
	defer close(w.done)

	for {
		select {
		case <-w.stop:
			return
		case job := <-w.st.triggers:
			if w.stopped() {
				return
			}
			w.process(job)
		}
	}
}

func (w *Worker) process(job *queue.Job) {
	defer func() {
		if r := recover(); r != nil {
			w.Emit(errors.Errorf("job %s (%s) of queue %s panicked: %v", job.Name, job.ID, w.st.name, r))
		}
	}()

	log.Debug().Str("queue", w.st.name).Str("job", job.Name).Str("id", job.ID).Msg("processing job")

	if err := w.proc(context.Background(), job); err != nil {
		w.Emit(errors.Wrapf(err, "job %s (%s) of queue %s failed", job.Name, job.ID, w.st.name))
	}
}

// Close stops taking new jobs and waits for the running job.
// The wait is abandoned if ctx is done first.
func (w *Worker) Close(ctx context.Context) error {
	w.closeOnce.Do(func() {
		close(w.stop)
	})

	select {
	case <-w.done:
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "wait for the running job of queue %s", w.st.name)
	}

	w.backend.mx.Lock()
	if w.st.worker == w {
		w.st.worker = nil
	}
	w.backend.mx.Unlock()

	return nil
}
