package local

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/blobindexer/syncer/internal/queue"
)

var _ queue.Queue = (*Queue)(nil)

type Queue struct {
	queue.Listeners

	backend *Backend
	st      *state
}

func (q *Queue) AddRepeatable(_ context.Context, name, pattern string) (*queue.RepeatableJob, error) {
	sched, err := queue.ParseSchedule(pattern)
	if err != nil {
		return nil, err
	}

	q.backend.mx.Lock()
	defer q.backend.mx.Unlock()

	if q.st.closed || q.backend.closed {
		return nil, errors.Wrapf(queue.ErrClosed, "queue %s", q.st.name)
	}

	// replace previous registrations of the job
	for key, e := range q.st.entries {
		if e.job.Name != name {
			continue
		}
		q.backend.cron.Remove(e.id)
		delete(q.st.entries, key)
	}

	job := &queue.RepeatableJob{
		Queue:   q.st.name,
		Name:    name,
		Pattern: pattern,
		Next:    sched.Next(time.Now().UTC()),
	}

	id := q.backend.cron.Schedule(sched, cron.FuncJob(func() {
		if _, err := q.backend.trigger(q.st, name); err != nil {
			log.Debug().Err(err).Str("queue", q.st.name).Str("job", name).Msg("repeatable trigger")
		}
	}))
	q.st.entries[job.Key()] = &entry{job: job, id: id}

	ret := *job
	return &ret, nil
}

func (q *Queue) ListRepeatable(_ context.Context) ([]*queue.RepeatableJob, error) {
	q.backend.mx.Lock()
	defer q.backend.mx.Unlock()

	ret := make([]*queue.RepeatableJob, 0, len(q.st.entries))
	for _, e := range q.st.entries {
		job := *e.job
		if next := q.backend.cron.Entry(e.id).Next; !next.IsZero() {
			job.Next = next
		}
		ret = append(ret, &job)
	}

	sort.Slice(ret, func(i, j int) bool { return ret[i].Key() < ret[j].Key() })

	return ret, nil
}

func (q *Queue) RemoveRepeatable(_ context.Context, key string) error {
	q.backend.mx.Lock()
	defer q.backend.mx.Unlock()

	e, ok := q.st.entries[key]
	if !ok {
		return nil
	}
	q.backend.cron.Remove(e.id)
	delete(q.st.entries, key)

	return nil
}

func (q *Queue) Add(_ context.Context, name string) (*queue.Job, error) {
	return q.backend.trigger(q.st, name)
}

// Close drops the pending trigger and every repeatable registration left.
func (q *Queue) Close(_ context.Context) error {
	q.backend.mx.Lock()
	defer q.backend.mx.Unlock()

	if q.st.closed {
		return nil
	}
	q.st.closed = true

	for key, e := range q.st.entries {
		q.backend.cron.Remove(e.id)
		delete(q.st.entries, key)
	}

	select {
	case <-q.st.triggers:
	default:
	}

	return nil
}
