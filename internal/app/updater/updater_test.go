package updater

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blobindexer/syncer/internal/app"
	"github.com/blobindexer/syncer/internal/queue"
	"github.com/blobindexer/syncer/internal/queue/local"
)

var ctx = context.Background()

func TestService_Run(t *testing.T) {
	b := local.NewBackend()
	defer func() { _ = b.Close() }()

	var calls int32
	s, err := New("overall-stats-syncer", b, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "overall-stats-syncer", s.Name())

	t.Run("schedule", func(t *testing.T) {
		job, err := s.Run(ctx, "*/15 * * * *")
		require.NoError(t, err)
		require.Equal(t, "overall-stats-syncer", job.Name)

		job, err = s.Run(ctx, "*/10 * * * *")
		require.NoError(t, err)

		jobs, err := s.Jobs(ctx)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		require.Equal(t, job.Key(), jobs[0].Key())
	})

	t.Run("scheduling error", func(t *testing.T) {
		_, err := s.Run(ctx, "each quarter of an hour")
		require.Error(t, err)

		var schedErr *app.SchedulingError
		require.True(t, errors.As(err, &schedErr))
		require.Equal(t, "overall-stats-syncer", schedErr.Updater)
		require.True(t, errors.Is(err, queue.ErrInvalidPattern))
	})

	t.Run("trigger", func(t *testing.T) {
		_, err := s.Trigger(ctx)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return atomic.LoadInt32(&calls) == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("close", func(t *testing.T) {
		require.NoError(t, s.Close(ctx))

		jobs, err := s.Jobs(ctx)
		require.NoError(t, err)
		require.Empty(t, jobs)
	})
}

func TestService_CloseWaitsForUpdate(t *testing.T) {
	b := local.NewBackend()
	defer func() { _ = b.Close() }()

	started := make(chan struct{})
	var finished int32

	s, err := New("daily-stats-syncer", b, func(ctx context.Context) error {
		close(started)
		time.Sleep(100 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
		return nil
	})
	require.NoError(t, err)

	_, err = s.Run(ctx, "30 0 * * *")
	require.NoError(t, err)
	_, err = s.Trigger(ctx)
	require.NoError(t, err)
	<-started

	require.NoError(t, s.Close(ctx))
	require.Equal(t, int32(1), atomic.LoadInt32(&finished))
}

func TestEnqueue(t *testing.T) {
	b := local.NewBackend()
	defer func() { _ = b.Close() }()

	var calls int32
	s, err := New("overall-stats-syncer", b, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	require.NoError(t, err)
	defer func() { _ = s.Close(ctx) }()

	// a separate client of the backend triggers the running updater
	job, err := Enqueue(ctx, b, "overall-stats-syncer")
	require.NoError(t, err)
	require.Equal(t, "overall-stats-syncer", job.Name)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, b.Close())
	_, err = Enqueue(ctx, b, "overall-stats-syncer")
	require.True(t, errors.Is(err, queue.ErrClosed))
}

type fakeBackend struct {
	queue  *fakeQueue
	worker *fakeWorker
}

func (b *fakeBackend) NewQueue(string) (queue.Queue, error) { return b.queue, nil }
func (b *fakeBackend) NewWorker(string, queue.Processor) (queue.Worker, error) {
	return b.worker, nil
}
func (b *fakeBackend) OnError(queue.ErrorListener) {}
func (b *fakeBackend) RemoveAllListeners()         {}
func (b *fakeBackend) Connected() bool             { return true }
func (b *fakeBackend) Close() error                { return nil }

type fakeQueue struct {
	queue.Listeners

	addErr  error
	listErr error
	closed  bool
}

func (q *fakeQueue) AddRepeatable(_ context.Context, name, pattern string) (*queue.RepeatableJob, error) {
	if q.addErr != nil {
		return nil, q.addErr
	}
	return &queue.RepeatableJob{Name: name, Pattern: pattern}, nil
}
func (q *fakeQueue) ListRepeatable(context.Context) ([]*queue.RepeatableJob, error) {
	return nil, q.listErr
}
func (q *fakeQueue) RemoveRepeatable(context.Context, string) error { return nil }
func (q *fakeQueue) Add(_ context.Context, name string) (*queue.Job, error) {
	return &queue.Job{Name: name}, nil
}
func (q *fakeQueue) Close(context.Context) error {
	q.closed = true
	return nil
}

type fakeWorker struct {
	queue.Listeners

	closeErr error
}

func (w *fakeWorker) Close(context.Context) error { return w.closeErr }

func TestService_CloseCollectsErrors(t *testing.T) {
	errList, errWorker := errors.New("connection reset"), errors.New("worker is stuck")

	b := &fakeBackend{
		queue:  &fakeQueue{listErr: errList},
		worker: &fakeWorker{closeErr: errWorker},
	}

	s, err := New("daily-stats-syncer", b, func(context.Context) error { return nil })
	require.NoError(t, err)
	require.Equal(t, 1, b.queue.Len())
	require.Equal(t, 1, b.worker.Len())

	err = s.Close(ctx)
	require.Error(t, err)

	var closeErr *app.CloseError
	require.True(t, errors.As(err, &closeErr))
	require.Equal(t, "daily-stats-syncer", closeErr.Component)
	require.Len(t, closeErr.Errs, 2)
	assert.True(t, errors.Is(err, errList))
	assert.True(t, errors.Is(err, errWorker))

	// later steps still ran
	assert.True(t, b.queue.closed)
	assert.Equal(t, 0, b.queue.Len())
	assert.Equal(t, 0, b.worker.Len())
}

func TestService_RunRejected(t *testing.T) {
	errRejected := errors.New("READONLY You can't write against a read only replica")

	b := &fakeBackend{queue: &fakeQueue{addErr: errRejected}, worker: &fakeWorker{}}

	s, err := New("overall-stats-syncer", b, func(context.Context) error { return nil })
	require.NoError(t, err)

	_, err = s.Run(ctx, "*/15 * * * *")
	require.True(t, errors.Is(err, errRejected))
	require.Contains(t, err.Error(), "overall-stats-syncer")
}
