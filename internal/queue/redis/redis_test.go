package redis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/allisson/go-env"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/blobindexer/syncer/internal/core/rndm"
	"github.com/blobindexer/syncer/internal/queue"
)

var ctx = context.Background()

func initBackend(t *testing.T) *Backend {
	b, err := Connect(env.GetString("REDIS_URI", "redis://localhost:6379/0"),
		WithPrefix("syncer-test-"+rndm.String(8)+":"),
		WithPollInterval(50*time.Millisecond),
		WithLockTTL(time.Second))
	require.NoError(t, err)

	if err := b.Client().Ping(ctx).Err(); err != nil {
		_ = b.Close()
		t.Skipf("redis is not available: %s", err)
	}

	t.Cleanup(func() {
		keys, _ := b.Client().Keys(ctx, b.prefix+"*").Result()
		if len(keys) > 0 {
			_ = b.Client().Del(ctx, keys...).Err()
		}
		_ = b.Close()
	})

	return b
}

func TestConnect_WrongURI(t *testing.T) {
	_, err := Connect("localhost:6379")
	require.Error(t, err)
}

func TestQueue_Repeatable(t *testing.T) {
	b := initBackend(t)

	q, err := b.NewQueue("overall-stats-syncer")
	require.NoError(t, err)
	defer func() { _ = q.Close(ctx) }()

	t.Run("add and replace", func(t *testing.T) {
		_, err := q.AddRepeatable(ctx, "overall-stats-syncer", "*/15 * * * *")
		require.NoError(t, err)

		job, err := q.AddRepeatable(ctx, "overall-stats-syncer", "*/5 * * * *")
		require.NoError(t, err)

		jobs, err := q.ListRepeatable(ctx)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		require.Equal(t, job.Key(), jobs[0].Key())
		require.Equal(t, job.Next.Unix(), jobs[0].Next.Unix())
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := q.AddRepeatable(ctx, "overall-stats-syncer", "sometimes")
		require.True(t, errors.Is(err, queue.ErrInvalidPattern))
	})

	t.Run("remove", func(t *testing.T) {
		jobs, err := q.ListRepeatable(ctx)
		require.NoError(t, err)
		for _, j := range jobs {
			require.NoError(t, q.RemoveRepeatable(ctx, j.Key()))
		}

		jobs, err = q.ListRepeatable(ctx)
		require.NoError(t, err)
		require.Empty(t, jobs)
	})
}

func TestQueue_FireDueOnce(t *testing.T) {
	b := initBackend(t)

	// two instances sharing the same redis
	q1, err := b.NewQueue("daily-stats-syncer")
	require.NoError(t, err)
	defer func() { _ = q1.Close(ctx) }()
	q2, err := b.NewQueue("daily-stats-syncer")
	require.NoError(t, err)
	defer func() { _ = q2.Close(ctx) }()

	// the next activation is far enough for the background loops to stay idle
	rj, err := q1.AddRepeatable(ctx, "daily-stats-syncer", "30 0 * * *")
	require.NoError(t, err)

	now := rj.Next.Add(time.Second)
	require.NoError(t, q1.(*Queue).fireDue(ctx, now))
	require.NoError(t, q2.(*Queue).fireDue(ctx, now))

	n, err := b.Client().LLen(ctx, b.waitKey("daily-stats-syncer")).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	jobs, err := q1.ListRepeatable(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.True(t, jobs[0].Next.After(now))
}

func TestWorker_Process(t *testing.T) {
	b := initBackend(t)

	q, err := b.NewQueue("daily-stats-syncer")
	require.NoError(t, err)
	defer func() { _ = q.Close(ctx) }()

	var processed int32
	w, err := b.NewWorker("daily-stats-syncer", func(ctx context.Context, job *queue.Job) error {
		atomic.AddInt32(&processed, 1)
		return errors.New("nothing to aggregate")
	})
	require.NoError(t, err)

	errs := make(chan error, 1)
	w.OnError(func(err error) {
		select {
		case errs <- err:
		default:
		}
	})

	_, err = q.Add(ctx, "daily-stats-syncer")
	require.NoError(t, err)

	select {
	case err := <-errs:
		require.Contains(t, err.Error(), "nothing to aggregate")
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	require.NoError(t, w.Close(ctx))
	require.Equal(t, int32(1), atomic.LoadInt32(&processed))

	locked, err := b.Client().Exists(ctx, b.lockKey("daily-stats-syncer")).Result()
	require.NoError(t, err)
	require.Equal(t, int64(0), locked)
}

func TestWorker_RequeueCoalesced(t *testing.T) {
	b := initBackend(t)

	q, err := b.NewQueue("overall-stats-syncer")
	require.NoError(t, err)
	defer func() { _ = q.Close(ctx) }()

	// the worker loop is not started, so nothing consumes the wait list
	w := &Worker{backend: b, name: "overall-stats-syncer"}

	popped := &queue.Job{ID: "popped", Name: "overall-stats-syncer", Timestamp: time.Now().UTC()}

	// a newer trigger arrived while the popped job waited for the lock
	_, err = q.Add(ctx, "overall-stats-syncer")
	require.NoError(t, err)

	require.NoError(t, w.requeue(popped))

	n, err := b.Client().LLen(ctx, b.waitKey("overall-stats-syncer")).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	// nothing is pending, the popped job goes back
	require.NoError(t, b.Client().Del(ctx, b.waitKey("overall-stats-syncer")).Err())
	require.NoError(t, w.requeue(popped))

	raw, err := b.Client().LRange(ctx, b.waitKey("overall-stats-syncer"), 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, raw, 1)
	require.Contains(t, raw[0], `"popped"`)
}

func TestQueue_ClosePendingTrigger(t *testing.T) {
	b := initBackend(t)

	q, err := b.NewQueue("daily-stats-syncer")
	require.NoError(t, err)

	job, err := q.Add(ctx, "daily-stats-syncer")
	require.NoError(t, err)
	require.NoError(t, q.Close(ctx))

	n, err := b.Client().LLen(ctx, b.waitKey("daily-stats-syncer")).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got := make(chan string, 1)
	w, err := b.NewWorker("daily-stats-syncer", func(ctx context.Context, j *queue.Job) error {
		select {
		case got <- j.ID:
		default:
		}
		return nil
	})
	require.NoError(t, err)
	defer func() { _ = w.Close(ctx) }()

	select {
	case id := <-got:
		require.Equal(t, job.ID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("pending trigger was not picked up after close")
	}
}
