package redis

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/blobindexer/syncer/internal/queue"
)

var _ queue.Queue = (*Queue)(nil)

// updates the repeatable job only if it was not removed in the meantime
var updateRepeatableScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 1 then
	return redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
end
return 0
`)

// pushes ARGV[1] with ARGV[2] (LPUSH or RPUSH) only to an empty list
var pushIfIdleScript = redis.NewScript(`
if redis.call("LLEN", KEYS[1]) > 0 then
	return 0
end
return redis.call(ARGV[2], KEYS[1], ARGV[1])
`)

type Queue struct {
	queue.Listeners

	backend *Backend
	name    string

	mx     sync.Mutex
	closed bool
	stop   chan struct{}
	wg     sync.WaitGroup
}

func (q *Queue) isClosed() bool {
	q.mx.Lock()
	defer q.mx.Unlock()

	return q.closed || q.backend.isClosed()
}

func (q *Queue) AddRepeatable(ctx context.Context, name, pattern string) (*queue.RepeatableJob, error) {
	sched, err := queue.ParseSchedule(pattern)
	if err != nil {
		return nil, err
	}
	if q.isClosed() {
		return nil, errors.Wrapf(queue.ErrClosed, "queue %s", q.name)
	}

	job := &queue.RepeatableJob{
		Queue:   q.name,
		Name:    name,
		Pattern: pattern,
		Next:    sched.Next(time.Now().UTC()),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return nil, errors.Wrap(err, "marshal repeatable job")
	}

	existing, err := q.ListRepeatable(ctx)
	if err != nil {
		return nil, err
	}

	key := q.backend.repeatKey(q.name)

	pipe := q.backend.client.TxPipeline()
	for _, e := range existing {
		if e.Name == name && e.Key() != job.Key() {
			pipe.HDel(ctx, key, e.Key())
		}
	}
	pipe.HSet(ctx, key, job.Key(), raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "add repeatable job %s", job.Key())
	}

	return job, nil
}

func (q *Queue) ListRepeatable(ctx context.Context) ([]*queue.RepeatableJob, error) {
	vals, err := q.backend.client.HGetAll(ctx, q.backend.repeatKey(q.name)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "list repeatable jobs of %s", q.name)
	}

	ret := make([]*queue.RepeatableJob, 0, len(vals))
	for key, raw := range vals {
		var job queue.RepeatableJob
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			log.Warn().Err(err).Str("queue", q.name).Str("key", key).Msg("cannot decode repeatable job")
			continue
		}
		ret = append(ret, &job)
	}

	sort.Slice(ret, func(i, j int) bool { return ret[i].Key() < ret[j].Key() })

	return ret, nil
}

func (q *Queue) RemoveRepeatable(ctx context.Context, key string) error {
	err := q.backend.client.HDel(ctx, q.backend.repeatKey(q.name), key).Err()
	if err != nil {
		return errors.Wrapf(err, "remove repeatable job %s", key)
	}
	return nil
}

func (q *Queue) Add(ctx context.Context, name string) (*queue.Job, error) {
	if q.isClosed() {
		return nil, errors.Wrapf(queue.ErrClosed, "queue %s", q.name)
	}

	job := &queue.Job{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: time.Now().UTC(),
	}

	if err := q.push(ctx, job); err != nil {
		return nil, err
	}

	return job, nil
}

func (q *Queue) push(ctx context.Context, job *queue.Job) error {
	return q.backend.pushPending(ctx, q.name, job, "LPUSH")
}

// pushPending puts the job to the wait list of the queue unless a trigger
// is already waiting there. At most one trigger waits for the worker.
func (b *Backend) pushPending(ctx context.Context, queueName string, job *queue.Job, cmd string) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "marshal job")
	}

	n, err := pushIfIdleScript.Run(ctx, b.client, []string{b.waitKey(queueName)}, raw, cmd).Int64()
	if err != nil {
		return errors.Wrapf(err, "push job to %s", queueName)
	}
	if n == 0 {
		log.Debug().Str("queue", queueName).Str("job", job.Name).Msg("previous trigger is still pending, skipping")
	}

	return nil
}

func (q *Queue) scheduleLoop() {
	defer q.wg.Done()

	t := time.NewTicker(q.backend.pollInterval)
	defer t.Stop()

	for {
		select {
		case <-q.stop:
			return
		case <-q.backend.stop:
			return
		case <-t.C:
			if err := q.fireDue(context.Background(), time.Now().UTC()); err != nil {
				q.Emit(err)
			}
		}
	}
}

// fireDue enqueues every repeatable job whose activation time has passed.
func (q *Queue) fireDue(ctx context.Context, now time.Time) error {
	jobs, err := q.ListRepeatable(ctx)
	if err != nil {
		return err
	}

	for _, rj := range jobs {
		if rj.Next.After(now) {
			continue
		}

		claimed, err := q.backend.client.SetNX(ctx,
			q.backend.fireKey(q.name, rj.Key(), rj.Next.Unix()), 1, 24*time.Hour).Result()
		if err != nil {
			return errors.Wrapf(err, "claim %s activation", rj.Key())
		}
		if claimed {
			err := q.push(ctx, &queue.Job{ID: uuid.NewString(), Name: rj.Name, Timestamp: now})
			if err != nil {
				return err
			}
		}

		next, err := queue.NextRun(rj.Pattern, now)
		if err != nil {
			return err
		}
		rj.Next = next

		raw, err := json.Marshal(rj)
		if err != nil {
			return errors.Wrap(err, "marshal repeatable job")
		}
		err = updateRepeatableScript.Run(ctx, q.backend.client, []string{q.backend.repeatKey(q.name)}, rj.Key(), raw).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return errors.Wrapf(err, "update %s next activation", rj.Key())
		}
	}

	return nil
}

// Close stops scheduling triggers from this instance.
// Repeatable jobs and a pending trigger stay in redis, they are shared with
// other instances and the next worker started on the queue picks the trigger up.
// The local backend drops its pending trigger instead, nothing else can consume it.
func (q *Queue) Close(_ context.Context) error {
	q.mx.Lock()
	if q.closed {
		q.mx.Unlock()
		return nil
	}
	q.closed = true
	close(q.stop)
	q.mx.Unlock()

	q.wg.Wait()

	return nil
}
