package redis

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/blobindexer/syncer/internal/queue"
)

var _ queue.Worker = (*Worker)(nil)

var (
	renewLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)
	releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
)

type Worker struct {
	queue.Listeners

	backend *Backend
	name    string
	proc    queue.Processor

	// ctx is cancelled on Close to interrupt waiting for a job,
	// running jobs are never cancelled
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func (w *Worker) loop() {
	defer close(w.done)

	for w.ctx.Err() == nil {
		job, err := w.pop()
		if err != nil {
			if w.ctx.Err() != nil {
				return
			}
			w.Emit(err)
			w.sleep()
			continue
		}
		if job == nil {
			continue
		}

		token := uuid.NewString()

		locked, err := w.backend.client.SetNX(w.ctx, w.backend.lockKey(w.name), token, w.backend.lockTTL).Result()
		if err != nil || !locked {
			// another instance runs the job, leave the trigger for later
			if err := w.requeue(job); err != nil {
				w.Emit(err)
			}
			w.sleep()
			continue
		}

		w.process(job, token)
	}
}

func (w *Worker) sleep() {
	select {
	case <-w.ctx.Done():
	case <-time.After(w.backend.pollInterval):
	}
}

func (w *Worker) pop() (*queue.Job, error) {
	res, err := w.backend.client.BRPop(w.ctx, w.backend.pollInterval, w.backend.waitKey(w.name)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "pop job from %s", w.name)
	}

	var job queue.Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, errors.Wrapf(err, "decode job of %s", w.name)
	}

	return &job, nil
}

// requeue returns the job to the consuming end of the wait list,
// unless a newer trigger has been pushed in the meantime.
func (w *Worker) requeue(job *queue.Job) error {
	return errors.Wrapf(w.backend.pushPending(context.Background(), w.name, job, "RPUSH"),
		"requeue job to %s", w.name)
}

func (w *Worker) process(job *queue.Job, token string) {
	ctx := context.Background()
	key := w.backend.lockKey(w.name)

	stopRenew := make(chan struct{})
	renewed := make(chan struct{})
	go func() {
		defer close(renewed)

		t := time.NewTicker(w.backend.lockTTL / 3)
		defer t.Stop()

		for {
			select {
			case <-stopRenew:
				return
			case <-t.C:
				err := renewLockScript.Run(ctx, w.backend.client, []string{key}, token, w.backend.lockTTL.Milliseconds()).Err()
				if err != nil {
					w.Emit(errors.Wrapf(err, "renew %s lock", w.name))
				}
			}
		}
	}()

	defer func() {
		close(stopRenew)
		<-renewed

		if err := releaseLockScript.Run(ctx, w.backend.client, []string{key}, token).Err(); err != nil {
			w.Emit(errors.Wrapf(err, "release %s lock", w.name))
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			w.Emit(errors.Errorf("job %s (%s) of queue %s panicked: %v", job.Name, job.ID, w.name, r))
		}
	}()

	log.Debug().Str("queue", w.name).Str("job", job.Name).Str("id", job.ID).Msg("processing job")

	if err := w.proc(ctx, job); err != nil {
		w.Emit(errors.Wrapf(err, "job %s (%s) of queue %s failed", job.Name, job.ID, w.name))
	}
}

// Close stops taking new jobs and waits for the running job.
// The wait is abandoned if ctx is done first.
func (w *Worker) Close(ctx context.Context) error {
	w.cancel()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "wait for the running job of queue %s", w.name)
	}
}
