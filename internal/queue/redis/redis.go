// Package redis implements job queues shared by several syncer instances.
//
// Repeatable jobs are kept in a Hash per queue, triggered jobs wait in a List.
// Every instance polls the repeatable jobs, but a trigger is enqueued only by
// the instance that claimed it first. Workers take a per-queue lock before
// running a job, so a job never runs twice at the same time across instances.
//
// Usage:
//
//	b, err := redisq.Connect("redis://localhost:6379")
//	if err != nil { ... }
//	b.OnError(func(err error) { log.Error().Err(err).Msg("redis") })
package redis

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/blobindexer/syncer/internal/queue"
)

var _ queue.Backend = (*Backend)(nil)

// Option configures the Backend.
type Option func(*Backend)

// WithPrefix sets the prefix of every key used by the backend.
func WithPrefix(p string) Option {
	return func(b *Backend) { b.prefix = p }
}

// WithPollInterval sets how often repeatable jobs are checked and
// how long workers block waiting for a job.
func WithPollInterval(d time.Duration) Option {
	return func(b *Backend) { b.pollInterval = d }
}

// WithLockTTL sets the TTL of the worker lock. The lock is renewed
// while the job runs, so the TTL only bounds the recovery after a crash.
func WithLockTTL(d time.Duration) Option {
	return func(b *Backend) { b.lockTTL = d }
}

// WithPingInterval sets how often the connection is checked.
func WithPingInterval(d time.Duration) Option {
	return func(b *Backend) { b.pingInterval = d }
}

type Backend struct {
	queue.Listeners

	client *redis.Client

	prefix       string
	pollInterval time.Duration
	lockTTL      time.Duration
	pingInterval time.Duration

	mx     sync.Mutex
	closed bool
	stop   chan struct{}
	wg     sync.WaitGroup
}

// Connect creates a backend for the given redis URI.
// Only a malformed URI fails, connection problems are reported to listeners.
func Connect(uri string, opts ...Option) (*Backend, error) {
	o, err := redis.ParseURL(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "parse redis uri")
	}
	return NewBackend(redis.NewClient(o), opts...), nil
}

// NewBackend takes ownership of the client, it is closed with the backend.
func NewBackend(client *redis.Client, opts ...Option) *Backend {
	b := &Backend{
		client:       client,
		prefix:       "syncer:",
		pollInterval: time.Second,
		lockTTL:      30 * time.Second,
		pingInterval: 10 * time.Second,
		stop:         make(chan struct{}),
	}
	for _, o := range opts {
		o(b)
	}

	b.wg.Add(1)
	go b.pingLoop()

	return b
}

func (b *Backend) Client() *redis.Client {
	return b.client
}

func (b *Backend) pingLoop() {
	defer b.wg.Done()

	t := time.NewTicker(b.pingInterval)
	defer t.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), b.pingInterval)
			err := b.client.Ping(ctx).Err()
			cancel()
			if err != nil {
				b.Emit(errors.Wrap(err, "redis connection"))
			}
		}
	}
}

func (b *Backend) isClosed() bool {
	b.mx.Lock()
	defer b.mx.Unlock()

	return b.closed
}

func (b *Backend) NewQueue(name string) (queue.Queue, error) { //nolint:ireturn // implements queue.Backend
	if b.isClosed() {
		return nil, errors.Wrap(queue.ErrClosed, "backend")
	}

	q := &Queue{
		backend: b,
		name:    name,
		stop:    make(chan struct{}),
	}

	q.wg.Add(1)
	go q.scheduleLoop()

	return q, nil
}

func (b *Backend) NewWorker(name string, proc queue.Processor) (queue.Worker, error) { //nolint:ireturn // implements queue.Backend
	if b.isClosed() {
		return nil, errors.Wrap(queue.ErrClosed, "backend")
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		backend: b,
		name:    name,
		proc:    proc,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go w.loop()

	return w, nil
}

func (b *Backend) Connected() bool {
	return !b.isClosed()
}

func (b *Backend) Close() error {
	b.mx.Lock()
	if b.closed {
		b.mx.Unlock()
		return nil
	}
	b.closed = true
	close(b.stop)
	b.mx.Unlock()

	b.wg.Wait()

	return errors.Wrap(b.client.Close(), "close redis client")
}
