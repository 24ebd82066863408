// Package queue describes named durable job queues consumed by a single worker.
//
// A Backend is the shared connection to the place the queue state lives.
// Queues hold repeatable job registrations and pending triggers,
// workers execute the triggered jobs one at a time.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

var (
	ErrClosed         = errors.New("queue is closed")
	ErrInvalidPattern = errors.New("invalid repeat pattern")
)

// Processor is executed by a worker for every triggered job.
type Processor func(ctx context.Context, job *Job) error

// ErrorListener receives errors happening in the background.
type ErrorListener func(err error)

// Job is a single trigger of a repeatable job.
type Job struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// RepeatableJob is a job registered to be triggered on a cron pattern.
type RepeatableJob struct {
	Queue   string    `json:"queue"`
	Name    string    `json:"name"`
	Pattern string    `json:"pattern"`
	Next    time.Time `json:"next"`
}

// Key identifies a repeatable job within its queue.
func (j *RepeatableJob) Key() string {
	return RepeatableKey(j.Name, j.Pattern)
}

func RepeatableKey(name, pattern string) string {
	return fmt.Sprintf("%s::%s", name, pattern)
}

type Backend interface {
	NewQueue(name string) (Queue, error)
	NewWorker(name string, proc Processor) (Worker, error)

	// OnError attaches a connection-level error listener.
	OnError(l ErrorListener)
	RemoveAllListeners()

	Connected() bool
	Close() error
}

type Queue interface {
	// AddRepeatable registers a job triggered on the given cron pattern.
	// An existing registration of the same job name is replaced.
	AddRepeatable(ctx context.Context, name, pattern string) (*RepeatableJob, error)
	ListRepeatable(ctx context.Context) ([]*RepeatableJob, error)
	RemoveRepeatable(ctx context.Context, key string) error

	// Add triggers the job once, as soon as the worker is free.
	Add(ctx context.Context, name string) (*Job, error)

	OnError(l ErrorListener)
	RemoveAllListeners()

	Close(ctx context.Context) error
}

type Worker interface {
	// OnError attaches a listener for failed jobs and worker errors.
	OnError(l ErrorListener)
	RemoveAllListeners()

	// Close stops taking new jobs and waits for the running one to finish.
	Close(ctx context.Context) error
}

// Standard 5-field cron with optional leading seconds and descriptors like "@every 30s".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a cron pattern. Patterns are evaluated in UTC.
func ParseSchedule(pattern string) (cron.Schedule, error) {
	s, err := cronParser.Parse(pattern)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidPattern, "'%s': %s", pattern, err)
	}
	return s, nil
}

// NextRun returns the first activation of the pattern after t.
func NextRun(pattern string, t time.Time) (time.Time, error) {
	s, err := ParseSchedule(pattern)
	if err != nil {
		return time.Time{}, err
	}
	return s.Next(t.UTC()), nil
}
