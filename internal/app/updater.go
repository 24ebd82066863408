package app

import (
	"context"

	"github.com/blobindexer/syncer/internal/queue"
)

// UpdateFunc is one tick of an updater. It must be safe to call again
// after a failed call, the next tick resumes from the persisted state.
type UpdateFunc func(ctx context.Context) error

type UpdaterService interface {
	Name() string

	// Run registers (or replaces) the repeatable job of the updater.
	Run(ctx context.Context, pattern string) (*queue.RepeatableJob, error)
	// Trigger runs the update once, as soon as the worker is free.
	Trigger(ctx context.Context) (*queue.Job, error)
	Jobs(ctx context.Context) ([]*queue.RepeatableJob, error)

	// Close removes the repeatable job and waits for the running update.
	Close(ctx context.Context) error
}
