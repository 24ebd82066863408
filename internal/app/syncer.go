package app

import (
	"context"

	"github.com/blobindexer/syncer/internal/queue"
)

type SyncerConfig struct {
	Backend queue.Backend
	Daily   UpdaterService
	Overall UpdaterService
}

type SyncerSchedule struct {
	DailyCronPattern   string
	OverallCronPattern string

	// RunOnStart triggers both updaters right after scheduling.
	RunOnStart bool
}

type SyncerService interface {
	Start(ctx context.Context, sch *SyncerSchedule) error
	Jobs(ctx context.Context) ([]*queue.RepeatableJob, error)
	Close(ctx context.Context) error
}
