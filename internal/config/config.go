// Package config reads the process configuration from environment variables.
package config

import (
	"github.com/allisson/go-env"
	"github.com/pkg/errors"

	"github.com/blobindexer/syncer/internal/app"
	"github.com/blobindexer/syncer/internal/app/overallstats"
	"github.com/blobindexer/syncer/internal/core"
	"github.com/blobindexer/syncer/internal/queue"
)

const (
	RedisBackend = "redis"
	LocalBackend = "local"
)

type Syncer struct {
	Enabled bool

	DailyCronPattern   string
	OverallCronPattern string
	OverallBatchSize   int64

	RunOnStart bool
}

type Config struct {
	PostgresURL   string
	ClickHouseURL string

	QueueBackend string
	RedisURI     string

	// Listen is the address of the status API, empty disables it.
	Listen string
	// RateLimit is the number of requests per second allowed for one client
	// of the status API, zero disables the limit.
	RateLimit      int
	RateLimitBurst int

	Syncer Syncer
}

func Load() (*Config, error) {
	cfg := &Config{
		PostgresURL:    env.GetString("DB_PG_URL", ""),
		ClickHouseURL:  env.GetString("DB_CH_URL", ""),
		QueueBackend:   env.GetString("QUEUE_BACKEND", RedisBackend),
		RedisURI:       env.GetString("REDIS_URI", "redis://localhost:6379"),
		Listen:         env.GetString("LISTEN", ""),
		RateLimit:      env.GetInt("API_RATE_LIMIT_RPS", 10),
		RateLimitBurst: env.GetInt("API_RATE_LIMIT_BURST", 20),
		Syncer: Syncer{
			Enabled:            env.GetBool("STATS_SYNCER_ENABLED", false),
			DailyCronPattern:   env.GetString("STATS_SYNCER_DAILY_CRON_PATTERN", "30 0 * * *"),
			OverallCronPattern: env.GetString("STATS_SYNCER_OVERALL_CRON_PATTERN", "*/15 * * * *"),
			OverallBatchSize:   env.GetInt64("STATS_SYNCER_OVERALL_BATCH_SIZE", overallstats.DefaultBatchSize),
			RunOnStart:         env.GetBool("STATS_SYNCER_RUN_ON_START", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.PostgresURL == "" {
		return errors.Wrap(core.ErrInvalidArg, "DB_PG_URL is not set")
	}

	switch c.QueueBackend {
	case RedisBackend:
		if c.RedisURI == "" {
			return errors.Wrap(core.ErrInvalidArg, "REDIS_URI is not set")
		}
	case LocalBackend:
	default:
		return errors.Wrapf(core.ErrInvalidArg, "unknown queue backend '%s'", c.QueueBackend)
	}

	if !c.Syncer.Enabled {
		return nil
	}
	if c.Syncer.OverallBatchSize < 1 {
		return errors.Wrapf(core.ErrInvalidArg, "overall batch size must be positive, got %d", c.Syncer.OverallBatchSize)
	}
	for _, p := range []string{c.Syncer.DailyCronPattern, c.Syncer.OverallCronPattern} {
		if _, err := queue.ParseSchedule(p); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) Schedule() *app.SyncerSchedule {
	return &app.SyncerSchedule{
		DailyCronPattern:   c.Syncer.DailyCronPattern,
		OverallCronPattern: c.Syncer.OverallCronPattern,
		RunOnStart:         c.Syncer.RunOnStart,
	}
}
