package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/blobindexer/syncer/internal/app"
	"github.com/blobindexer/syncer/internal/app/dailystats"
	"github.com/blobindexer/syncer/internal/app/overallstats"
	"github.com/blobindexer/syncer/internal/app/query"
	"github.com/blobindexer/syncer/internal/app/syncer"
	"github.com/blobindexer/syncer/internal/app/updater"
	"github.com/blobindexer/syncer/internal/config"
	"github.com/blobindexer/syncer/internal/core"
	"github.com/blobindexer/syncer/internal/core/repository"
	"github.com/blobindexer/syncer/internal/queue/local"
)

func connect(ctx context.Context, cfg *config.Config) (*repository.DB, error) {
	conn, err := repository.ConnectDB(ctx, cfg.PostgresURL, cfg.ClickHouseURL)
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to a database")
	}
	return conn, nil
}

type updateService interface {
	app.UpdaterService
	Update(ctx context.Context) error
}

type newUpdateService func(cfg *config.Config, db *repository.DB, b *local.Backend) (updateService, error)

// update runs one aggregation tick. With the redis backend the tick is queued
// for the running syncers, unless --local is set. In-process ticks are safe
// to run next to the syncers, the overall stats cursor is checked under a row lock.
func update(c *cli.Context, name string, newService newUpdateService) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	if cfg.QueueBackend == config.RedisBackend && !c.Bool("local") {
		b, err := cfg.ConnectBackend()
		if err != nil {
			return err
		}
		defer func() { _ = b.Close() }()

		job, err := updater.Enqueue(c.Context, b, name)
		if err != nil {
			return err
		}

		log.Info().Str("updater", name).Str("id", job.ID).Msg("triggered")
		return nil
	}

	conn, err := connect(c.Context, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	b := local.NewBackend()
	defer func() { _ = b.Close() }()

	s, err := newService(cfg, conn, b)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close(c.Context) }()

	return s.Update(c.Context)
}

func printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

var localFlag = &cli.BoolFlag{
	Name:  "local",
	Usage: "run the update in this process instead of queueing it for the syncers",
}

var Command = &cli.Command{
	Name:  "stats",
	Usage: "Runs stats aggregation manually and prints stored stats",

	Subcommands: []*cli.Command{
		{
			Name:  "daily",
			Usage: "Populates daily stats up to the day before the latest indexed block",
			Flags: []cli.Flag{localFlag},
			Action: func(c *cli.Context) error {
				return update(c, dailystats.Name, func(_ *config.Config, db *repository.DB, b *local.Backend) (updateService, error) {
					return syncer.NewDailyStats(db, b)
				})
			},
		},
		{
			Name:  "overall",
			Usage: "Aggregates overall stats up to the last finalized block",
			Flags: []cli.Flag{localFlag},
			Action: func(c *cli.Context) error {
				return update(c, overallstats.Name, func(cfg *config.Config, db *repository.DB, b *local.Backend) (updateService, error) {
					return syncer.NewOverallStats(db, b, cfg.Syncer.OverallBatchSize)
				})
			},
		},
		{
			Name:  "show",
			Usage: "Prints overall stats and the sync state",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "daily",
					Usage: "also print daily stats of the given kind (blob, block, transaction)",
				},
				&cli.TimestampFlag{
					Name:   "from",
					Usage:  "first day of daily stats",
					Layout: "2006-01-02",
				},
			},
			Action: func(c *cli.Context) error {
				cfg, err := config.Load()
				if err != nil {
					return errors.Wrap(err, "load config")
				}
				conn, err := connect(c.Context, cfg)
				if err != nil {
					return err
				}
				defer conn.Close()

				qs, err := query.NewService(c.Context, &app.QueryConfig{DB: conn})
				if err != nil {
					return err
				}

				ret := struct {
					SyncState *core.SyncState   `json:"sync_state"`
					Overall   *app.OverallStats `json:"overall"`
					Daily     *app.DailyStats   `json:"daily,omitempty"`
				}{}

				ret.SyncState, err = qs.GetSyncState(c.Context)
				if err != nil && !errors.Is(err, core.ErrNotFound) {
					return err
				}
				ret.Overall, err = qs.GetOverallStats(c.Context)
				if err != nil {
					return err
				}

				if k := c.String("daily"); k != "" {
					kind, err := core.ParseStatsKind(k)
					if err != nil {
						return err
					}
					r := core.DayRange{To: core.Day(time.Now())}
					if from := c.Timestamp("from"); from != nil {
						day := core.Day(*from)
						r.From = &day
					}
					ret.Daily, err = qs.GetDailyStats(c.Context, kind, r)
					if err != nil {
						return err
					}
				}

				return printJSON(&ret)
			},
		},
	},
}
