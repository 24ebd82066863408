package run

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/blobindexer/syncer/internal/api/http"
	"github.com/blobindexer/syncer/internal/app"
	"github.com/blobindexer/syncer/internal/app/query"
	"github.com/blobindexer/syncer/internal/app/syncer"
	"github.com/blobindexer/syncer/internal/config"
	"github.com/blobindexer/syncer/internal/core/repository"
)

var Command = &cli.Command{
	Name:  "run",
	Usage: "Schedules stats syncers and serves the status API",

	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "shutdown-timeout",
			Usage: "time to wait for running updates on shutdown",
			Value: 5 * time.Minute,
		},
	},

	Action: func(ctx *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "load config")
		}
		if !cfg.Syncer.Enabled && cfg.Listen == "" {
			return errors.New("nothing to run: stats syncer is disabled and LISTEN is not set")
		}

		conn, err := repository.ConnectDB(ctx.Context, cfg.PostgresURL, cfg.ClickHouseURL)
		if err != nil {
			return errors.Wrap(err, "cannot connect to a database")
		}
		defer conn.Close()

		var s *syncer.Service

		if cfg.Syncer.Enabled {
			b, err := cfg.ConnectBackend()
			if err != nil {
				return err
			}
			s, err = syncer.Setup(conn, b, cfg.Syncer.OverallBatchSize)
			if err != nil {
				_ = b.Close()
				return err
			}
			if err := s.Start(ctx.Context, cfg.Schedule()); err != nil {
				if err := s.Close(context.Background()); err != nil {
					log.Error().Err(err).Msg("close stats syncer")
				}
				return err
			}
		} else {
			log.Info().Msg("stats syncer is disabled")
		}

		errCh := make(chan error, 1)

		if cfg.Listen != "" {
			qc := &app.QueryConfig{DB: conn}
			if s != nil {
				qc.Syncer = s
			}
			qs, err := query.NewService(ctx.Context, qc)
			if err != nil {
				return err
			}

			srv := http.NewServer(cfg.Listen)
			srv.LimitRate(cfg.RateLimit, cfg.RateLimitBurst)
			srv.RegisterRoutes(http.NewController(qs))

			go func() {
				errCh <- srv.Run()
			}()
		}

		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-c:
			log.Info().Str("signal", sig.String()).Msg("shutting down")
		case err = <-errCh:
			log.Error().Err(err).Msg("status api stopped")
		}

		if s != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), ctx.Duration("shutdown-timeout"))
			defer cancel()

			if err := s.Close(closeCtx); err != nil {
				return err
			}
		}

		return errors.Wrap(err, "serve status api")
	},
}
