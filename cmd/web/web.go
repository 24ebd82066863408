package web

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/allisson/go-env"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/blobindexer/syncer/internal/api/http"
	"github.com/blobindexer/syncer/internal/app"
	"github.com/blobindexer/syncer/internal/app/query"
	"github.com/blobindexer/syncer/internal/core/repository"
)

var Command = &cli.Command{
	Name:  "web",
	Usage: "HTTP JSON API over stored stats",

	Action: func(ctx *cli.Context) error {
		pgURL := env.GetString("DB_PG_URL", "")
		chURL := env.GetString("DB_CH_URL", "")

		conn, err := repository.ConnectDB(ctx.Context, pgURL, chURL)
		if err != nil {
			return errors.Wrap(err, "cannot connect to a database")
		}

		qs, err := query.NewService(ctx.Context, &app.QueryConfig{
			DB: conn,
		})
		if err != nil {
			return err
		}

		srv := http.NewServer(
			env.GetString("LISTEN", "0.0.0.0:80"),
		)
		srv.LimitRate(env.GetInt("API_RATE_LIMIT_RPS", 10), env.GetInt("API_RATE_LIMIT_BURST", 20))
		srv.RegisterRoutes(http.NewController(qs))

		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-c
			conn.Close()
			os.Exit(0)
		}()

		if err = srv.Run(); err != nil {
			return err
		}

		return nil
	},
}
