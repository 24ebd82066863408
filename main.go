package main

import (
	"fmt"
	"os"

	"github.com/allisson/go-env"
	"github.com/urfave/cli/v2"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/blobindexer/syncer/cmd/db"
	"github.com/blobindexer/syncer/cmd/run"
	"github.com/blobindexer/syncer/cmd/stats"
	"github.com/blobindexer/syncer/cmd/web"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if env.GetBool("DEBUG_LOGS", false) {
		level = zerolog.DebugLevel
	}

	// add file and line number to log
	log.Logger = log.With().Caller().Logger().Level(level)
}

func main() {
	app := &cli.App{
		Name:  "syncer",
		Usage: "periodic blob, block and transaction stats aggregation",
		Commands: []*cli.Command{
			run.Command,
			stats.Command,
			web.Command,
			db.Command,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
