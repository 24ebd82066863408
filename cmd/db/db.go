package db

import (
	"context"
	"time"

	"github.com/allisson/go-env"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	"github.com/blobindexer/syncer/internal/core/repository"
	"github.com/blobindexer/syncer/migrations/pg"
)

func connect(ctx context.Context) (*repository.DB, error) {
	pgURL := env.GetString("DB_PG_URL", "")
	chURL := env.GetString("DB_CH_URL", "")

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, err := repository.ConnectDB(ctx, pgURL, chURL)
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to the databases")
	}
	return conn, nil
}

// withMigrator passes a locked migrator to f.
func withMigrator(c *cli.Context, f func(m *migrate.Migrator) error) error {
	conn, err := connect(c.Context)
	if err != nil {
		return err
	}
	defer conn.Close()

	m := migrate.NewMigrator(conn.PG, pgmigrations.Migrations)

	if err := m.Lock(c.Context); err != nil {
		return err
	}
	defer func() {
		if err := m.Unlock(c.Context); err != nil {
			log.Error().Err(err).Msg("cannot unlock pg")
		}
	}()

	return f(m)
}

var Command = &cli.Command{
	Name:  "migrate",
	Usage: "Migrates database",

	Subcommands: []*cli.Command{
		{
			Name:  "init",
			Usage: "Creates migration tables",
			Action: func(c *cli.Context) error {
				conn, err := connect(c.Context)
				if err != nil {
					return err
				}
				defer conn.Close()

				return migrate.NewMigrator(conn.PG, pgmigrations.Migrations).Init(c.Context)
			},
		},
		{
			Name:  "up",
			Usage: "Migrates database",
			Action: func(c *cli.Context) error {
				return withMigrator(c, func(m *migrate.Migrator) error {
					group, err := m.Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						log.Info().Msg("there are no new migrations to run (pg database is up to date)")
						return nil
					}
					log.Info().Str("group", group.String()).Msg("pg migrated")
					return nil
				})
			},
		},
		{
			Name:  "down",
			Usage: "Rollbacks the last migration group",
			Action: func(c *cli.Context) error {
				return withMigrator(c, func(m *migrate.Migrator) error {
					group, err := m.Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						log.Info().Msg("there are no pg groups to roll back")
						return nil
					}
					log.Info().Str("group", group.String()).Msg("pg rolled back")
					return nil
				})
			},
		},
		{
			Name:  "status",
			Usage: "Prints migrations status",
			Action: func(c *cli.Context) error {
				conn, err := connect(c.Context)
				if err != nil {
					return err
				}
				defer conn.Close()

				ms, err := migrate.NewMigrator(conn.PG, pgmigrations.Migrations).MigrationsWithStatus(c.Context)
				if err != nil {
					return err
				}
				log.Info().Str("slice", ms.String()).Msg("pg all")
				log.Info().Str("slice", ms.Unapplied().String()).Msg("pg unapplied")
				log.Info().Str("group", ms.LastGroup().String()).Msg("pg last migration")

				return nil
			},
		},
		{
			Name:  "unlock",
			Usage: "Unlocks migrations",
			Action: func(c *cli.Context) error {
				conn, err := connect(c.Context)
				if err != nil {
					return err
				}
				defer conn.Close()

				return migrate.NewMigrator(conn.PG, pgmigrations.Migrations).Unlock(c.Context)
			},
		},
		{
			Name:  "mark_applied",
			Usage: "Marks migrations as applied without actually running them",
			Action: func(c *cli.Context) error {
				return withMigrator(c, func(m *migrate.Migrator) error {
					group, err := m.Migrate(c.Context, migrate.WithNopMigration())
					if err != nil {
						return err
					}
					if group.IsZero() {
						log.Info().Msg("there are no new pg migrations to mark as applied")
						return nil
					}
					log.Info().Str("group", group.String()).Msg("pg marked as applied")
					return nil
				})
			},
		},
		{
			Name:  "indexer_tables",
			Usage: "Creates indexer tables for local development and tests",
			Action: func(c *cli.Context) error {
				conn, err := connect(c.Context)
				if err != nil {
					return err
				}
				defer conn.Close()

				if err := repository.CreateTables(c.Context, conn, true); err != nil {
					return err
				}
				log.Info().Bool("clickhouse", conn.CH != nil).Msg("indexer tables created")
				return nil
			},
		},
	},
}
