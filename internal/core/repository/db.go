package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/go-clickhouse/ch"

	"github.com/blobindexer/syncer/internal/core"
)

type DB struct {
	PG *bun.DB
	CH *ch.DB // nil if the indexer does not mirror blocks to clickhouse
}

func (db *DB) Close() {
	if db.CH != nil {
		_ = db.CH.Close()
	}
	_ = db.PG.Close()
}

func ConnectDB(ctx context.Context, dsnPG, dsnCH string, opts ...ch.Option) (*DB, error) {
	var err error

	sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsnPG), pgdriver.WithWriteTimeout(time.Minute)))
	pgDB := bun.NewDB(sqlDB, pgdialect.New())

	for i := 0; i < 8; i++ { // wait for pg start
		err = pgDB.PingContext(ctx)
		if err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, errors.Wrap(err, "cannot ping pg")
	}

	db := &DB{PG: pgDB}
	if dsnCH == "" {
		return db, nil
	}

	opts = append(opts, ch.WithDSN(dsnCH), ch.WithPoolSize(16))
	chDB := ch.Connect(opts...)

	for i := 0; i < 8; i++ { // wait for ch start
		err = chDB.Ping(ctx)
		if err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = pgDB.Close()
		return nil, errors.Wrap(err, "cannot ping ch")
	}
	db.CH = chDB

	return db, nil
}

var _ core.TransactionRunner = (*TxRunner)(nil)

// TxRunner runs store operations in one postgres transaction.
type TxRunner struct {
	pg *bun.DB
}

func NewTxRunner(db *bun.DB) *TxRunner {
	return &TxRunner{pg: db}
}

func (r *TxRunner) Run(ctx context.Context, ops ...core.TxOp) error {
	return r.pg.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, op := range ops {
			if err := op(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
}
