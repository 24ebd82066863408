package block

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/go-clickhouse/ch"

	"github.com/blobindexer/syncer/internal/core"
)

var _ core.BlockRepository = (*Repository)(nil)

// Repository reads blocks from clickhouse if the indexer mirrors them there,
// otherwise from postgres.
type Repository struct {
	ch *ch.DB
	pg *bun.DB
}

func NewRepository(_ch *ch.DB, _pg *bun.DB) *Repository {
	return &Repository{ch: _ch, pg: _pg}
}

func CreateTables(ctx context.Context, chDB *ch.DB, pgDB *bun.DB) error {
	if chDB != nil {
		_, err := chDB.NewCreateTable().
			IfNotExists().
			Engine("ReplacingMergeTree").
			Model(&core.Block{}).
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "block ch create table")
		}
	}

	_, err := pgDB.NewCreateTable().
		Model(&core.Block{}).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "block pg create table")
	}

	_, err = pgDB.NewCreateIndex().
		Model(&core.Block{}).
		IfNotExists().
		Using("BTREE").
		Column("timestamp").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "block timestamp pg create index")
	}

	return nil
}

func (r *Repository) AddBlocks(ctx context.Context, tx bun.IDB, blocks []*core.Block) error {
	if len(blocks) == 0 {
		return nil
	}
	if r.ch != nil {
		_, err := r.ch.NewInsert().Model(&blocks).Exec(ctx)
		if err != nil {
			return err
		}
	}
	_, err := tx.NewInsert().Model(&blocks).Exec(ctx)
	if err != nil {
		return err
	}
	return nil
}

func (r *Repository) GetLatestBlock(ctx context.Context) (*core.Block, error) {
	var err error

	ret := new(core.Block)

	if r.ch != nil {
		err = r.ch.NewSelect().Model(ret).
			Order("number DESC").
			Limit(1).
			Scan(ctx)
	} else {
		err = r.pg.NewSelect().Model(ret).
			Order("number DESC").
			Limit(1).
			Scan(ctx)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select latest block")
	}

	return ret, nil
}
