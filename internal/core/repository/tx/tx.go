package tx

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/blobindexer/syncer/internal/core"
)

var (
	_ core.TransactionRepository = (*Repository)(nil)
	_ core.BlobRepository        = (*Repository)(nil)
	_ core.AddressRepository     = (*Repository)(nil)
)

// Repository writes blob transactions the way the indexer does.
type Repository struct {
	pg *bun.DB
}

func NewRepository(_pg *bun.DB) *Repository {
	return &Repository{pg: _pg}
}

func createIndexes(ctx context.Context, pgDB *bun.DB) error {
	var err error

	// transactions

	_, err = pgDB.NewCreateIndex().
		Model(&core.Transaction{}).
		IfNotExists().
		Using("BTREE").
		Column("block_number").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "transaction block_number pg create index")
	}

	_, err = pgDB.NewCreateIndex().
		Model(&core.Transaction{}).
		IfNotExists().
		Using("BTREE").
		Column("block_timestamp").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "transaction block_timestamp pg create index")
	}

	// blob references

	_, err = pgDB.NewCreateIndex().
		Model(&core.TransactionBlob{}).
		IfNotExists().
		Using("BTREE").
		Column("block_number").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "transaction blob block_number pg create index")
	}

	_, err = pgDB.NewCreateIndex().
		Model(&core.TransactionBlob{}).
		IfNotExists().
		Using("BTREE").
		Column("block_timestamp").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "transaction blob block_timestamp pg create index")
	}

	// addresses

	_, err = pgDB.NewCreateIndex().
		Model(&core.Address{}).
		IfNotExists().
		Using("BTREE").
		Column("first_block_number_as_sender").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "address first sender block pg create index")
	}

	_, err = pgDB.NewCreateIndex().
		Model(&core.Address{}).
		IfNotExists().
		Using("BTREE").
		Column("first_block_number_as_receiver").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "address first receiver block pg create index")
	}

	return nil
}

func CreateTables(ctx context.Context, pgDB *bun.DB) error {
	for _, m := range []any{
		&core.Transaction{},
		&core.Blob{},
		&core.TransactionBlob{},
		&core.Address{},
	} {
		_, err := pgDB.NewCreateTable().
			Model(m).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return errors.Wrapf(err, "%T pg create table", m)
		}
	}

	if err := createIndexes(ctx, pgDB); err != nil {
		return err
	}

	return nil
}

func (r *Repository) AddTransactions(ctx context.Context, tx bun.IDB, transactions []*core.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	_, err := tx.NewInsert().Model(&transactions).Exec(ctx)
	if err != nil {
		return err
	}
	return nil
}

func (r *Repository) AddBlobs(ctx context.Context, tx bun.IDB, blobs []*core.Blob, refs []*core.TransactionBlob) error {
	if len(blobs) > 0 {
		_, err := tx.NewInsert().Model(&blobs).
			On("CONFLICT (versioned_hash) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "insert blobs")
		}
	}
	if len(refs) > 0 {
		_, err := tx.NewInsert().Model(&refs).Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "insert transaction blobs")
		}
	}
	return nil
}

// AddAddresses keeps the earliest known block of every address role.
func (r *Repository) AddAddresses(ctx context.Context, tx bun.IDB, addresses []*core.Address) error {
	if len(addresses) == 0 {
		return nil
	}
	_, err := tx.NewInsert().Model(&addresses).
		On("CONFLICT (address) DO UPDATE").
		Set("first_block_number_as_sender = LEAST(address.first_block_number_as_sender, EXCLUDED.first_block_number_as_sender)").
		Set("first_block_number_as_receiver = LEAST(address.first_block_number_as_receiver, EXCLUDED.first_block_number_as_receiver)").
		Exec(ctx)
	if err != nil {
		return err
	}
	return nil
}
