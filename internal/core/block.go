package core

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bunbig"
	"github.com/uptrace/go-clickhouse/ch"
)

type Block struct {
	ch.CHModel    `ch:"block,partition:toYYYYMM(timestamp)" json:"-"`
	bun.BaseModel `bun:"table:block" json:"-"`

	Number    int64     `ch:",pk" bun:",pk,notnull" json:"number"`
	Hash      string    `bun:",unique,notnull" json:"hash"`
	Timestamp time.Time `ch:",pk" bun:"type:timestamptz,notnull" json:"timestamp"`
	Slot      int64     `bun:",notnull" json:"slot"`

	BlobGasUsed   *bunbig.Int `ch:"type:UInt256" bun:"type:numeric,notnull" json:"blob_gas_used"`
	BlobGasPrice  *bunbig.Int `ch:"type:UInt256" bun:"type:numeric,notnull" json:"blob_gas_price"`
	ExcessBlobGas *bunbig.Int `ch:"type:UInt256" bun:"type:numeric,notnull" json:"excess_blob_gas"`
}

// BlockSource gives access to the blocks written by the indexer.
type BlockSource interface {
	// GetLatestBlock returns ErrNotFound if nothing was indexed yet.
	GetLatestBlock(ctx context.Context) (*Block, error)
}

type BlockRepository interface {
	BlockSource
	AddBlocks(ctx context.Context, tx bun.IDB, blocks []*Block) error
}
