package core

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bunbig"
)

type Transaction struct {
	bun.BaseModel `bun:"table:transaction" json:"-"`

	Hash           string    `bun:",pk,notnull" json:"hash"`
	BlockNumber    int64     `bun:",notnull" json:"block_number"`
	BlockTimestamp time.Time `bun:"type:timestamptz,notnull" json:"block_timestamp"`

	FromID string `bun:"from_id,notnull" json:"from"`
	ToID   string `bun:"to_id,notnull" json:"to"`

	MaxFeePerBlobGas *bunbig.Int `bun:"type:numeric,notnull" json:"max_fee_per_blob_gas"`

	Blobs []*TransactionBlob `bun:"rel:has-many,join:hash=tx_hash" json:"blobs,omitempty"`
}

type TransactionRepository interface {
	AddTransactions(ctx context.Context, tx bun.IDB, transactions []*Transaction) error
}
