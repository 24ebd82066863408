package core

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type Blob struct {
	bun.BaseModel `bun:"table:blob" json:"-"`

	VersionedHash    string `bun:",pk,notnull" json:"versioned_hash"`
	Commitment       string `bun:",unique,notnull" json:"commitment"`
	Size             int64  `bun:",notnull" json:"size"`
	FirstBlockNumber int64  `bun:",notnull" json:"first_block_number"`
}

// TransactionBlob is an occurrence of a blob in a transaction.
// The same blob may be referenced by many transactions.
type TransactionBlob struct {
	bun.BaseModel `bun:"table:transaction_blob" json:"-"`

	TxHash   string `bun:",pk,notnull" json:"tx_hash"`
	BlobHash string `bun:",pk,notnull" json:"blob_hash"`
	Index    int    `bun:",notnull" json:"index"`

	BlockNumber    int64     `bun:",notnull" json:"block_number"`
	BlockTimestamp time.Time `bun:"type:timestamptz,notnull" json:"block_timestamp"`

	Blob *Blob `bun:"rel:belongs-to,join:blob_hash=versioned_hash" json:"blob,omitempty"`
}

type BlobRepository interface {
	AddBlobs(ctx context.Context, tx bun.IDB, blobs []*Blob, refs []*TransactionBlob) error
}
