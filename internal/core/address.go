package core

import (
	"context"

	"github.com/uptrace/bun"
)

// Address keeps the first block an address was seen in as a blob
// transaction sender or receiver. Unique address counters rely on it.
type Address struct {
	bun.BaseModel `bun:"table:address" json:"-"`

	Address                    string `bun:",pk,notnull" json:"address"`
	FirstBlockNumberAsSender   *int64 `json:"first_block_number_as_sender,omitempty"`
	FirstBlockNumberAsReceiver *int64 `json:"first_block_number_as_receiver,omitempty"`
}

type AddressRepository interface {
	AddAddresses(ctx context.Context, tx bun.IDB, addresses []*Address) error
}
