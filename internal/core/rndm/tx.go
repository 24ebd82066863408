package rndm

import (
	"math/rand"

	"github.com/blobindexer/syncer/internal/core"
)

// BlockData is a block with the blob transactions the indexer writes for it.
type BlockData struct {
	Block        *core.Block
	Transactions []*core.Transaction
	Blobs        []*core.Blob
	Refs         []*core.TransactionBlob
	Addresses    []*core.Address
}

var (
	// small pools make senders and receivers repeat across blocks
	senders   = []string{Address(), Address(), Address(), Address()}
	receivers = []string{Address(), Address(), Address()}

	seenAddresses = map[string]*core.Address{}
	knownBlobs    []*core.Blob
)

func address(pool []string, number int64, sender bool) (string, *core.Address) {
	a := pool[rand.Intn(len(pool))]

	known, ok := seenAddresses[a]
	if !ok {
		known = &core.Address{Address: a}
		seenAddresses[a] = known
	}

	n := number
	switch {
	case sender && known.FirstBlockNumberAsSender == nil:
		known.FirstBlockNumberAsSender = &n
	case !sender && known.FirstBlockNumberAsReceiver == nil:
		known.FirstBlockNumberAsReceiver = &n
	default:
		return a, nil
	}

	return a, known
}

func blob(b *core.Block) (*core.Blob, bool) {
	// sometimes the same blob is posted again
	if len(knownBlobs) > 0 && rand.Intn(8) == 0 {
		return knownBlobs[rand.Intn(len(knownBlobs))], false
	}

	ret := &core.Blob{
		VersionedHash:    "0x01" + Hash()[4:],
		Commitment:       hexString(48),
		Size:             1 + rand.Int63n(131072),
		FirstBlockNumber: b.Number,
	}
	knownBlobs = append(knownBlobs, ret)

	return ret, true
}

// BlockWithTransactions generates the next block with n blob transactions.
func BlockWithTransactions(n int) *BlockData {
	ret := &BlockData{Block: Block()}
	b := ret.Block

	addrs := map[string]*core.Address{}

	for i := 0; i < n; i++ {
		tx := &core.Transaction{
			Hash:             Hash(),
			BlockNumber:      b.Number,
			BlockTimestamp:   b.Timestamp,
			MaxFeePerBlobGas: BigInt(100_000_000_000),
		}

		var a *core.Address
		if tx.FromID, a = address(senders, b.Number, true); a != nil {
			addrs[a.Address] = a
		}
		if tx.ToID, a = address(receivers, b.Number, false); a != nil {
			addrs[a.Address] = a
		}

		used := map[string]bool{}
		for j := 0; j < 1+rand.Intn(3); j++ {
			bl, isNew := blob(b)
			if used[bl.VersionedHash] {
				continue
			}
			used[bl.VersionedHash] = true

			if isNew {
				ret.Blobs = append(ret.Blobs, bl)
			}
			ref := &core.TransactionBlob{
				TxHash:         tx.Hash,
				BlobHash:       bl.VersionedHash,
				Index:          j,
				BlockNumber:    b.Number,
				BlockTimestamp: b.Timestamp,
			}
			ret.Refs = append(ret.Refs, ref)
			tx.Blobs = append(tx.Blobs, ref)
		}

		ret.Transactions = append(ret.Transactions, tx)
	}

	for _, a := range addrs {
		ret.Addresses = append(ret.Addresses, a)
	}

	return ret
}
