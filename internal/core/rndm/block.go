package rndm

import (
	"math/rand"
	"time"

	"github.com/uptrace/bun/extra/bunbig"

	"github.com/blobindexer/syncer/internal/core"
)

const blobGasPerBlob = 131072

var (
	blockNumber int64 = 19_426_587 // first block after Dencun
	blockTS           = time.Date(2024, 3, 13, 13, 55, 35, 0, time.UTC)
)

// SetBlockTime moves the clock of generated blocks.
func SetBlockTime(ts time.Time) {
	blockTS = ts.UTC()
}

func Block() *core.Block {
	blockNumber++
	blockTS = blockTS.Add(12 * time.Second)

	blobs := 1 + rand.Int63n(6)

	return &core.Block{
		Number:        blockNumber,
		Hash:          Hash(),
		Timestamp:     blockTS,
		Slot:          blockNumber + 8_626_178,
		BlobGasUsed:   bunbig.FromInt64(blobs * blobGasPerBlob),
		BlobGasPrice:  BigInt(50_000_000_000),
		ExcessBlobGas: BigInt(100_000_000),
	}
}

func Blocks(n int) (ret []*core.Block) {
	for i := 0; i < n; i++ {
		ret = append(ret, Block())
	}
	return
}
