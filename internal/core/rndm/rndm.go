package rndm

import (
	"encoding/hex"
	"math/big"
	"math/rand"
	"time"

	"github.com/uptrace/bun/extra/bunbig"
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

func String(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

func Bytes(l int) []byte {
	token := make([]byte, l)
	rand.Read(token)
	return token
}

func hexString(l int) string {
	return "0x" + hex.EncodeToString(Bytes(l))
}

func Hash() string {
	return hexString(32)
}

func Address() string {
	return hexString(20)
}

// BigInt returns a random number in [1, max].
func BigInt(max int64) *bunbig.Int {
	return bunbig.FromMathBig(big.NewInt(1 + rand.Int63n(max)))
}
