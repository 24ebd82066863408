package core

import (
	"context"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bunbig"
)

type StatsKind string

const (
	BlobStats        StatsKind = "blob"
	BlockStats       StatsKind = "block"
	TransactionStats StatsKind = "transaction"
)

// StatsKinds lists every entity kind statistics are kept for,
// in the order aggregators process them.
var StatsKinds = []StatsKind{BlobStats, BlockStats, TransactionStats}

// ParseStatsKind accepts kind names in any case, singular or plural.
func ParseStatsKind(s string) (StatsKind, error) {
	k := StatsKind(strings.TrimSuffix(strcase.ToSnake(strings.TrimSpace(s)), "s"))
	for _, known := range StatsKinds {
		if k == known {
			return k, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidArg, "unknown stats kind '%s'", s)
}

// BlockRange is an inclusive range of block numbers.
type BlockRange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

func (r BlockRange) Len() int64 {
	return r.To - r.From + 1
}

// DayRange is an inclusive range of calendar days.
// Nil From means the range starts at the first indexed day.
type DayRange struct {
	From *time.Time
	To   time.Time
}

// Day truncates t to the start of its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type BlobDailyStats struct {
	bun.BaseModel `bun:"table:blob_daily_stats" json:"-"`

	Day              time.Time       `bun:"type:date,pk" json:"day"`
	TotalBlobs       int64           `bun:",notnull" json:"total_blobs"`
	TotalUniqueBlobs int64           `bun:",notnull" json:"total_unique_blobs"`
	TotalBlobSize    int64           `bun:",notnull" json:"total_blob_size"`
	AvgBlobSize      decimal.Decimal `bun:"type:numeric,notnull" json:"avg_blob_size" swaggertype:"string"`
}

type BlockDailyStats struct {
	bun.BaseModel `bun:"table:block_daily_stats" json:"-"`

	Day              time.Time       `bun:"type:date,pk" json:"day"`
	TotalBlocks      int64           `bun:",notnull" json:"total_blocks"`
	TotalBlobGasUsed *bunbig.Int     `bun:"type:numeric,notnull" json:"total_blob_gas_used" swaggertype:"string"`
	TotalBlobFee     *bunbig.Int     `bun:"type:numeric,notnull" json:"total_blob_fee" swaggertype:"string"`
	AvgBlobFee       decimal.Decimal `bun:"type:numeric,notnull" json:"avg_blob_fee" swaggertype:"string"`
	AvgBlobGasPrice  decimal.Decimal `bun:"type:numeric,notnull" json:"avg_blob_gas_price" swaggertype:"string"`
}

type TransactionDailyStats struct {
	bun.BaseModel `bun:"table:transaction_daily_stats" json:"-"`

	Day                  time.Time       `bun:"type:date,pk" json:"day"`
	TotalTransactions    int64           `bun:",notnull" json:"total_transactions"`
	TotalUniqueSenders   int64           `bun:",notnull" json:"total_unique_senders"`
	TotalUniqueReceivers int64           `bun:",notnull" json:"total_unique_receivers"`
	AvgMaxBlobGasFee     decimal.Decimal `bun:"type:numeric,notnull" json:"avg_max_blob_gas_fee" swaggertype:"string"`
}

// OverallStatsID is the primary key of the cumulative stats rows.
const OverallStatsID = 1

type BlobOverallStats struct {
	bun.BaseModel `bun:"table:blob_overall_stats" json:"-"`

	ID               int             `bun:",pk" json:"-"`
	TotalBlobs       int64           `bun:",notnull" json:"total_blobs"`
	TotalUniqueBlobs int64           `bun:",notnull" json:"total_unique_blobs"`
	TotalBlobSize    int64           `bun:",notnull" json:"total_blob_size"`
	AvgBlobSize      decimal.Decimal `bun:"type:numeric,notnull" json:"avg_blob_size" swaggertype:"string"`
	UpdatedAt        time.Time       `bun:"type:timestamptz,notnull" json:"updated_at"`
}

type BlockOverallStats struct {
	bun.BaseModel `bun:"table:block_overall_stats" json:"-"`

	ID               int             `bun:",pk" json:"-"`
	TotalBlocks      int64           `bun:",notnull" json:"total_blocks"`
	TotalBlobGasUsed *bunbig.Int     `bun:"type:numeric,notnull" json:"total_blob_gas_used" swaggertype:"string"`
	TotalBlobFee     *bunbig.Int     `bun:"type:numeric,notnull" json:"total_blob_fee" swaggertype:"string"`
	AvgBlobFee       decimal.Decimal `bun:"type:numeric,notnull" json:"avg_blob_fee" swaggertype:"string"`
	AvgBlobGasPrice  decimal.Decimal `bun:"type:numeric,notnull" json:"avg_blob_gas_price" swaggertype:"string"`
	UpdatedAt        time.Time       `bun:"type:timestamptz,notnull" json:"updated_at"`
}

type TransactionOverallStats struct {
	bun.BaseModel `bun:"table:transaction_overall_stats" json:"-"`

	ID                   int             `bun:",pk" json:"-"`
	TotalTransactions    int64           `bun:",notnull" json:"total_transactions"`
	TotalUniqueSenders   int64           `bun:",notnull" json:"total_unique_senders"`
	TotalUniqueReceivers int64           `bun:",notnull" json:"total_unique_receivers"`
	AvgMaxBlobGasFee     decimal.Decimal `bun:"type:numeric,notnull" json:"avg_max_blob_gas_fee" swaggertype:"string"`
	UpdatedAt            time.Time       `bun:"type:timestamptz,notnull" json:"updated_at"`
}

type DailyStatsRepository interface {
	// GetLastDay returns the most recent stored day or ErrNotFound.
	GetLastDay(ctx context.Context) (time.Time, error)

	// Populate computes and stores the stats of every day in the range
	// and returns the number of days written.
	// Each call is committed on its own.
	Populate(ctx context.Context, r DayRange) (int, error)
}

type DailyStatsReader[T any] interface {
	GetDailyStats(ctx context.Context, r DayRange) ([]*T, error)
}

type OverallStatsRepository interface {
	// Increment adds the stats of the given block range to the cumulative row.
	// Callers must apply every range at most once, so it is expected
	// to run in the same transaction as the cursor update.
	Increment(ctx context.Context, tx bun.IDB, r BlockRange) error
}

type OverallStatsReader[T any] interface {
	GetOverallStats(ctx context.Context) (*T, error)
}

// TxOp is a store operation executed inside a database transaction.
type TxOp func(ctx context.Context, tx bun.IDB) error

// TransactionRunner executes all operations in one transaction.
// Either every operation is committed or none is.
type TransactionRunner interface {
	Run(ctx context.Context, ops ...TxOp) error
}
