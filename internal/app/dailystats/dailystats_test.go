package dailystats

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blobindexer/syncer/internal/app"
	"github.com/blobindexer/syncer/internal/core"
	"github.com/blobindexer/syncer/internal/queue/local"
)

var ctx = context.Background()

var (
	firstDay = time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC) // Dencun activation
	today    = time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)
)

type fakeBlockSource struct {
	latest *core.Block
	err    error
}

func (f *fakeBlockSource) GetLatestBlock(context.Context) (*core.Block, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.latest == nil {
		return nil, core.ErrNotFound
	}
	return f.latest, nil
}

type fakeDailyRepo struct {
	last        *time.Time
	lastErr     error
	populateErr error
	noRows      bool

	calls []core.DayRange
}

func (f *fakeDailyRepo) GetLastDay(context.Context) (time.Time, error) {
	if f.lastErr != nil {
		return time.Time{}, f.lastErr
	}
	if f.last == nil {
		return time.Time{}, core.ErrNotFound
	}
	return *f.last, nil
}

func (f *fakeDailyRepo) Populate(_ context.Context, r core.DayRange) (int, error) {
	f.calls = append(f.calls, r)
	if f.populateErr != nil {
		return 0, f.populateErr
	}

	from := firstDay
	if r.From != nil {
		from = *r.From
	}
	if r.To.Before(from) || f.noRows {
		return 0, nil
	}

	to := r.To
	f.last = &to

	return int(to.Sub(from).Hours()/24) + 1, nil
}

func dayPtr(t time.Time) *time.Time {
	return &t
}

type testEnv struct {
	s *Service

	source               *fakeBlockSource
	blob, block, txStats *fakeDailyRepo
}

func (e *testEnv) writes() int {
	return len(e.blob.calls) + len(e.block.calls) + len(e.txStats.calls)
}

func initService(t *testing.T, latest *core.Block) *testEnv {
	b := local.NewBackend()
	t.Cleanup(func() { _ = b.Close() })

	e := &testEnv{
		source:  &fakeBlockSource{latest: latest},
		blob:    &fakeDailyRepo{},
		block:   &fakeDailyRepo{},
		txStats: &fakeDailyRepo{},
	}

	s, err := NewService(&app.DailyStatsConfig{
		Backend:     b,
		BlockSource: e.source,
		Entities: []app.DailyStatsEntity{
			{Kind: core.BlobStats, Repo: e.blob},
			{Kind: core.BlockStats, Repo: e.block},
			{Kind: core.TransactionStats, Repo: e.txStats},
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })

	e.s = s

	return e
}

func latestBlockAt(ts time.Time) *core.Block {
	return &core.Block{Number: 19_700_000, Timestamp: ts}
}

func TestService_Update_NoBlocks(t *testing.T) {
	e := initService(t, nil)

	require.NoError(t, e.s.Update(ctx))
	require.NoError(t, e.s.Update(ctx))
	require.Zero(t, e.writes())
}

func TestService_Update_TargetDay(t *testing.T) {
	// late evening of the current day must not be aggregated
	e := initService(t, latestBlockAt(today.Add(23*time.Hour+59*time.Minute)))

	require.NoError(t, e.s.Update(ctx))

	for _, r := range [][]core.DayRange{e.blob.calls, e.block.calls, e.txStats.calls} {
		require.Len(t, r, 1)
		assert.Nil(t, r[0].From)
		assert.Equal(t, today.AddDate(0, 0, -1), r[0].To)
	}
}

func TestService_Update_TargetDayInUTC(t *testing.T) {
	// 2024-04-20 01:30 in UTC+3 is still 2024-04-19 in UTC
	loc := time.FixedZone("UTC+3", 3*60*60)
	e := initService(t, latestBlockAt(time.Date(2024, 4, 20, 1, 30, 0, 0, loc)))

	require.NoError(t, e.s.Update(ctx))
	require.Len(t, e.blob.calls, 1)
	assert.Equal(t, time.Date(2024, 4, 18, 0, 0, 0, 0, time.UTC), e.blob.calls[0].To)
}

func TestService_Update_Idempotent(t *testing.T) {
	e := initService(t, latestBlockAt(today.Add(time.Hour)))

	require.NoError(t, e.s.Update(ctx))
	require.Equal(t, 3, e.writes())

	// no new blocks between the runs
	require.NoError(t, e.s.Update(ctx))
	require.Equal(t, 3, e.writes())
}

func TestService_Update_LaggingKind(t *testing.T) {
	target := today.AddDate(0, 0, -1)

	e := initService(t, latestBlockAt(today.Add(time.Hour)))
	e.blob.last = dayPtr(today.AddDate(0, 0, -3))
	e.block.last = dayPtr(target)
	e.txStats.last = dayPtr(target)

	require.NoError(t, e.s.Update(ctx))

	require.Len(t, e.blob.calls, 1)
	require.NotNil(t, e.blob.calls[0].From)
	assert.Equal(t, today.AddDate(0, 0, -2), *e.blob.calls[0].From)
	assert.Equal(t, target, e.blob.calls[0].To)

	assert.Empty(t, e.block.calls)
	assert.Empty(t, e.txStats.calls)
}

func TestService_Update_NoRows(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = logger })

	target := today.AddDate(0, 0, -1)

	e := initService(t, latestBlockAt(today.Add(time.Hour)))
	e.blob.last = dayPtr(today.AddDate(0, 0, -3))
	e.blob.noRows = true // no blobs posted since then
	e.block.last = dayPtr(target)
	e.txStats.last = dayPtr(target)

	require.NoError(t, e.s.Update(ctx))
	require.NoError(t, e.s.Update(ctx))

	// the lagging kind is retried, but nothing is reported as updated
	require.Len(t, e.blob.calls, 2)
	require.NotContains(t, buf.String(), "daily stats updated")
	require.Equal(t, 2, strings.Count(buf.String(), "no new daily stats rows, skipping"))

	e.blob.noRows = false
	require.NoError(t, e.s.Update(ctx))
	require.Contains(t, buf.String(), "daily stats updated")
}

func TestService_Update_TargetFailure(t *testing.T) {
	t.Run("latest block", func(t *testing.T) {
		e := initService(t, nil)
		e.source.err = errors.New("connection refused")

		err := e.s.Update(ctx)
		require.Error(t, err)
		require.Contains(t, err.Error(), Name)
		require.Zero(t, e.writes())
	})

	t.Run("last day", func(t *testing.T) {
		e := initService(t, latestBlockAt(today))
		e.txStats.lastErr = errors.New("relation \"transaction_daily_stats\" does not exist")

		err := e.s.Update(ctx)
		require.Error(t, err)
		require.Zero(t, e.writes())
	})
}

func TestService_Update_PopulateFailure(t *testing.T) {
	errPopulate := errors.New("canceling statement due to statement timeout")

	e := initService(t, latestBlockAt(today))
	e.block.populateErr = errPopulate

	err := e.s.Update(ctx)
	require.True(t, errors.Is(err, errPopulate))

	// blob stats committed before the failure stay, transaction stats are not attempted
	require.Len(t, e.blob.calls, 1)
	require.NotNil(t, e.blob.last)
	require.Len(t, e.block.calls, 1)
	require.Empty(t, e.txStats.calls)

	// the next tick resumes with the failed kinds only
	e.block.populateErr = nil
	require.NoError(t, e.s.Update(ctx))
	require.Len(t, e.blob.calls, 1)
	require.Len(t, e.block.calls, 2)
	require.Len(t, e.txStats.calls, 1)
}
