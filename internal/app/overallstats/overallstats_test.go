package overallstats

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/blobindexer/syncer/internal/app"
	"github.com/blobindexer/syncer/internal/core"
	"github.com/blobindexer/syncer/internal/queue/local"
)

var ctx = context.Background()

// fakeDB keeps committed state and the state of the running transaction.
type fakeDB struct {
	state *core.SyncState

	committed map[core.StatsKind][]core.BlockRange
	cursor    *int64

	// transaction in progress
	staged       map[core.StatsKind][]core.BlockRange
	stagedCursor *int64

	runs     int
	failRun  int // fail the n-th transaction on commit
	failKind core.StatsKind

	// called after the sync state is read outside a transaction
	afterRead func()
}

func newFakeDB(lastAggregated, lastFinalized *int64) *fakeDB {
	db := &fakeDB{committed: map[core.StatsKind][]core.BlockRange{}}
	if lastAggregated != nil || lastFinalized != nil {
		db.state = &core.SyncState{ID: core.SyncStateID, LastFinalizedBlock: lastFinalized}
		db.cursor = lastAggregated
	}
	return db
}

func (db *fakeDB) Run(ctx context.Context, ops ...core.TxOp) error {
	db.runs++
	db.staged = map[core.StatsKind][]core.BlockRange{}
	db.stagedCursor = nil

	for _, op := range ops {
		if err := op(ctx, nil); err != nil {
			return err // rollback
		}
	}
	if db.runs == db.failRun {
		return errors.New("could not serialize access due to concurrent update")
	}

	for k, r := range db.staged {
		db.committed[k] = append(db.committed[k], r...)
	}
	if db.stagedCursor != nil {
		db.cursor = db.stagedCursor
	}
	return nil
}

func (db *fakeDB) GetSyncState(context.Context) (*core.SyncState, error) {
	if db.state == nil {
		return nil, core.ErrNotFound
	}
	ret := *db.state
	ret.LastAggregatedBlock = db.cursor
	if f := db.afterRead; f != nil {
		db.afterRead = nil
		f()
	}
	return &ret, nil
}

func (db *fakeDB) LockSyncState(context.Context, bun.IDB) (*core.SyncState, error) {
	if db.state == nil {
		return nil, core.ErrNotFound
	}
	ret := *db.state
	ret.LastAggregatedBlock = db.cursor
	return &ret, nil
}

func (db *fakeDB) UpsertSyncState(_ context.Context, _ bun.IDB, upd *core.SyncStateUpdate) error {
	if upd.LastAggregatedBlock != nil {
		v := *upd.LastAggregatedBlock
		db.stagedCursor = &v
	}
	return nil
}

func (db *fakeDB) increments() int {
	var n int
	for _, r := range db.committed {
		n += len(r)
	}
	return n
}

type fakeOverallRepo struct {
	db   *fakeDB
	kind core.StatsKind
}

func (r *fakeOverallRepo) Increment(_ context.Context, _ bun.IDB, br core.BlockRange) error {
	if r.db.failKind == r.kind {
		return errors.Errorf("numeric field overflow in %s_overall_stats", r.kind)
	}
	r.db.staged[r.kind] = append(r.db.staged[r.kind], br)
	return nil
}

func initService(t *testing.T, db *fakeDB, batchSize int64) *Service {
	b := local.NewBackend()
	t.Cleanup(func() { _ = b.Close() })

	var entities []app.OverallStatsEntity
	for _, k := range core.StatsKinds {
		entities = append(entities, app.OverallStatsEntity{Kind: k, Repo: &fakeOverallRepo{db: db, kind: k}})
	}

	s, err := NewService(&app.OverallStatsConfig{
		Backend:       b,
		SyncStateRepo: db,
		TxRunner:      db,
		Entities:      entities,
		BatchSize:     batchSize,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })

	return s
}

func blockPtr(n int64) *int64 {
	return &n
}

func TestBatches(t *testing.T) {
	testCases := []struct {
		r    core.BlockRange
		size int64
		want []core.BlockRange
	}{
		{
			r:    core.BlockRange{From: 0, To: 999},
			size: 2_000_000,
			want: []core.BlockRange{{From: 0, To: 999}},
		}, {
			r:    core.BlockRange{From: 2_000_000, To: 4_500_000},
			size: 2_000_000,
			want: []core.BlockRange{{From: 2_000_000, To: 3_999_999}, {From: 4_000_000, To: 4_500_000}},
		}, {
			r:    core.BlockRange{From: 10, To: 19},
			size: 5,
			want: []core.BlockRange{{From: 10, To: 14}, {From: 15, To: 19}},
		}, {
			r:    core.BlockRange{From: 10, To: 10},
			size: 5,
			want: []core.BlockRange{{From: 10, To: 10}},
		}, {
			r:    core.BlockRange{From: 11, To: 10},
			size: 5,
			want: nil,
		},
	}

	for _, c := range testCases {
		assert.Equal(t, c.want, Batches(c.r, c.size))
	}
}

func TestService_Update_FromGenesis(t *testing.T) {
	db := newFakeDB(nil, blockPtr(999))
	s := initService(t, db, DefaultBatchSize)

	require.NoError(t, s.Update(ctx))

	require.Equal(t, 1, db.runs)
	for _, k := range core.StatsKinds {
		require.Equal(t, []core.BlockRange{{From: 0, To: 999}}, db.committed[k])
	}
	require.Equal(t, int64(999), *db.cursor)
}

func TestService_Update_TwoBatches(t *testing.T) {
	db := newFakeDB(blockPtr(1_999_999), blockPtr(4_500_000))
	s := initService(t, db, 2_000_000)

	require.NoError(t, s.Update(ctx))

	require.Equal(t, 2, db.runs)
	for _, k := range core.StatsKinds {
		require.Equal(t, []core.BlockRange{
			{From: 2_000_000, To: 3_999_999},
			{From: 4_000_000, To: 4_500_000},
		}, db.committed[k])
	}
	require.Equal(t, int64(4_500_000), *db.cursor)

	// nothing left
	require.NoError(t, s.Update(ctx))
	require.Equal(t, 2, db.runs)
}

func TestService_Update_BatchCount(t *testing.T) {
	testCases := []struct {
		last, finalized, size int64
		batches               int
	}{
		{last: 100, finalized: 200, size: 10, batches: 10},
		{last: 100, finalized: 201, size: 10, batches: 11},
		{last: 100, finalized: 102, size: 1, batches: 2},
		{last: 0, finalized: 7_000_000, size: 2_000_000, batches: 4},
	}

	for _, c := range testCases {
		db := newFakeDB(blockPtr(c.last), blockPtr(c.finalized))
		s := initService(t, db, c.size)

		require.NoError(t, s.Update(ctx))
		assert.Equal(t, c.batches, db.runs)
		assert.Equal(t, c.finalized, *db.cursor)

		// ranges are contiguous and disjoint
		next := c.last + 1
		for _, r := range db.committed[core.BlobStats] {
			assert.Equal(t, next, r.From)
			next = r.To + 1
		}
		assert.Equal(t, c.finalized+1, next)
	}
}

func TestService_Update_Skip(t *testing.T) {
	testCases := map[string]*fakeDB{
		"no sync state":        newFakeDB(nil, nil),
		"no finalized block":   newFakeDB(blockPtr(10), nil),
		"cursor at finalized":  newFakeDB(blockPtr(500), blockPtr(500)),
		"cursor past finalize": newFakeDB(blockPtr(501), blockPtr(500)),
		"single new block":     newFakeDB(blockPtr(499), blockPtr(500)),
	}

	for name, db := range testCases {
		t.Run(name, func(t *testing.T) {
			s := initService(t, db, DefaultBatchSize)

			require.NoError(t, s.Update(ctx))
			require.Zero(t, db.runs)
			require.Zero(t, db.increments())
		})
	}
}

func TestService_Update_Resume(t *testing.T) {
	db := newFakeDB(blockPtr(99), blockPtr(149))
	db.failRun = 3

	s := initService(t, db, 10)

	err := s.Update(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "aggregate blocks 120-129")

	// two batches committed, the failed one left nothing behind
	require.Equal(t, int64(119), *db.cursor)
	require.Equal(t, []core.BlockRange{{From: 100, To: 109}, {From: 110, To: 119}}, db.committed[core.BlockStats])

	db.failRun = 0
	require.NoError(t, s.Update(ctx))

	require.Equal(t, int64(149), *db.cursor)
	for _, k := range core.StatsKinds {
		require.Equal(t, []core.BlockRange{
			{From: 100, To: 109}, {From: 110, To: 119}, {From: 120, To: 129},
			{From: 130, To: 139}, {From: 140, To: 149},
		}, db.committed[k])
	}
}

func TestService_Update_IncrementFailure(t *testing.T) {
	db := newFakeDB(nil, blockPtr(999))
	db.failKind = core.TransactionStats

	s := initService(t, db, DefaultBatchSize)

	err := s.Update(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "increment transaction stats")

	// increments of other kinds in the same batch are rolled back too
	require.Zero(t, db.increments())
	require.Nil(t, db.cursor)
}

func TestService_DefaultBatchSize(t *testing.T) {
	s := initService(t, newFakeDB(nil, nil), 0)
	require.Equal(t, int64(DefaultBatchSize), s.BatchSize)
}

func TestService_Update_ConcurrentInstances(t *testing.T) {
	db := newFakeDB(nil, blockPtr(99))

	s1 := initService(t, db, DefaultBatchSize)
	s2 := initService(t, db, DefaultBatchSize)

	// the second instance aggregates and commits after the first one
	// has read the cursor but before it starts its transaction
	var err2 error
	db.afterRead = func() { err2 = s2.Update(ctx) }

	err := s1.Update(ctx)
	require.NoError(t, err2)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCursorMoved))
	require.Contains(t, err.Error(), "aggregate blocks 0-99")

	require.Equal(t, 2, db.runs)
	for _, k := range core.StatsKinds {
		require.Equal(t, []core.BlockRange{{From: 0, To: 99}}, db.committed[k])
	}
	require.Equal(t, int64(99), *db.cursor)

	// the next tick starts from the moved cursor
	db.state.LastFinalizedBlock = blockPtr(149)
	require.NoError(t, s1.Update(ctx))
	require.Equal(t, []core.BlockRange{{From: 0, To: 99}, {From: 100, To: 149}}, db.committed[core.BlobStats])
}

func TestCheckCursor(t *testing.T) {
	testCases := []struct {
		last  *int64
		batch core.BlockRange
		moved bool
	}{
		{last: nil, batch: core.BlockRange{From: 0, To: 99}},
		{last: blockPtr(99), batch: core.BlockRange{From: 100, To: 199}},
		{last: blockPtr(99), batch: core.BlockRange{From: 0, To: 99}, moved: true},
		{last: blockPtr(149), batch: core.BlockRange{From: 100, To: 199}, moved: true},
		{last: nil, batch: core.BlockRange{From: 100, To: 199}, moved: true},
	}

	for _, c := range testCases {
		err := checkCursor(c.last, c.batch)
		if c.moved {
			assert.True(t, errors.Is(err, ErrCursorMoved), "batch %d-%d", c.batch.From, c.batch.To)
		} else {
			assert.NoError(t, err)
		}
	}
}
