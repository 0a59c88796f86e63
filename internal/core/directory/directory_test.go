package directory

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
	"github.com/ffrrbb/rustdesk-server/pkg/types"
	"github.com/ffrrbb/rustdesk-server/tests/mocks"
)

func newTestDirectory(t *testing.T) (*Directory, *mocks.MockPeerStore) {
	t.Helper()
	store := mocks.NewMockPeerStore()
	return New(store, DefaultConfig()), store
}

func status(v int64) *int64 {
	return &v
}

// ============================================================================
// GetOrCreate / Get
// ============================================================================

func TestGetOrCreate_Unseen(t *testing.T) {
	d, store := newTestDirectory(t)

	e, err := d.GetOrCreate(context.Background(), "peer-A")
	require.NoError(t, err)
	require.NotNil(t, e)

	rec := e.Snapshot()
	assert.Equal(t, "peer-A", rec.ID)
	assert.Empty(t, rec.Guid)
	assert.False(t, rec.Connected)
	assert.Equal(t, types.UnspecifiedAddr, rec.SourceAddr)

	// 不写节点库
	assert.Zero(t, store.InsertCalls())
	assert.Empty(t, store.UpdateCalls())
	assert.True(t, d.IsInMemory("peer-A"))
	assert.Equal(t, 1, d.Len())

	again, err := d.GetOrCreate(context.Background(), "peer-A")
	require.NoError(t, err)
	assert.Same(t, e, again)
}

func TestGetOrCreate_FromStorage(t *testing.T) {
	tests := []struct {
		name      string
		status    *int64
		connected bool
	}{
		{"Online", status(0), true},
		{"Offline", status(1), false},
		{"Unknown", nil, false},
		{"OtherValue", status(7), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, store := newTestDirectory(t)
			store.Seed(interfaces.StoredPeer{
				Guid:      []byte("guid-1"),
				ID:        "peer-A",
				UUID:      []byte("uuid-1"),
				PublicKey: []byte("K1"),
				Info:      `{"ip":"10.0.0.1"}`,
				Status:    tt.status,
			})

			e, err := d.GetOrCreate(context.Background(), "peer-A")
			require.NoError(t, err)

			rec := e.Snapshot()
			assert.Equal(t, []byte("guid-1"), rec.Guid)
			assert.Equal(t, []byte("uuid-1"), rec.UUID)
			assert.Equal(t, []byte("K1"), rec.PublicKey)
			assert.Equal(t, "10.0.0.1", rec.Info.IP)
			assert.Equal(t, tt.connected, rec.Connected)
		})
	}
}

func TestGetOrCreate_StorageError(t *testing.T) {
	d, store := newTestDirectory(t)
	errDown := errors.New("connection refused")
	store.FailGet(errDown)

	_, err := d.GetOrCreate(context.Background(), "peer-A")
	require.Error(t, err)
	assert.ErrorIs(t, err, errDown)
	assert.False(t, d.IsInMemory("peer-A"), "no default entry on storage failure")

	// 恢复后正常创建
	store.FailGet(nil)
	_, err = d.GetOrCreate(context.Background(), "peer-A")
	require.NoError(t, err)
	assert.True(t, d.IsInMemory("peer-A"))
}

func TestGet(t *testing.T) {
	d, store := newTestDirectory(t)

	_, err := d.Get(context.Background(), "peer-A")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, d.IsInMemory("peer-A"), "Get never fabricates entries")

	store.Seed(interfaces.StoredPeer{Guid: []byte("g"), ID: "peer-A", Status: status(0)})
	e, err := d.Get(context.Background(), "peer-A")
	require.NoError(t, err)
	assert.True(t, e.Snapshot().Connected)

	// 之后命中缓存
	calls := store.GetCalls()
	_, err = d.Get(context.Background(), "peer-A")
	require.NoError(t, err)
	assert.Equal(t, calls, store.GetCalls())
}

func TestGetInMemory(t *testing.T) {
	d, store := newTestDirectory(t)
	store.Seed(interfaces.StoredPeer{Guid: []byte("g"), ID: "peer-A"})

	_, ok := d.GetInMemory("peer-A")
	assert.False(t, ok, "storage rows are not visible to cache-only queries")
	assert.Zero(t, store.GetCalls())
}

// ============================================================================
// 并发
// ============================================================================

func TestGetOrCreate_ConcurrentIdentity(t *testing.T) {
	for _, seeded := range []bool{false, true} {
		d, store := newTestDirectory(t)
		store.GetDelay = 5 * time.Millisecond
		if seeded {
			store.Seed(interfaces.StoredPeer{Guid: []byte("g"), ID: "peer-A"})
		}

		const n = 64
		entries := make([]*Entry, n)
		var g errgroup.Group
		for i := 0; i < n; i++ {
			g.Go(func() error {
				e, err := d.GetOrCreate(context.Background(), "peer-A")
				entries[i] = e
				return err
			})
		}
		require.NoError(t, g.Wait())

		for i := 1; i < n; i++ {
			require.Same(t, entries[0], entries[i])
		}
		assert.Equal(t, 1, d.Len())
		if seeded {
			// 节点库命中在加载过程中填充缓存，并发加载被合并
			assert.Equal(t, 1, store.GetCalls())
		}
	}
}

func TestGetOrCreate_SharedLoadSurvivesCancel(t *testing.T) {
	d, store := newTestDirectory(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.GetPeerFunc = func(ctx context.Context, id string) (interfaces.StoredPeer, bool, error) {
		once.Do(func() { close(entered) })
		select {
		case <-ctx.Done():
			return interfaces.StoredPeer{}, false, ctx.Err()
		case <-release:
			return interfaces.StoredPeer{Guid: []byte("g"), ID: id, PublicKey: []byte("K1")}, true, nil
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	type result struct {
		e   *Entry
		err error
	}
	resA := make(chan result, 1)
	resB := make(chan result, 1)

	go func() {
		e, err := d.GetOrCreate(ctxA, "peer-A")
		resA <- result{e, err}
	}()
	<-entered

	go func() {
		e, err := d.GetOrCreate(context.Background(), "peer-A")
		resB <- result{e, err}
	}()

	// A 在加载过程中断开
	time.Sleep(20 * time.Millisecond)
	cancelA()
	time.Sleep(10 * time.Millisecond)
	close(release)

	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, []byte("g"), b.e.Snapshot().Guid)

	a := <-resA
	require.NoError(t, a.err)
	assert.Same(t, b.e, a.e)
}

// ============================================================================
// MarkOffline
// ============================================================================

func TestMarkOffline_Persisted(t *testing.T) {
	d, store := newTestDirectory(t)
	store.Seed(interfaces.StoredPeer{
		Guid:      []byte("guid-1"),
		ID:        "peer-A",
		PublicKey: []byte("K1"),
		Info:      `{"ip":"10.0.0.1"}`,
		Status:    status(0),
	})
	ctx := context.Background()

	d.MarkOffline(ctx, "peer-A")

	e, ok := d.GetInMemory("peer-A")
	require.True(t, ok)
	assert.False(t, e.Snapshot().Connected)

	calls := store.UpdateCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, []byte("guid-1"), calls[0].Guid)
	assert.Equal(t, []byte("K1"), calls[0].PublicKey)
	assert.Equal(t, `{"ip":"10.0.0.1"}`, calls[0].Info)
	require.NotNil(t, calls[0].Connected)
	assert.False(t, *calls[0].Connected)

	// 幂等：状态不变，每次调用至多一次写入
	d.MarkOffline(ctx, "peer-A")
	assert.False(t, e.Snapshot().Connected)
	assert.Len(t, store.UpdateCalls(), 2)

	row, _ := store.Peer("peer-A")
	assert.Equal(t, interfaces.StatusOffline, *row.Status)
}

func TestMarkOffline_NeverPersisted(t *testing.T) {
	d, store := newTestDirectory(t)
	ctx := context.Background()

	e, err := d.GetOrCreate(ctx, "peer-A")
	require.NoError(t, err)
	e.Update(func(rec *types.PeerRecord) { rec.Connected = true })

	d.MarkOffline(ctx, "peer-A")
	assert.False(t, e.Snapshot().Connected)
	assert.Empty(t, store.UpdateCalls())
}

func TestMarkOffline_Unknown(t *testing.T) {
	d, store := newTestDirectory(t)

	d.MarkOffline(context.Background(), "nobody")
	assert.False(t, d.IsInMemory("nobody"))
	assert.Empty(t, store.UpdateCalls())
}

func TestMarkOffline_StorageFailureSwallowed(t *testing.T) {
	d, store := newTestDirectory(t)
	store.Seed(interfaces.StoredPeer{Guid: []byte("guid-1"), ID: "peer-A", Status: status(0)})
	store.FailUpdate(errors.New("read-only"))

	assert.NotPanics(t, func() {
		d.MarkOffline(context.Background(), "peer-A")
	})

	e, _ := d.GetInMemory("peer-A")
	assert.False(t, e.Snapshot().Connected)
}

// ============================================================================
// Entry
// ============================================================================

func TestEntry_SnapshotIsCopy(t *testing.T) {
	e := newEntry("peer-A", defaultRecord("peer-A"), nil)
	e.Update(func(rec *types.PeerRecord) {
		rec.PublicKey = []byte("K1")
		rec.SourceAddr = netip.MustParseAddrPort("10.0.0.1:21116")
	})

	snap := e.Snapshot()
	snap.PublicKey[0] = 'X'
	assert.Equal(t, []byte("K1"), e.Snapshot().PublicKey)
}

func TestEntry_AllowRegistration(t *testing.T) {
	d := New(mocks.NewMockPeerStore(), Config{RegBurst: 3, RegInterval: 2 * time.Second})
	e, err := d.GetOrCreate(context.Background(), "peer-A")
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	for i := 0; i < 3; i++ {
		assert.True(t, e.AllowRegistration(now), "attempt %d", i)
	}
	assert.False(t, e.AllowRegistration(now))

	// 一个间隔后恢复一次
	now = now.Add(2 * time.Second)
	assert.True(t, e.AllowRegistration(now))
	assert.False(t, e.AllowRegistration(now))

	unlimited := newEntry("peer-B", defaultRecord("peer-B"), nil)
	for i := 0; i < 100; i++ {
		require.True(t, unlimited.AllowRegistration(now))
	}
}
