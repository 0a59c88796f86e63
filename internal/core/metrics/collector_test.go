package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ffrrbb/rustdesk-server/tests/mocks"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveRegistration("OK")
	c.ObserveRegistration("OK")
	c.ObserveRegistration("SERVER_ERROR")
	c.ObserveRejection("churn")
	c.ObserveLookup(SourceMemory)
	c.SetDirectoryEntries(7)
	c.SetTrackedAddresses(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.registrations.WithLabelValues("OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.registrations.WithLabelValues("SERVER_ERROR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rejections.WithLabelValues("churn")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lookups.WithLabelValues(SourceMemory)))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.entries))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.addresses))

	n, err := testutil.GatherAndCount(reg, "hbbs_registrations_total", "hbbs_registration_rate")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.ObserveRegistration("OK")
		c.ObserveRejection("blocked")
		c.ObserveStorageError(OpInsert)
		c.ObserveLookup(SourceMiss)
		c.SetDirectoryEntries(1)
		c.SetTrackedAddresses(1)
	})
	assert.Zero(t, c.RegistrationRate())
}

func TestRateMeter_Window(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Unix(1_700_000_000, 0))
	r := NewRateMeter(clk)

	r.Add(30)
	clk.Add(10 * time.Second)
	r.Add(30)
	assert.Equal(t, int64(60), r.Total())
	assert.Equal(t, 1.0, r.Rate())

	// 第一个桶滑出窗口
	clk.Add(55 * time.Second)
	assert.Equal(t, int64(30), r.Total())

	// 超过整个窗口没有数据
	clk.Add(2 * time.Minute)
	assert.Equal(t, int64(0), r.Total())
}

func TestInstrumentStore(t *testing.T) {
	c := NewCollector(nil)
	store := mocks.NewMockPeerStore()
	wrapped := InstrumentStore(store, c)

	ctx := context.Background()
	_, err := wrapped.InsertPeer(ctx, "peer-A", nil, []byte("K1"), "{}", true)
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.storageErrors.WithLabelValues(OpInsert)))

	store.FailInsert(errors.New("disk full"))
	_, err = wrapped.InsertPeer(ctx, "peer-B", nil, []byte("K1"), "{}", true)
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.storageErrors.WithLabelValues(OpInsert)))

	store.FailGet(errors.New("timeout"))
	_, _, err = wrapped.GetPeer(ctx, "peer-A")
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.storageErrors.WithLabelValues(OpGet)))

	assert.Same(t, store, InstrumentStore(store, nil))
}
