package peerdb

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ffrrbb/rustdesk-server/config"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		url     string
		backend Backend
		dsn     string
	}{
		{"./db_v2.sqlite3", BackendSQLite, "./db_v2.sqlite3"},
		{"sqlite:///tmp/peers.db", BackendSQLite, "/tmp/peers.db"},
		{"file:x?mode=memory&cache=shared", BackendSQLite, "file:x?mode=memory&cache=shared"},
		{"postgres://hbbs@localhost/hbbs", BackendPostgres, "postgres://hbbs@localhost/hbbs"},
		{"postgresql://hbbs@localhost/hbbs", BackendPostgres, "postgresql://hbbs@localhost/hbbs"},
		{"badger:///var/lib/hbbs", BackendBadger, "/var/lib/hbbs"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			backend, dsn, err := ParseURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.backend, backend)
			assert.Equal(t, tt.dsn, dsn)
		})
	}
}

func TestParseURL_Unsupported(t *testing.T) {
	for _, url := range []string{"", "mysql://root@localhost/hbbs", "badger://"} {
		_, _, err := ParseURL(url)
		assert.True(t, errors.Is(err, ErrUnsupportedURL), url)
	}
}

func TestOpen_SQLiteFile(t *testing.T) {
	cfg := config.DefaultStorageConfig()
	cfg.DBURL = filepath.Join(t.TempDir(), "db_v2.sqlite3")

	store, err := Open(cfg)
	require.NoError(t, err)
	defer store.Close()

	// 默认超时包装
	_, wrapped := store.(*timeoutStore)
	assert.True(t, wrapped)

	ctx := context.Background()
	_, err = store.InsertPeer(ctx, "peer-A", nil, []byte("K1"), "{}", true)
	require.NoError(t, err)

	_, ok, err := store.GetPeer(ctx, "peer-A")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen_Badger(t *testing.T) {
	cfg := config.StorageConfig{
		DBURL: "badger://" + filepath.Join(t.TempDir(), "peers"),
	}

	store, err := Open(cfg)
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*KVStore)
	assert.True(t, ok, "zero timeout returns the store unwrapped")
}

func TestOpen_Unsupported(t *testing.T) {
	_, err := Open(config.StorageConfig{DBURL: "mysql://localhost/hbbs"})
	require.Error(t, err)
	assert.True(t, IsStorageError(err))
}

func TestWithTimeout(t *testing.T) {
	store := openBadgerTemp(t)
	assert.Same(t, store, WithTimeout(store, 0))

	wrapped := WithTimeout(store, time.Second)
	_, err := wrapped.InsertPeer(context.Background(), "peer-A", nil, []byte("K"), "{}", true)
	require.NoError(t, err)

	n, err := wrapped.(peerCounter).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOpen_LogsPeerCount(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "peers")
	store, err := OpenKV(dir)
	require.NoError(t, err)
	_, err = store.InsertPeer(context.Background(), "peer-A", nil, []byte("K"), "{}", true)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	reopened, err := Open(config.StorageConfig{DBURL: "badger://" + dir})
	require.NoError(t, err)
	defer reopened.Close()

	assert.Contains(t, buf.String(), "backend=badger")
	assert.Contains(t, buf.String(), "peers=1")
}
