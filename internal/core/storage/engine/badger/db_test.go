package badger

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/ffrrbb/rustdesk-server/internal/core/storage/engine"
)

// testEngine 创建测试用引擎
func testEngine(t *testing.T) *Engine {
	t.Helper()

	cfg := engine.DefaultConfig(filepath.Join(t.TempDir(), "peers.db"))
	cfg.SyncWrites = false
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	t.Cleanup(func() {
		if err := e.Close(); err != nil {
			t.Errorf("failed to close engine: %v", err)
		}
	})

	return e
}

// put 通过读写事务写入单个键
func put(t *testing.T, e *Engine, key, value []byte) {
	t.Helper()

	txn := e.NewTransaction(true)
	defer txn.Discard()
	if err := txn.Set(key, value); err != nil {
		t.Fatalf("Set %s failed: %v", key, err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("Commit %s failed: %v", key, err)
	}
}

// ============= 基础读写测试 =============

func TestEngine_SetGet(t *testing.T) {
	e := testEngine(t)

	key := []byte("p/peer-A")
	value := []byte(`{"id":"peer-A"}`)
	put(t, e, key, value)

	got, err := e.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}
}

func TestEngine_GetNotFound(t *testing.T) {
	e := testEngine(t)

	if _, err := e.Get([]byte("missing")); !engine.IsNotFound(err) {
		t.Errorf("Get returned error %v, want ErrNotFound", err)
	}
}

func TestEngine_EmptyKey(t *testing.T) {
	e := testEngine(t)

	txn := e.NewTransaction(true)
	defer txn.Discard()
	if err := txn.Set(nil, []byte("v")); err != engine.ErrEmptyKey {
		t.Errorf("Set(nil) = %v, want ErrEmptyKey", err)
	}
}

func TestEngine_TxnDelete(t *testing.T) {
	e := testEngine(t)

	key := []byte("p/peer-B")
	put(t, e, key, []byte("v"))

	txn := e.NewTransaction(true)
	defer txn.Discard()
	if err := txn.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if _, err := e.Get(key); !engine.IsNotFound(err) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
}

func TestEngine_SyncPersists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sync.db")
	e, err := New(engine.DefaultConfig(dir))
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	put(t, e, []byte("p/peer-A"), []byte("v"))
	if err := e.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// 重新打开后数据仍在
	reopened, err := New(engine.DefaultConfig(dir))
	if err != nil {
		t.Fatalf("failed to reopen engine: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get([]byte("p/peer-A"))
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("value = %q, want v", got)
	}
}

func TestEngine_ClosedOperations(t *testing.T) {
	cfg := engine.DefaultConfig(filepath.Join(t.TempDir(), "closed.db"))
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// 重复关闭是安全的
	if err := e.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if _, err := e.Get([]byte("k")); err != engine.ErrClosed {
		t.Errorf("Get after close = %v, want ErrClosed", err)
	}
	if err := e.Sync(); err != engine.ErrClosed {
		t.Errorf("Sync after close = %v, want ErrClosed", err)
	}
}

// ============= 事务测试 =============

func TestTransaction_CommitAndConflict(t *testing.T) {
	e := testEngine(t)

	key := []byte("g/guid-1")

	// 两个并发读写事务读取同一个键
	txn1 := e.NewTransaction(true)
	defer txn1.Discard()
	txn2 := e.NewTransaction(true)
	defer txn2.Discard()

	if _, err := txn1.Get(key); !engine.IsNotFound(err) {
		t.Fatalf("txn1 Get = %v, want ErrNotFound", err)
	}
	if _, err := txn2.Get(key); !engine.IsNotFound(err) {
		t.Fatalf("txn2 Get = %v, want ErrNotFound", err)
	}

	if err := txn1.Set(key, []byte("peer-A")); err != nil {
		t.Fatalf("txn1 Set failed: %v", err)
	}
	if err := txn2.Set(key, []byte("peer-B")); err != nil {
		t.Fatalf("txn2 Set failed: %v", err)
	}

	if err := txn1.Commit(); err != nil {
		t.Fatalf("txn1 Commit failed: %v", err)
	}
	// 第二个事务读过已被修改的键，提交时冲突
	if err := txn2.Commit(); !engine.IsConflict(err) {
		t.Fatalf("txn2 Commit = %v, want ErrTransactionConflict", err)
	}

	got, err := e.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "peer-A" {
		t.Errorf("value = %q, want peer-A", got)
	}
}

func TestTransaction_ReadOnly(t *testing.T) {
	e := testEngine(t)

	txn := e.NewTransaction(false)
	defer txn.Discard()

	if err := txn.Set([]byte("k"), []byte("v")); err != engine.ErrReadOnly {
		t.Errorf("Set in read-only txn = %v, want ErrReadOnly", err)
	}
}

func TestTransaction_UseAfterDiscard(t *testing.T) {
	e := testEngine(t)

	txn := e.NewTransaction(true)
	txn.Discard()
	txn.Discard()

	if _, err := txn.Get([]byte("k")); err != engine.ErrTransactionDiscarded {
		t.Errorf("Get after Discard = %v, want ErrTransactionDiscarded", err)
	}
}

// ============= 迭代器测试 =============

func TestPrefixIterator(t *testing.T) {
	e := testEngine(t)

	for _, k := range []string{"p/a", "p/b", "p/c", "g/x"} {
		put(t, e, []byte(k), []byte(k))
	}

	iter := e.NewPrefixIterator([]byte("p/"))
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
		if !bytes.Equal(iter.Key(), iter.Value()) {
			t.Errorf("value mismatch for %s", iter.Key())
		}
	}
	if err := iter.Error(); err != nil {
		t.Fatalf("iterator error: %v", err)
	}

	if len(keys) != 3 || keys[0] != "p/a" || keys[2] != "p/c" {
		t.Errorf("keys = %v, want [p/a p/b p/c]", keys)
	}
}
