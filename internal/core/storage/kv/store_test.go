package kv

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ffrrbb/rustdesk-server/internal/core/storage/engine"
	"github.com/ffrrbb/rustdesk-server/internal/core/storage/engine/badger"
)

// testStore 创建测试用 KVStore
func testStore(t *testing.T, prefix string) *Store {
	t.Helper()

	cfg := engine.DefaultConfig(filepath.Join(t.TempDir(), "kv.db"))
	cfg.SyncWrites = false
	eng, err := badger.New(cfg)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	t.Cleanup(func() {
		if err := eng.Close(); err != nil {
			t.Errorf("failed to close engine: %v", err)
		}
	})

	return New(eng, []byte(prefix))
}

type record struct {
	ID   string `json:"id"`
	Info string `json:"info"`
}

// set 在一个事务中写入单个键
func set(t *testing.T, s *Store, key, value []byte) {
	t.Helper()

	err := s.Update(func(txn *Transaction) error {
		return txn.Set(key, value)
	})
	if err != nil {
		t.Fatalf("Update %s failed: %v", key, err)
	}
}

// ============= 基础操作测试 =============

func TestStore_SetGet(t *testing.T) {
	s := testStore(t, "p/")
	set(t, s, []byte("peer-A"), []byte("v1"))

	got, err := s.Get([]byte("peer-A"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, []byte("v1")) {
		t.Errorf("Get returned %q, want v1", got)
	}

	// 原始键带有前缀
	raw, err := s.engine.Get([]byte("p/peer-A"))
	if err != nil {
		t.Fatalf("raw Get failed: %v", err)
	}
	if !bytes.Equal(raw, []byte("v1")) {
		t.Errorf("raw value = %q, want v1", raw)
	}
}

func TestStore_TxnDelete(t *testing.T) {
	s := testStore(t, "p/")

	key := []byte("peer-B")
	set(t, s, key, []byte("v"))

	err := s.Update(func(txn *Transaction) error {
		return txn.Delete(key)
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := s.Get(key); !engine.IsNotFound(err) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
}

func TestStore_JSON(t *testing.T) {
	s := testStore(t, "p/")

	in := record{ID: "peer-A", Info: `{"ip":"1.2.3.4"}`}
	err := s.Update(func(txn *Transaction) error {
		return txn.SetJSON([]byte(in.ID), in)
	})
	if err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	var out record
	if err := s.GetJSON([]byte(in.ID), &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out != in {
		t.Errorf("GetJSON = %+v, want %+v", out, in)
	}
}

// ============= 前缀隔离测试 =============

func TestStore_PrefixIsolation(t *testing.T) {
	root := testStore(t, "")
	peers := root.SubStore([]byte("p/"))
	guids := root.SubStore([]byte("g/"))

	for _, id := range []string{"a", "b", "c"} {
		set(t, peers, []byte(id), []byte(id))
	}
	set(t, guids, []byte("x"), []byte("a"))

	n, err := peers.Count(nil)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("peers Count = %d, want 3", n)
	}

	var keys []string
	err = peers.PrefixScan(nil, func(key, _ []byte) bool {
		keys = append(keys, string(key))
		return len(keys) < 2
	})
	if err != nil {
		t.Fatalf("PrefixScan failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("PrefixScan keys = %v, want [a b]", keys)
	}
}

// ============= 事务测试 =============

func TestStore_UpdateCommitsAcrossPrefixes(t *testing.T) {
	root := testStore(t, "")

	err := root.Update(func(txn *Transaction) error {
		if err := txn.Sub([]byte("g/")).Set([]byte("guid-1"), []byte("peer-A")); err != nil {
			return err
		}
		return txn.Sub([]byte("p/")).SetJSON([]byte("peer-A"), record{ID: "peer-A"})
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	id, err := root.SubStore([]byte("g/")).Get([]byte("guid-1"))
	if err != nil || string(id) != "peer-A" {
		t.Fatalf("guid index = %q, %v; want peer-A", id, err)
	}

	var rec record
	if err := root.SubStore([]byte("p/")).GetJSON([]byte("peer-A"), &rec); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if rec.ID != "peer-A" {
		t.Errorf("record ID = %q, want peer-A", rec.ID)
	}
}

func TestStore_UpdateDiscardsOnError(t *testing.T) {
	s := testStore(t, "p/")

	errAbort := errors.New("abort")
	err := s.Update(func(txn *Transaction) error {
		if err := txn.Set([]byte("peer-A"), []byte("v")); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("Update = %v, want errAbort", err)
	}

	if _, err := s.Get([]byte("peer-A")); !engine.IsNotFound(err) {
		t.Errorf("Get after aborted Update = %v, want ErrNotFound", err)
	}
}
