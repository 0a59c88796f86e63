package peerdb

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/ffrrbb/rustdesk-server/internal/core/storage/engine"
	"github.com/ffrrbb/rustdesk-server/internal/core/storage/engine/badger"
	"github.com/ffrrbb/rustdesk-server/internal/core/storage/kv"
	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
)

// 键前缀
var (
	// prefixPeer p/<id> -> kvPeer JSON
	prefixPeer = []byte("p/")

	// prefixGuid g/<guid> -> id
	prefixGuid = []byte("g/")
)

// kvPeer 键值存储中的节点记录
type kvPeer struct {
	Guid      []byte    `json:"guid"`
	ID        string    `json:"id"`
	UUID      []byte    `json:"uuid"`
	PK        []byte    `json:"pk"`
	CreatedAt time.Time `json:"created_at"`
	Status    *int64    `json:"status,omitempty"`
	Note      string    `json:"note,omitempty"`
	Info      string    `json:"info"`
}

func (p *kvPeer) toStored() interfaces.StoredPeer {
	return interfaces.StoredPeer{
		Guid:      p.Guid,
		ID:        p.ID,
		UUID:      p.UUID,
		PublicKey: p.PK,
		Info:      p.Info,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
	}
}

// KVStore 基于 BadgerDB 的节点库
//
// 每次写入在一个 badger 事务中同时维护记录和 guid 索引。
// 并发写同一记录时事务冲突作为 StorageError 返回，不做重试。
type KVStore struct {
	eng  engine.InternalEngine
	root *kv.Store
}

// OpenKV 在 dir 打开 BadgerDB 节点库
func OpenKV(dir string) (*KVStore, error) {
	cfg := engine.DefaultConfig(dir)
	eng, err := badger.New(cfg)
	if err != nil {
		return nil, wrap(OpOpen, err)
	}
	if err := eng.Start(); err != nil {
		_ = eng.Close()
		return nil, wrap(OpOpen, err)
	}
	return NewKVStore(eng), nil
}

// NewKVStore 使用已有引擎创建节点库，Close 时关闭引擎
func NewKVStore(eng engine.InternalEngine) *KVStore {
	return &KVStore{
		eng:  eng,
		root: kv.New(eng, nil),
	}
}

// InsertPeer 插入新节点，返回新分配的 guid
func (s *KVStore) InsertPeer(ctx context.Context, id string, uuidBytes, pk []byte, info string, connected bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(OpInsert, err)
	}

	g := uuid.New()
	status := interfaces.StatusFromConnected(connected)
	rec := kvPeer{
		Guid:      g[:],
		ID:        id,
		UUID:      uuidBytes,
		PK:        pk,
		CreatedAt: time.Now().UTC(),
		Status:    &status,
		Info:      info,
	}

	err := s.root.Update(func(txn *kv.Transaction) error {
		peers := txn.Sub(prefixPeer)
		if _, err := peers.Get([]byte(id)); err == nil {
			return ErrDuplicateID
		} else if !engine.IsNotFound(err) {
			return err
		}
		if err := peers.SetJSON([]byte(id), rec); err != nil {
			return err
		}
		return txn.Sub(prefixGuid).Set(rec.Guid, []byte(id))
	})
	if err != nil {
		return nil, wrap(OpInsert, err)
	}
	return rec.Guid, nil
}

// UpdatePeer 按 guid 更新节点
//
// ID 改变时记录迁移到新键，新 ID 已被其他记录占用时返回 ErrDuplicateID。
func (s *KVStore) UpdatePeer(ctx context.Context, guid []byte, id string, pk []byte, info string, connected *bool) error {
	if err := ctx.Err(); err != nil {
		return wrap(OpUpdate, err)
	}

	err := s.root.Update(func(txn *kv.Transaction) error {
		peers := txn.Sub(prefixPeer)
		guids := txn.Sub(prefixGuid)

		oldID, err := guids.Get(guid)
		if engine.IsNotFound(err) {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		var rec kvPeer
		if err := peers.GetJSON(oldID, &rec); err != nil {
			if engine.IsNotFound(err) {
				return ErrNotFound
			}
			return err
		}

		if !bytes.Equal(oldID, []byte(id)) {
			if _, err := peers.Get([]byte(id)); err == nil {
				return ErrDuplicateID
			} else if !engine.IsNotFound(err) {
				return err
			}
			if err := peers.Delete(oldID); err != nil {
				return err
			}
			if err := guids.Set(guid, []byte(id)); err != nil {
				return err
			}
		}

		rec.ID = id
		rec.PK = pk
		rec.Info = info
		if connected != nil {
			status := interfaces.StatusFromConnected(*connected)
			rec.Status = &status
		}
		return peers.SetJSON([]byte(id), rec)
	})
	return wrap(OpUpdate, err)
}

// GetPeer 按 ID 查询节点
func (s *KVStore) GetPeer(ctx context.Context, id string) (interfaces.StoredPeer, bool, error) {
	if err := ctx.Err(); err != nil {
		return interfaces.StoredPeer{}, false, wrap(OpGet, err)
	}

	var rec kvPeer
	err := s.root.SubStore(prefixPeer).GetJSON([]byte(id), &rec)
	switch {
	case engine.IsNotFound(err):
		return interfaces.StoredPeer{}, false, nil
	case err != nil:
		return interfaces.StoredPeer{}, false, wrap(OpGet, err)
	}
	return rec.toStored(), true, nil
}

// SetStatus 直接写入状态列（遗留接口），不存在的 ID 不报错
func (s *KVStore) SetStatus(ctx context.Context, id string, status int64) error {
	if err := ctx.Err(); err != nil {
		return wrap(OpSetStatus, err)
	}

	err := s.root.Update(func(txn *kv.Transaction) error {
		peers := txn.Sub(prefixPeer)
		var rec kvPeer
		if err := peers.GetJSON([]byte(id), &rec); err != nil {
			if engine.IsNotFound(err) {
				return nil
			}
			return err
		}
		rec.Status = &status
		return peers.SetJSON([]byte(id), rec)
	})
	return wrap(OpSetStatus, err)
}

// Count 返回记录数量
func (s *KVStore) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, wrap(OpCount, err)
	}
	n, err := s.root.SubStore(prefixPeer).Count(nil)
	return n, wrap(OpCount, err)
}

// Close 落盘后关闭底层引擎，重复调用返回 nil
func (s *KVStore) Close() error {
	err := s.eng.Sync()
	if errors.Is(err, engine.ErrClosed) {
		return nil
	}
	return wrap(OpClose, multierr.Append(err, s.eng.Close()))
}

var _ interfaces.PeerStore = (*KVStore)(nil)
