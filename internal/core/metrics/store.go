package metrics

import (
	"context"

	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
)

// 存储操作标签
const (
	OpInsert    = "insert"
	OpUpdate    = "update"
	OpGet       = "get"
	OpSetStatus = "set_status"
)

// instrumentedStore 统计存储错误的节点库包装
type instrumentedStore struct {
	interfaces.PeerStore
	c *Collector
}

// InstrumentStore 返回按操作统计错误的节点库，c 为 nil 时原样返回
func InstrumentStore(store interfaces.PeerStore, c *Collector) interfaces.PeerStore {
	if c == nil {
		return store
	}
	return &instrumentedStore{PeerStore: store, c: c}
}

func (s *instrumentedStore) observe(op string, err error) {
	if err != nil {
		s.c.ObserveStorageError(op)
	}
}

func (s *instrumentedStore) InsertPeer(ctx context.Context, id string, uuid, pk []byte, info string, connected bool) ([]byte, error) {
	guid, err := s.PeerStore.InsertPeer(ctx, id, uuid, pk, info, connected)
	s.observe(OpInsert, err)
	return guid, err
}

func (s *instrumentedStore) UpdatePeer(ctx context.Context, guid []byte, id string, pk []byte, info string, connected *bool) error {
	err := s.PeerStore.UpdatePeer(ctx, guid, id, pk, info, connected)
	s.observe(OpUpdate, err)
	return err
}

func (s *instrumentedStore) GetPeer(ctx context.Context, id string) (interfaces.StoredPeer, bool, error) {
	p, ok, err := s.PeerStore.GetPeer(ctx, id)
	s.observe(OpGet, err)
	return p, ok, err
}

func (s *instrumentedStore) SetStatus(ctx context.Context, id string, status int64) error {
	err := s.PeerStore.SetStatus(ctx, id, status)
	s.observe(OpSetStatus, err)
	return err
}
