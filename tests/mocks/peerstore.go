package mocks

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
)

// ErrMockNotFound guid 不存在
var ErrMockNotFound = errors.New("mock: not found")

// UpdateCall 记录一次 UpdatePeer 调用
type UpdateCall struct {
	Guid      []byte
	ID        string
	PublicKey []byte
	Info      string
	Connected *bool
}

// MockPeerStore 模拟 PeerStore 接口实现
//
// 默认行为是一个线程安全的内存节点库。
type MockPeerStore struct {
	mu sync.Mutex

	peers map[string]interfaces.StoredPeer

	insertErr error
	updateErr error
	getErr    error

	insertCalls    int
	updateCalls    []UpdateCall
	getCalls       int
	setStatusCalls int
	closed         bool

	// 可覆盖的方法
	InsertPeerFunc func(ctx context.Context, id string, uuid, pk []byte, info string, connected bool) ([]byte, error)
	UpdatePeerFunc func(ctx context.Context, guid []byte, id string, pk []byte, info string, connected *bool) error
	GetPeerFunc    func(ctx context.Context, id string) (interfaces.StoredPeer, bool, error)

	// GetDelay 每次 GetPeer 前等待的时长，用于放大并发窗口
	GetDelay time.Duration
}

// NewMockPeerStore 创建空的 MockPeerStore
func NewMockPeerStore() *MockPeerStore {
	return &MockPeerStore{
		peers: make(map[string]interfaces.StoredPeer),
	}
}

// ============================================================================
// 故障注入
// ============================================================================

// FailInsert 让后续 InsertPeer 返回 err，nil 恢复正常
func (m *MockPeerStore) FailInsert(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertErr = err
}

// FailUpdate 让后续 UpdatePeer 返回 err，nil 恢复正常
func (m *MockPeerStore) FailUpdate(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateErr = err
}

// FailGet 让后续 GetPeer 返回 err，nil 恢复正常
func (m *MockPeerStore) FailGet(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

// Seed 直接写入一行，不计入调用次数
func (m *MockPeerStore) Seed(p interfaces.StoredPeer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.peers[p.ID] = p
}

// ============================================================================
// PeerStore 方法
// ============================================================================

// InsertPeer 插入新节点
func (m *MockPeerStore) InsertPeer(ctx context.Context, id string, uuidBytes, pk []byte, info string, connected bool) ([]byte, error) {
	m.mu.Lock()
	m.insertCalls++
	fn, err := m.InsertPeerFunc, m.insertErr
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, id, uuidBytes, pk, info, connected)
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.peers[id]; ok {
		return nil, errors.New("mock: duplicate id")
	}
	g := uuid.New()
	status := interfaces.StatusFromConnected(connected)
	m.peers[id] = interfaces.StoredPeer{
		Guid:      g[:],
		ID:        id,
		UUID:      bytes.Clone(uuidBytes),
		PublicKey: bytes.Clone(pk),
		Info:      info,
		Status:    &status,
		CreatedAt: time.Now(),
	}
	return g[:], nil
}

// UpdatePeer 按 guid 更新节点
func (m *MockPeerStore) UpdatePeer(ctx context.Context, guid []byte, id string, pk []byte, info string, connected *bool) error {
	m.mu.Lock()
	m.updateCalls = append(m.updateCalls, UpdateCall{
		Guid:      bytes.Clone(guid),
		ID:        id,
		PublicKey: bytes.Clone(pk),
		Info:      info,
		Connected: connected,
	})
	fn, err := m.UpdatePeerFunc, m.updateErr
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, guid, id, pk, info, connected)
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, p := range m.peers {
		if !bytes.Equal(p.Guid, guid) {
			continue
		}
		delete(m.peers, key)
		p.ID = id
		p.PublicKey = bytes.Clone(pk)
		p.Info = info
		if connected != nil {
			status := interfaces.StatusFromConnected(*connected)
			p.Status = &status
		}
		m.peers[id] = p
		return nil
	}
	return ErrMockNotFound
}

// GetPeer 按 ID 查询节点
func (m *MockPeerStore) GetPeer(ctx context.Context, id string) (interfaces.StoredPeer, bool, error) {
	m.mu.Lock()
	m.getCalls++
	fn, err, delay := m.GetPeerFunc, m.getErr, m.GetDelay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fn != nil {
		return fn(ctx, id)
	}
	if err != nil {
		return interfaces.StoredPeer{}, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.peers[id]
	return p, ok, nil
}

// SetStatus 直接写入状态
func (m *MockPeerStore) SetStatus(_ context.Context, id string, status int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStatusCalls++
	if p, ok := m.peers[id]; ok {
		p.Status = &status
		m.peers[id] = p
	}
	return nil
}

// Close 关闭
func (m *MockPeerStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// ============================================================================
// 调用记录
// ============================================================================

// InsertCalls 返回 InsertPeer 调用次数
func (m *MockPeerStore) InsertCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertCalls
}

// UpdateCalls 返回 UpdatePeer 调用记录的副本
func (m *MockPeerStore) UpdateCalls() []UpdateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]UpdateCall(nil), m.updateCalls...)
}

// GetCalls 返回 GetPeer 调用次数
func (m *MockPeerStore) GetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

// SetStatusCalls 返回 SetStatus 调用次数
func (m *MockPeerStore) SetStatusCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setStatusCalls
}

// Closed 是否已关闭
func (m *MockPeerStore) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Peer 返回存储中的行
func (m *MockPeerStore) Peer(id string) (interfaces.StoredPeer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.peers[id]
	return p, ok
}

var _ interfaces.PeerStore = (*MockPeerStore)(nil)
