package directory

import (
	"bytes"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
	"github.com/ffrrbb/rustdesk-server/pkg/types"
)

// Entry 目录条目，同一 ID 的所有调用方共享同一个 *Entry
type Entry struct {
	id string

	// mu 保护 rec
	mu  sync.RWMutex
	rec types.PeerRecord

	// seq 序列锁，见 Acquire
	seq sync.Mutex

	// limiter 注册节流，nil 表示不限
	limiter *rate.Limiter
}

func newEntry(id string, rec types.PeerRecord, limiter *rate.Limiter) *Entry {
	rec.ID = id
	return &Entry{
		id:      id,
		rec:     rec,
		limiter: limiter,
	}
}

// defaultRecord 未持久化的新记录
func defaultRecord(id string) types.PeerRecord {
	return types.PeerRecord{
		ID:         id,
		SourceAddr: types.UnspecifiedAddr,
	}
}

// recordFromStored 从节点库行构造记录
//
// 状态列为 0 视为在线，缺失或非 0 视为离线。
func recordFromStored(p interfaces.StoredPeer) types.PeerRecord {
	return types.PeerRecord{
		ID:         p.ID,
		Guid:       bytes.Clone(p.Guid),
		UUID:       bytes.Clone(p.UUID),
		PublicKey:  bytes.Clone(p.PublicKey),
		SourceAddr: types.UnspecifiedAddr,
		Info:       types.DecodePeerInfo(p.Info),
		Connected:  p.Status != nil && *p.Status == interfaces.StatusOnline,
	}
}

// ID 返回节点 ID
func (e *Entry) ID() string {
	return e.id
}

// Snapshot 返回记录的深拷贝
func (e *Entry) Snapshot() types.PeerRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rec.Clone()
}

// Update 在字段锁内修改记录
//
// fn 不得阻塞，也不得访问其他 Entry。
func (e *Entry) Update(fn func(rec *types.PeerRecord)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.rec)
}

// Acquire 获取序列锁，返回释放函数
//
// 持有序列锁期间同一 ID 的其他插入或更新流程等待，
// 因此只有一个流程会看到空 guid 并执行插入。
func (e *Entry) Acquire() (release func()) {
	e.seq.Lock()
	return e.seq.Unlock
}

// AllowRegistration 在 now 时刻是否允许再次注册公钥
func (e *Entry) AllowRegistration(now time.Time) bool {
	if e.limiter == nil {
		return true
	}
	return e.limiter.AllowN(now, 1)
}
