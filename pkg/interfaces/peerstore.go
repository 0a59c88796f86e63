package interfaces

import (
	"context"
	"time"
)

// StoredPeer 存储层中的节点行
type StoredPeer struct {
	// Guid 行标识
	Guid []byte

	// ID 节点 ID
	ID string

	// UUID 客户端实例标识
	UUID []byte

	// PublicKey 公钥
	PublicKey []byte

	// Info 序列化后的元数据（JSON）
	Info string

	// Status 在线状态：0 在线，非 0 离线，nil 表示未知
	Status *int64

	// CreatedAt 首次插入时间
	CreatedAt time.Time
}

// 节点状态列取值
const (
	// StatusOnline 在线
	StatusOnline int64 = 0
	// StatusOffline 离线
	StatusOffline int64 = 1
)

// StatusFromConnected 将在线标记转换为状态列取值
func StatusFromConnected(connected bool) int64 {
	if connected {
		return StatusOnline
	}
	return StatusOffline
}

// PeerStore 节点持久化网关
//
// 以节点 ID 为键的持久化节点记录。目录缓存（internal/core/directory）
// 与注册协议（internal/core/registration）只通过此接口访问存储。
//
// 线程安全：实现必须保证所有方法的线程安全性。
// 超时：调用方通过 ctx 约束单次调用，实现不做重试。
type PeerStore interface {
	// InsertPeer 插入新节点
	//
	// 返回:
	//   - []byte: 存储层分配的 guid
	//   - error: 存储故障或 ID 冲突
	InsertPeer(ctx context.Context, id string, uuid, pk []byte, info string, connected bool) ([]byte, error)

	// UpdatePeer 按 guid 更新已有节点
	//
	// connected 为 nil 时保留原状态列。
	// guid 不存在时返回 ErrNotFound。
	UpdatePeer(ctx context.Context, guid []byte, id string, pk []byte, info string, connected *bool) error

	// GetPeer 按 ID 查询节点
	//
	// 返回:
	//   - StoredPeer: 节点行
	//   - bool: 是否存在
	//   - error: 存储故障
	GetPeer(ctx context.Context, id string) (StoredPeer, bool, error)

	// SetStatus 直接写入状态列（遗留接口）
	//
	// 不加锁、不经过缓存、不做滥用检测。需要一致状态的调用方
	// 应使用 directory / registration。
	SetStatus(ctx context.Context, id string, status int64) error

	// Close 关闭存储
	Close() error
}
