package types

import (
	"bytes"
	"encoding/json"
	"net/netip"
	"time"
)

// UnspecifiedAddr 尚未注册过的节点使用的占位地址
var UnspecifiedAddr = netip.AddrPortFrom(netip.IPv4Unspecified(), 0)

// ============================================================================
//                              PeerInfo - 节点元数据
// ============================================================================

// PeerInfo 随节点记录持久化的元数据
//
// 序列化为 JSON 存储在 info 列中，例如 {"ip":"10.0.0.1"}。
type PeerInfo struct {
	// IP 最近一次注册的来源 IP
	IP string `json:"ip"`
}

// Encode 序列化元数据
func (i PeerInfo) Encode() string {
	data, err := json.Marshal(i)
	if err != nil {
		return ""
	}
	return string(data)
}

// DecodePeerInfo 解析元数据，无法解析时返回零值
func DecodePeerInfo(s string) PeerInfo {
	var info PeerInfo
	if s == "" {
		return info
	}
	if err := json.Unmarshal([]byte(s), &info); err != nil {
		return PeerInfo{}
	}
	return info
}

// ============================================================================
//                              PeerRecord - 节点身份记录
// ============================================================================

// PeerRecord 节点身份记录
//
// Guid 为空表示记录从未被持久化；首次插入成功后被赋值且不再改变。
type PeerRecord struct {
	// ID 调用方提供的稳定标识（唯一键）
	ID string

	// Guid 存储层分配的行标识
	Guid []byte

	// UUID 客户端提供的实例标识
	UUID []byte

	// PublicKey 注册时提交的公钥
	PublicKey []byte

	// SourceAddr 最近一次注册的来源地址
	SourceAddr netip.AddrPort

	// Info 元数据
	Info PeerInfo

	// LastRegTime 最近一次成功注册时间
	LastRegTime time.Time

	// Connected 是否在线
	Connected bool
}

// Persisted 记录是否已写入存储
func (r *PeerRecord) Persisted() bool {
	return len(r.Guid) > 0
}

// Clone 返回深拷贝，调用方可安全修改
func (r PeerRecord) Clone() PeerRecord {
	r.Guid = bytes.Clone(r.Guid)
	r.UUID = bytes.Clone(r.UUID)
	r.PublicKey = bytes.Clone(r.PublicKey)
	return r
}
