package registration

import (
	"bytes"
	"context"
	"encoding/hex"
	"net/netip"

	"github.com/benbjohnson/clock"

	"github.com/ffrrbb/rustdesk-server/internal/core/directory"
	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
	"github.com/ffrrbb/rustdesk-server/pkg/lib/log"
	"github.com/ffrrbb/rustdesk-server/pkg/types"
)

var logger = log.Logger("core/registration")

// Option 协议选项
type Option func(*Protocol)

// WithClock 设置时钟（测试使用）
func WithClock(clk clock.Clock) Option {
	return func(p *Protocol) {
		p.clock = clk
	}
}

// Protocol 公钥注册协议
type Protocol struct {
	store interfaces.PeerStore
	clock clock.Clock
}

// New 创建注册协议
func New(store interfaces.PeerStore, opts ...Option) *Protocol {
	p := &Protocol{
		store: store,
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Clock 返回协议使用的时钟
func (p *Protocol) Clock() clock.Clock {
	return p.clock
}

// UpdatePublicKey 写入一次公钥注册
//
// 内存字段先于存储写入更新；插入失败时 guid 保持为空，重试仍走插入。
func (p *Protocol) UpdatePublicKey(ctx context.Context, id string, entry *directory.Entry,
	addr netip.AddrPort, uuid, pk []byte, ip string) types.ResultCode {

	release := entry.Acquire()
	defer release()

	var (
		guid      []byte
		info      string
		connected bool
	)
	now := p.clock.Now()
	entry.Update(func(rec *types.PeerRecord) {
		rec.SourceAddr = addr
		rec.UUID = bytes.Clone(uuid)
		rec.PublicKey = bytes.Clone(pk)
		rec.LastRegTime = now
		rec.Info.IP = ip
		rec.Connected = true

		guid = bytes.Clone(rec.Guid)
		info = rec.Info.Encode()
		connected = rec.Connected
	})

	if len(guid) == 0 {
		newGuid, err := p.store.InsertPeer(ctx, id, uuid, pk, info, connected)
		if err != nil {
			p.logFailure("插入节点失败", id, addr, uuid, pk, err)
			return types.ResultServerError
		}
		entry.Update(func(rec *types.PeerRecord) {
			rec.Guid = newGuid
		})
		logger.Debug("新节点注册", "id", id, "addr", addr)
		return types.ResultOK
	}

	if err := p.store.UpdatePeer(ctx, guid, id, pk, info, &connected); err != nil {
		p.logFailure("更新节点失败", id, addr, uuid, pk, err)
		return types.ResultServerError
	}
	logger.Debug("节点公钥已更新", "id", id, "addr", addr)
	return types.ResultOK
}

func (p *Protocol) logFailure(msg, id string, addr netip.AddrPort, uuid, pk []byte, err error) {
	logger.Error(msg,
		"id", id,
		"addr", addr,
		"uuid", hex.EncodeToString(uuid),
		"pk", hex.EncodeToString(pk),
		"error", err)
}
