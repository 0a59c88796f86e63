package rendezvous

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/ffrrbb/rustdesk-server/pkg/types"
)

var (
	// ErrInvalidID 节点 ID 不合法
	ErrInvalidID = errors.New("rendezvous: invalid peer id")

	// ErrInvalidAddr 来源地址不合法
	ErrInvalidAddr = errors.New("rendezvous: invalid source address")

	// ErrAddressBlocked 来源地址被滥用检测拒绝
	ErrAddressBlocked = errors.New("rendezvous: address rejected")

	// ErrTooFrequent 同一 ID 注册过于频繁
	ErrTooFrequent = errors.New("rendezvous: registration too frequent")

	// ErrAlreadyStarted 服务已启动
	ErrAlreadyStarted = errors.New("rendezvous: already started")

	// ErrNotStarted 服务未启动
	ErrNotStarted = errors.New("rendezvous: not started")
)

// GuardError 滥用检测拒绝
type GuardError struct {
	Addr   netip.Addr
	Reason types.RejectReason
}

// Error 实现 error 接口
func (e *GuardError) Error() string {
	return fmt.Sprintf("rendezvous: address %s rejected: %s", e.Addr, e.Reason)
}

// Unwrap 返回 ErrAddressBlocked
func (e *GuardError) Unwrap() error {
	return ErrAddressBlocked
}
