package hbbs

import (
	"errors"

	"github.com/ffrrbb/rustdesk-server/internal/core/directory"
	"github.com/ffrrbb/rustdesk-server/internal/core/rendezvous"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 服务生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 服务未启动
	ErrNotStarted = errors.New("server not started")

	// ErrAlreadyStarted 服务已启动
	ErrAlreadyStarted = errors.New("server already started")

	// ErrServerClosed 服务已关闭
	ErrServerClosed = errors.New("server closed")

	// ────────────────────────────────────────────────────────────────────────
	// 注册错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrInvalidID 节点 ID 不合法
	ErrInvalidID = rendezvous.ErrInvalidID

	// ErrInvalidAddr 来源地址不合法
	ErrInvalidAddr = rendezvous.ErrInvalidAddr

	// ErrAddressBlocked 来源地址被滥用检测拒绝
	ErrAddressBlocked = rendezvous.ErrAddressBlocked

	// ErrTooFrequent 同一 ID 注册过于频繁
	ErrTooFrequent = rendezvous.ErrTooFrequent

	// ErrPeerNotFound 节点未找到
	ErrPeerNotFound = directory.ErrNotFound
)
