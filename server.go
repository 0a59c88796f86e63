package hbbs

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/ffrrbb/rustdesk-server/config"
	"github.com/ffrrbb/rustdesk-server/internal/core/abuseguard"
	"github.com/ffrrbb/rustdesk-server/internal/core/directory"
	"github.com/ffrrbb/rustdesk-server/internal/core/rendezvous"
	"github.com/ffrrbb/rustdesk-server/pkg/lib/log"
	"github.com/ffrrbb/rustdesk-server/pkg/types"
)

var logger = log.Logger("hbbs")

// startTimeout Fx App 启动超时
const startTimeout = 30 * time.Second

// RegisterRequest 注册请求
type RegisterRequest = rendezvous.Request

// AddressStats 来源地址的滥用检测状态
type AddressStats = abuseguard.AddressStats

// Server hbbs 注册服务门面
//
// Server 由 New 创建，Start 后可处理请求。Stop 之后不可重新启动。
type Server struct {
	cfg      *config.Config
	registry *prometheus.Registry
	app      *fx.App

	svc *rendezvous.Service
	dir *directory.Directory

	mu      sync.Mutex
	started bool
	closed  bool
}

// New 创建 Server
//
// 校验配置、打开节点库并装配所有组件，但不启动后台任务。
func New(opts ...Option) (*Server, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	s := &Server{
		cfg:      o.toInternalConfig(),
		registry: o.registry,
	}
	app, err := buildFxApp(o, s.cfg, s)
	if err != nil {
		return nil, err
	}
	s.app = app
	return s, nil
}

// Config 返回生效的配置
func (s *Server) Config() *config.Config {
	return s.cfg
}

// Gatherer 返回指标注册表
func (s *Server) Gatherer() prometheus.Gatherer {
	return s.registry
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期管理
// ════════════════════════════════════════════════════════════════════════════

// Start 启动 Server
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServerClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := s.app.Start(startCtx); err != nil {
		logger.Error("服务启动失败", "error", err)
		return fmt.Errorf("start failed: %w", err)
	}
	s.started = true
	logger.Info("服务已启动", "version", Version)
	return nil
}

// Stop 停止 Server 并释放资源（包括按 URL 打开的节点库）
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServerClosed
	}
	if !s.started {
		return ErrNotStarted
	}

	s.started = false
	s.closed = true
	if err := s.app.Stop(ctx); err != nil {
		logger.Error("停止服务失败", "error", err)
		return fmt.Errorf("stop fx app: %w", err)
	}
	logger.Info("服务已停止")
	return nil
}

func (s *Server) running() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServerClosed
	}
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              注册 API
// ════════════════════════════════════════════════════════════════════════════

// Register 处理一次公钥注册
//
// 返回值约定见 rendezvous.Service.Register：被拒绝的请求返回
// types.ResultNone 和错误（ErrInvalidID、ErrInvalidAddr、ErrAddressBlocked、
// ErrTooFrequent），节点库故障返回 types.ResultServerError 和 nil。
func (s *Server) Register(ctx context.Context, req RegisterRequest) (types.ResultCode, error) {
	if err := s.running(); err != nil {
		return types.ResultNone, err
	}
	return s.svc.Register(ctx, req)
}

// MarkOffline 将节点标记为离线
//
// 节点未知或从未持久化时不做任何事。节点库故障只记录日志。
func (s *Server) MarkOffline(ctx context.Context, id string) error {
	if err := s.running(); err != nil {
		return err
	}
	s.svc.MarkOffline(ctx, id)
	return nil
}

// Lookup 查询节点记录
//
// 节点未知时返回 ErrPeerNotFound。
func (s *Server) Lookup(ctx context.Context, id string) (types.PeerRecord, error) {
	if err := s.running(); err != nil {
		return types.PeerRecord{}, err
	}
	return s.svc.Lookup(ctx, id)
}

// SetStatus 直接写入节点状态列
//
// Deprecated: 不加锁、不更新目录缓存、不做滥用检测，保留给旧的管理工具。
// 使用 Register 和 MarkOffline。
func (s *Server) SetStatus(ctx context.Context, id string, status int64) error {
	if err := s.running(); err != nil {
		return err
	}
	return s.svc.SetStatus(ctx, id, status)
}

// GuardStats 返回来源地址的滥用检测状态
func (s *Server) GuardStats(addr netip.Addr) (AddressStats, bool) {
	return s.svc.GuardStats(addr)
}

// CachedPeers 返回目录中缓存的节点数
func (s *Server) CachedPeers() int {
	return s.dir.Len()
}
