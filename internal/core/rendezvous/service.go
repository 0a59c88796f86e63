package rendezvous

import (
	"context"
	"net/netip"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/benbjohnson/clock"

	"github.com/ffrrbb/rustdesk-server/internal/core/abuseguard"
	"github.com/ffrrbb/rustdesk-server/internal/core/directory"
	"github.com/ffrrbb/rustdesk-server/internal/core/metrics"
	"github.com/ffrrbb/rustdesk-server/internal/core/registration"
	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
	"github.com/ffrrbb/rustdesk-server/pkg/lib/log"
	"github.com/ffrrbb/rustdesk-server/pkg/types"
)

var logger = log.Logger("core/rendezvous")

// MaxIDLength 节点 ID 最大字节数
const MaxIDLength = 64

// DefaultSweepInterval 默认清扫间隔
const DefaultSweepInterval = 60 * time.Second

// Request 注册请求
type Request struct {
	// ID 节点 ID
	ID string

	// UUID 客户端实例标识
	UUID []byte

	// PublicKey 公钥，有效性由传输层校验
	PublicKey []byte

	// Addr 来源地址
	Addr netip.AddrPort
}

// ValidateID 检查节点 ID
//
// ID 非空、不超过 MaxIDLength 字节、是合法 UTF-8 且不含空白或控制字符。
func ValidateID(id string) error {
	if id == "" || len(id) > MaxIDLength || !utf8.ValidString(id) {
		return ErrInvalidID
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ErrInvalidID
		}
	}
	return nil
}

// Option 服务选项
type Option func(*Service)

// WithMetrics 设置指标集合
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = c
	}
}

// WithSweepInterval 设置清扫间隔
func WithSweepInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithClock 设置时钟（清扫循环和注册节流使用）
func WithClock(clk clock.Clock) Option {
	return func(s *Service) {
		s.clock = clk
	}
}

// Service 注册流程服务
type Service struct {
	store   interfaces.PeerStore
	dir     *directory.Directory
	proto   *registration.Protocol
	guard   *abuseguard.Guard
	metrics *metrics.Collector
	clock   clock.Clock

	sweepInterval time.Duration

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New 创建注册流程服务
func New(store interfaces.PeerStore, dir *directory.Directory, proto *registration.Protocol,
	guard *abuseguard.Guard, opts ...Option) *Service {

	s := &Service{
		store:         store,
		dir:           dir,
		proto:         proto,
		guard:         guard,
		clock:         proto.Clock(),
		sweepInterval: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================================
//                              注册
// ============================================================================

// Register 处理一次公钥注册
//
// 请求被处理时返回 ResultOK 或 ResultServerError 和 nil；请求被拒绝时
// 返回 ResultNone 和错误：
//   - ErrInvalidID / ErrInvalidAddr: 请求不合法
//   - *GuardError（errors.Is ErrAddressBlocked）: 来源地址被拒绝
//   - ErrTooFrequent: 同一 ID 注册过于频繁
//
// 节点库故障不作为错误返回，而是 ResultServerError。
func (s *Service) Register(ctx context.Context, req Request) (types.ResultCode, error) {
	if err := ValidateID(req.ID); err != nil {
		s.metrics.ObserveRegistration(metrics.ResultInvalid)
		return types.ResultNone, err
	}
	if !req.Addr.IsValid() {
		s.metrics.ObserveRegistration(metrics.ResultInvalid)
		return types.ResultNone, ErrInvalidAddr
	}

	ip := req.Addr.Addr().Unmap()
	defer s.guard.Record(ip, req.ID)

	if v := s.guard.Evaluate(ip, req.ID); !v.Allowed {
		s.metrics.ObserveRejection(v.Reason.String())
		s.metrics.ObserveRegistration(metrics.ResultBlocked)
		logger.Debug("注册被拒绝", "id", req.ID, "addr", ip, "reason", v.Reason.String())
		return types.ResultNone, &GuardError{Addr: ip, Reason: v.Reason}
	}

	entry, err := s.dir.GetOrCreate(ctx, req.ID)
	if err != nil {
		logger.Error("加载节点失败", "id", req.ID, "addr", req.Addr, "error", err)
		s.metrics.ObserveRegistration(types.ResultServerError.String())
		return types.ResultServerError, nil
	}
	s.metrics.SetDirectoryEntries(s.dir.Len())

	if !entry.AllowRegistration(s.clock.Now()) {
		s.metrics.ObserveRegistration(metrics.ResultTooFrequent)
		return types.ResultNone, ErrTooFrequent
	}

	code := s.proto.UpdatePublicKey(ctx, req.ID, entry, req.Addr, req.UUID, req.PublicKey, ip.String())
	s.metrics.ObserveRegistration(code.String())
	return code, nil
}

// MarkOffline 将节点标记为离线
func (s *Service) MarkOffline(ctx context.Context, id string) {
	s.dir.MarkOffline(ctx, id)
}

// Lookup 查询节点记录
//
// 内存和节点库都没有时返回 directory.ErrNotFound。
func (s *Service) Lookup(ctx context.Context, id string) (types.PeerRecord, error) {
	entry, err := s.dir.Get(ctx, id)
	if err != nil {
		return types.PeerRecord{}, err
	}
	return entry.Snapshot(), nil
}

// SetStatus 直接写入节点状态列（遗留接口）
//
// 不加锁、不更新缓存、不做滥用检测。需要一致状态的调用方应使用
// Register / MarkOffline。
func (s *Service) SetStatus(ctx context.Context, id string, status int64) error {
	return s.store.SetStatus(ctx, id, status)
}

// GuardStats 返回来源地址的滥用检测状态
func (s *Service) GuardStats(addr netip.Addr) (abuseguard.AddressStats, bool) {
	return s.guard.Snapshot(addr)
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动后台清扫循环
func (s *Service) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	// 不使用传入的 ctx：Fx OnStart 的 ctx 在返回后会被取消
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	go s.sweepLoop(ctx, s.done)

	logger.Info("注册服务已启动", "sweepInterval", s.sweepInterval)
	return nil
}

// Stop 停止后台清扫循环
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.cancel()
	done := s.done
	s.started = false
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	logger.Info("注册服务已停止")
	return nil
}

func (s *Service) sweepLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := s.clock.Ticker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep 执行一次清扫并刷新指标
func (s *Service) sweep() int {
	evicted := s.guard.Sweep()
	s.metrics.SetTrackedAddresses(s.guard.Len())
	s.metrics.SetDirectoryEntries(s.dir.Len())
	return evicted
}
