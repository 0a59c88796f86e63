package abuseguard

import (
	"net/netip"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ffrrbb/rustdesk-server/pkg/lib/log"
	"github.com/ffrrbb/rustdesk-server/pkg/types"
)

var logger = log.Logger("core/abuseguard")

// ============================================================================
//                              地址状态
// ============================================================================

// addressState 单个来源地址的状态
type addressState struct {
	// 封禁轨道
	blocked      bool
	blockedAt    time.Time
	attempts     int
	attemptStart time.Time

	// 近期 ID（一天窗口）
	recentIDs   map[string]struct{}
	recentStart time.Time

	// 轮换轨道
	idCounts   map[string]int
	churnStart time.Time

	lastSeen time.Time
}

func newAddressState(now time.Time) *addressState {
	return &addressState{
		attemptStart: now,
		recentIDs:    make(map[string]struct{}),
		recentStart:  now,
		idCounts:     make(map[string]int),
		churnStart:   now,
		lastSeen:     now,
	}
}

func (s *addressState) block(now time.Time) {
	s.blocked = true
	s.blockedAt = now
}

// unblock 解除封禁并清空尝试计数和轮换计数
func (s *addressState) unblock(now time.Time) {
	s.blocked = false
	s.blockedAt = time.Time{}
	s.attempts = 0
	s.attemptStart = now
	s.idCounts = make(map[string]int)
	s.churnStart = now
}

func (s *addressState) resetRecent(now time.Time, window time.Duration) {
	if now.Sub(s.recentStart) > window {
		s.recentIDs = make(map[string]struct{})
		s.recentStart = now
	}
}

// AddressStats 地址状态快照
type AddressStats struct {
	Blocked     bool
	BlockedAt   time.Time
	Attempts    int
	DistinctIDs int
	RecentIDs   int
	LastSeen    time.Time
}

// ============================================================================
//                              Guard
// ============================================================================

// Option Guard 选项
type Option func(*Guard)

// WithClock 设置时钟（测试使用）
func WithClock(clk clock.Clock) Option {
	return func(g *Guard) {
		g.clock = clk
	}
}

// Guard 来源地址滥用检测
//
// 所有方法并发安全，地址状态由 Guard 自己的锁保护，独立于目录。
type Guard struct {
	cfg   Config
	clock clock.Clock

	mu    sync.Mutex
	addrs *lru.Cache[netip.Addr, *addressState]

	// held 被 LRU 淘汰时仍在封禁期的地址，由 Sweep 清理或放回 addrs
	held map[netip.Addr]*addressState
}

// New 创建滥用检测
func New(cfg Config, opts ...Option) (*Guard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Guard{
		cfg:   cfg,
		clock: clock.New(),
		held:  make(map[netip.Addr]*addressState),
	}
	for _, opt := range opts {
		opt(g)
	}

	addrs, err := lru.NewWithEvict[netip.Addr, *addressState](cfg.MaxAddresses, g.onEvict)
	if err != nil {
		return nil, err
	}
	g.addrs = addrs
	return g, nil
}

// onEvict LRU 淘汰回调，在 g.mu 内执行
//
// 封禁期内的地址转入 held，封禁不会因地址表满而失效。
func (g *Guard) onEvict(addr netip.Addr, s *addressState) {
	if g.stillBlocked(s, g.clock.Now()) {
		g.held[addr] = s
	}
}

func (g *Guard) stillBlocked(s *addressState, now time.Time) bool {
	return s.blocked && now.Sub(s.blockedAt) <= g.cfg.BlockDuration
}

// lookup 查询地址状态，不影响 LRU 顺序
func (g *Guard) lookup(addr netip.Addr) (*addressState, bool) {
	if s, ok := g.addrs.Peek(addr); ok {
		return s, true
	}
	s, ok := g.held[addr]
	return s, ok
}

// state 获取或创建地址状态，调用方持有 g.mu
func (g *Guard) state(addr netip.Addr, now time.Time) *addressState {
	if s, ok := g.addrs.Get(addr); ok {
		return s
	}
	if s, ok := g.held[addr]; ok {
		return s
	}
	s := newAddressState(now)
	g.addrs.Add(addr, s)
	return s
}

// Evaluate 判断来自 addr 的 id 注册是否放行
//
// 顺序：封禁检查、尝试计数、近期 ID 上限、轮换计数。
func (g *Guard) Evaluate(addr netip.Addr, id string) types.Verdict {
	addr = addr.Unmap()
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.state(addr, now)

	if s.blocked {
		if now.Sub(s.blockedAt) <= g.cfg.BlockDuration {
			return types.Reject(types.ReasonBlocked)
		}
		s.unblock(now)
		logger.Debug("地址封禁已解除", "addr", addr)
	}

	if now.Sub(s.attemptStart) > g.cfg.ChurnWindow {
		s.attempts = 0
		s.attemptStart = now
	}
	s.attempts++
	if g.cfg.MaxAttempts > 0 && s.attempts > g.cfg.MaxAttempts {
		s.block(now)
		logger.Warn("注册尝试过多，封禁地址", "addr", addr, "attempts", s.attempts)
		return types.Reject(types.ReasonTooManyAttempts)
	}

	s.resetRecent(now, g.cfg.RecentWindow)
	if g.cfg.MaxRecentIDs > 0 {
		if _, known := s.recentIDs[id]; !known && len(s.recentIDs) >= g.cfg.MaxRecentIDs {
			return types.Reject(types.ReasonTooManyIdentities)
		}
	}

	if now.Sub(s.churnStart) > g.cfg.ChurnWindow {
		s.idCounts = make(map[string]int)
		s.churnStart = now
	}
	s.idCounts[id]++
	if g.cfg.MaxDistinctIDs > 0 && len(s.idCounts) > g.cfg.MaxDistinctIDs {
		s.block(now)
		logger.Warn("地址 ID 轮换过多，封禁地址", "addr", addr, "ids", len(s.idCounts))
		return types.Reject(types.ReasonChurn)
	}

	return types.Allow()
}

// Record 记录一次来自 addr 的 id 注册，无论结果如何都应调用
//
// 近期 ID 集合达到 MaxRecentIDs 后不再增长。
func (g *Guard) Record(addr netip.Addr, id string) {
	addr = addr.Unmap()
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.state(addr, now)
	s.resetRecent(now, g.cfg.RecentWindow)
	if g.cfg.MaxRecentIDs <= 0 || len(s.recentIDs) < g.cfg.MaxRecentIDs {
		s.recentIDs[id] = struct{}{}
	}
	s.lastSeen = now
}

// Snapshot 返回地址状态快照
func (g *Guard) Snapshot(addr netip.Addr) (AddressStats, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.lookup(addr.Unmap())
	if !ok {
		return AddressStats{}, false
	}
	return AddressStats{
		Blocked:     s.blocked,
		BlockedAt:   s.blockedAt,
		Attempts:    s.attempts,
		DistinctIDs: len(s.idCounts),
		RecentIDs:   len(s.recentIDs),
		LastSeen:    s.lastSeen,
	}, true
}

// Len 返回跟踪的地址数量
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addrs.Len() + len(g.held)
}

// Sweep 清除空闲超过 RecentWindow 的地址，压缩过期的轮换计数
//
// 仍处于封禁期的地址不会被清除。返回清除的地址数。
func (g *Guard) Sweep() int {
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	evicted := 0
	for _, addr := range g.addrs.Keys() {
		s, ok := g.addrs.Peek(addr)
		if !ok {
			continue
		}
		if !g.stillBlocked(s, now) && now.Sub(s.lastSeen) > g.cfg.RecentWindow {
			g.addrs.Remove(addr)
			evicted++
			continue
		}
		if len(s.idCounts) > 0 && now.Sub(s.churnStart) > g.cfg.ExtendedChurnWindow {
			s.idCounts = make(map[string]int)
			s.churnStart = now
		}
	}

	// 封禁结束的溢出地址放回地址表，地址表已满时丢弃
	for addr, s := range g.held {
		if g.stillBlocked(s, now) {
			continue
		}
		delete(g.held, addr)
		if now.Sub(s.lastSeen) > g.cfg.RecentWindow || g.addrs.Len() >= g.cfg.MaxAddresses {
			evicted++
			continue
		}
		g.addrs.Add(addr, s)
	}

	if evicted > 0 {
		logger.Debug("清除空闲地址", "evicted", evicted, "remaining", g.addrs.Len()+len(g.held))
	}
	return evicted
}
