package directory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/ffrrbb/rustdesk-server/config"
	"github.com/ffrrbb/rustdesk-server/internal/core/metrics"
	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
	"github.com/ffrrbb/rustdesk-server/pkg/lib/log"
	"github.com/ffrrbb/rustdesk-server/pkg/types"
)

var logger = log.Logger("core/directory")

// Config 目录配置
type Config struct {
	// RegBurst 单个 ID 的注册突发上限，0 表示不限
	RegBurst int

	// RegInterval 令牌恢复间隔
	RegInterval time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	c := config.DefaultDirectoryConfig()
	return Config{
		RegBurst:    c.RegBurst,
		RegInterval: c.RegInterval.Duration(),
	}
}

// ConfigFromUnified 从统一配置创建目录配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		RegBurst:    cfg.Directory.RegBurst,
		RegInterval: cfg.Directory.RegInterval.Duration(),
	}
}

// Option 目录选项
type Option func(*Directory)

// WithMetrics 设置指标集合
func WithMetrics(c *metrics.Collector) Option {
	return func(d *Directory) {
		d.metrics = c
	}
}

// Directory 节点目录
type Directory struct {
	store   interfaces.PeerStore
	cfg     Config
	metrics *metrics.Collector

	mu      sync.RWMutex
	entries map[string]*Entry

	// loads 合并同一 ID 的并发节点库查询
	loads singleflight.Group
}

// New 创建节点目录
func New(store interfaces.PeerStore, cfg Config, opts ...Option) *Directory {
	d := &Directory{
		store:   store,
		cfg:     cfg,
		entries: make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Directory) newLimiter() *rate.Limiter {
	if d.cfg.RegBurst <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(d.cfg.RegInterval), d.cfg.RegBurst)
}

// insert 检查后插入，已存在时返回已有条目
func (d *Directory) insert(e *Entry) *Entry {
	d.mu.Lock()
	if existing, ok := d.entries[e.id]; ok {
		d.mu.Unlock()
		return existing
	}
	d.entries[e.id] = e
	n := len(d.entries)
	d.mu.Unlock()

	d.metrics.SetDirectoryEntries(n)
	return e
}

// lookup 先查内存再查节点库，节点库命中时填充缓存
func (d *Directory) lookup(ctx context.Context, id string) (*Entry, error) {
	if e, ok := d.GetInMemory(id); ok {
		d.metrics.ObserveLookup(metrics.SourceMemory)
		return e, nil
	}

	v, err, _ := d.loads.Do(id, func() (any, error) {
		// 前一次加载可能已经完成
		if e, ok := d.GetInMemory(id); ok {
			return e, nil
		}
		// 共享加载不随首个调用方取消，超时由节点库自身限定
		p, ok, err := d.store.GetPeer(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return (*Entry)(nil), nil
		}
		logger.Debug("从节点库加载节点", "id", id)
		return d.insert(newEntry(id, recordFromStored(p), d.newLimiter())), nil
	})
	if err != nil {
		logger.Warn("查询节点库失败", "id", id, "error", err)
		return nil, fmt.Errorf("load peer %s: %w", id, err)
	}

	e := v.(*Entry)
	if e == nil {
		d.metrics.ObserveLookup(metrics.SourceMiss)
		return nil, nil
	}
	d.metrics.ObserveLookup(metrics.SourceStorage)
	return e, nil
}

// GetOrCreate 返回 ID 对应的条目
//
// 内存和节点库都没有时创建并缓存一个未持久化的默认条目，不写节点库。
// 节点库故障时返回错误，不创建默认条目。
func (d *Directory) GetOrCreate(ctx context.Context, id string) (*Entry, error) {
	e, err := d.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if e != nil {
		return e, nil
	}

	fresh := newEntry(id, defaultRecord(id), d.newLimiter())
	if e = d.insert(fresh); e == fresh {
		d.metrics.ObserveLookup(metrics.SourceCreated)
	}
	return e, nil
}

// Get 返回 ID 对应的条目，不存在时返回 ErrNotFound
func (d *Directory) Get(ctx context.Context, id string) (*Entry, error) {
	e, err := d.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

// GetInMemory 只查询缓存
func (d *Directory) GetInMemory(id string) (*Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[id]
	return e, ok
}

// IsInMemory ID 是否在缓存中
func (d *Directory) IsInMemory(id string) bool {
	_, ok := d.GetInMemory(id)
	return ok
}

// Len 返回缓存条目数
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// MarkOffline 将节点标记为离线并写穿到节点库
//
// 节点不存在时什么都不做。写入失败只记录日志。
// 从未持久化的条目不写节点库。每次调用至多一次写入。
func (d *Directory) MarkOffline(ctx context.Context, id string) {
	e, err := d.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("标记离线时查询节点失败", "id", id, "error", err)
		}
		return
	}

	release := e.Acquire()
	defer release()

	var (
		guid, pk []byte
		info     string
	)
	e.Update(func(rec *types.PeerRecord) {
		rec.Connected = false
		guid = bytes.Clone(rec.Guid)
		pk = bytes.Clone(rec.PublicKey)
		info = rec.Info.Encode()
	})
	if len(guid) == 0 {
		return
	}

	offline := false
	if err := d.store.UpdatePeer(ctx, guid, id, pk, info, &offline); err != nil {
		logger.Warn("写入离线状态失败", "id", id, "error", err)
		return
	}
	logger.Debug("节点已离线", "id", id)
}
