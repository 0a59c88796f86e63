package hbbs

import (
	"errors"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/ffrrbb/rustdesk-server/config"
	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 统一配置（未设置时使用 config.NewConfig()）
	config *config.Config

	// 节点库 URL，覆盖 config.Storage.DBURL
	dbURL *string

	// 外部节点库，设置后不再按 URL 打开，也不由 Server 关闭
	store interfaces.PeerStore

	// 时钟（测试使用）
	clock clock.Clock

	// 指标注册表
	registry *prometheus.Registry

	// 用户自定义 Fx 选项
	fxOptions []fx.Option
}

// newOptions 创建默认选项
func newOptions() *options {
	return &options{}
}

// toInternalConfig 转换为内部配置
func (o *options) toInternalConfig() *config.Config {
	cfg := o.config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if o.dbURL != nil {
		cfg.Storage.DBURL = *o.dbURL
	}
	return cfg
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置选项
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用完整配置
//
// 配置在 New 中被校验。后续选项（如 WithDBURL）在其基础上覆盖。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.config = cfg
		return nil
	}
}

// WithDBURL 设置节点库 URL
//
// 支持 sqlite 文件路径、sqlite://、file:、postgres://、postgresql://
// 和 badger://<目录>。空字符串表示平台默认路径。
func WithDBURL(url string) Option {
	return func(o *options) error {
		o.dbURL = &url
		return nil
	}
}

// WithStore 使用外部节点库
//
// Server 不负责关闭外部节点库。
func WithStore(store interfaces.PeerStore) Option {
	return func(o *options) error {
		if store == nil {
			return errors.New("store is nil")
		}
		o.store = store
		return nil
	}
}

// WithClock 设置时钟
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		o.clock = clk
		return nil
	}
}

// WithRegistry 设置 Prometheus 注册表
//
// 未设置时 Server 创建独立的注册表，可通过 Server.Gatherer 获取。
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) error {
		o.registry = reg
		return nil
	}
}

// WithFxOptions 追加 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOptions = append(o.fxOptions, opts...)
		return nil
	}
}
