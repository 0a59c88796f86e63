package directory

import (
	"go.uber.org/fx"

	"github.com/ffrrbb/rustdesk-server/config"
	"github.com/ffrrbb/rustdesk-server/internal/core/metrics"
	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
)

// Params Directory 依赖参数
type Params struct {
	fx.In

	Store      interfaces.PeerStore
	UnifiedCfg *config.Config      `optional:"true"`
	Metrics    *metrics.Collector `optional:"true"`
}

// Module 返回 Directory Fx 模块
func Module() fx.Option {
	return fx.Module("directory",
		fx.Provide(NewFromParams),
	)
}

// NewFromParams 从依赖参数创建节点目录
func NewFromParams(p Params) *Directory {
	return New(p.Store, ConfigFromUnified(p.UnifiedCfg), WithMetrics(p.Metrics))
}
