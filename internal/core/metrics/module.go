package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/ffrrbb/rustdesk-server/config"
	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
)

// Params Metrics 依赖参数
type Params struct {
	fx.In

	Config   *config.Config
	Registry *prometheus.Registry `optional:"true"`
}

// Module 是 metrics 的 Fx 模块
//
// 提供 *Collector（未启用指标时为 nil）。
var Module = fx.Module("metrics",
	fx.Provide(NewCollectorFromParams),
)

// DecorateStore 在应用顶层用 Collector 包装 interfaces.PeerStore
//
// fx.Decorate 只作用于声明它的模块及其子模块，因此需要放在根选项中。
func DecorateStore() fx.Option {
	return fx.Decorate(func(store interfaces.PeerStore, c *Collector) interfaces.PeerStore {
		return InstrumentStore(store, c)
	})
}

// NewCollectorFromParams 从参数创建 Collector
func NewCollectorFromParams(p Params) *Collector {
	if !p.Config.Metrics.Enable {
		return nil
	}
	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	if p.Registry != nil {
		reg = p.Registry
	}
	return NewCollector(reg)
}
