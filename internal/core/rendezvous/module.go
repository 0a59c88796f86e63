package rendezvous

import (
	"go.uber.org/fx"

	"github.com/ffrrbb/rustdesk-server/config"
	"github.com/ffrrbb/rustdesk-server/internal/core/abuseguard"
	"github.com/ffrrbb/rustdesk-server/internal/core/directory"
	"github.com/ffrrbb/rustdesk-server/internal/core/metrics"
	"github.com/ffrrbb/rustdesk-server/internal/core/registration"
	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
)

// Params Rendezvous 依赖参数
type Params struct {
	fx.In

	Store      interfaces.PeerStore
	Directory  *directory.Directory
	Protocol   *registration.Protocol
	Guard      *abuseguard.Guard
	UnifiedCfg *config.Config      `optional:"true"`
	Metrics    *metrics.Collector `optional:"true"`
}

// Module 返回 Rendezvous Fx 模块
//
// 生命周期:
//   - OnStart: 启动清扫循环
//   - OnStop: 停止清扫循环
func Module() fx.Option {
	return fx.Module("rendezvous",
		fx.Provide(NewFromParams),
		fx.Invoke(registerLifecycle),
	)
}

// NewFromParams 从依赖参数创建服务
func NewFromParams(p Params) *Service {
	opts := []Option{WithMetrics(p.Metrics)}
	if p.UnifiedCfg != nil {
		opts = append(opts, WithSweepInterval(p.UnifiedCfg.Guard.SweepInterval.Duration()))
	}
	return New(p.Store, p.Directory, p.Protocol, p.Guard, opts...)
}

func registerLifecycle(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.Stop,
	})
}
