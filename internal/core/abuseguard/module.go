package abuseguard

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/ffrrbb/rustdesk-server/config"
)

// Params AbuseGuard 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
}

// Module 返回 AbuseGuard Fx 模块
func Module() fx.Option {
	return fx.Module("abuseguard",
		fx.Provide(NewFromParams),
	)
}

// NewFromParams 从依赖参数创建滥用检测
func NewFromParams(p Params) (*Guard, error) {
	var opts []Option
	if p.Clock != nil {
		opts = append(opts, WithClock(p.Clock))
	}
	return New(ConfigFromUnified(p.UnifiedCfg), opts...)
}
