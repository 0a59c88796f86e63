package registration

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
)

// Params Registration 依赖参数
type Params struct {
	fx.In

	Store interfaces.PeerStore
	Clock clock.Clock `optional:"true"`
}

// Module 返回 Registration Fx 模块
func Module() fx.Option {
	return fx.Module("registration",
		fx.Provide(NewFromParams),
	)
}

// NewFromParams 从依赖参数创建注册协议
func NewFromParams(p Params) *Protocol {
	var opts []Option
	if p.Clock != nil {
		opts = append(opts, WithClock(p.Clock))
	}
	return New(p.Store, opts...)
}
