package hbbs

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/ffrrbb/rustdesk-server/config"
	"github.com/ffrrbb/rustdesk-server/internal/core/abuseguard"
	"github.com/ffrrbb/rustdesk-server/internal/core/directory"
	"github.com/ffrrbb/rustdesk-server/internal/core/metrics"
	"github.com/ffrrbb/rustdesk-server/internal/core/peerdb"
	"github.com/ffrrbb/rustdesk-server/internal/core/registration"
	"github.com/ffrrbb/rustdesk-server/internal/core/rendezvous"
	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 节点库: peerdb（或外部节点库）
//  2. 指标: metrics，并在根层包装节点库
//  3. 核心: directory → registration → abuseguard → rendezvous
//  4. 用户扩展
func buildFxApp(o *options, cfg *config.Config, s *Server) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(cfg),
		fx.Supply(o.registry),
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 节点库
	// ════════════════════════════════════════════════════════════════════════
	if o.store != nil {
		store := o.store
		modules = append(modules, fx.Provide(func() interfaces.PeerStore { return store }))
	} else {
		modules = append(modules, peerdb.Module())
	}

	if o.clock != nil {
		clk := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 指标（Decorate 必须在根层）
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		metrics.Module,
		metrics.DecorateStore(),
	)

	// ════════════════════════════════════════════════════════════════════════
	// 4. 核心模块
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		directory.Module(),
		registration.Module(),
		abuseguard.Module(),
		rendezvous.Module(),
	)

	// ════════════════════════════════════════════════════════════════════════
	// 5. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(o.fxOptions) > 0 {
		modules = append(modules, o.fxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 6. Server 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		fx.Populate(&s.svc, &s.dir),
		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return app, nil
}
