package peerdb

import (
	"context"

	"go.uber.org/fx"

	"github.com/ffrrbb/rustdesk-server/config"
	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
)

// Params peerdb 依赖参数
type Params struct {
	fx.In

	Config *config.Config
}

// Module 返回 peerdb Fx 模块
//
// 提供:
//   - interfaces.PeerStore: 节点库
//
// 生命周期:
//   - OnStop: 关闭节点库
func Module() fx.Option {
	return fx.Module("peerdb",
		fx.Provide(ProvideStore),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideStore 根据统一配置打开节点库
func ProvideStore(p Params) (interfaces.PeerStore, error) {
	return Open(p.Config.Storage)
}

func registerLifecycle(lc fx.Lifecycle, store interfaces.PeerStore) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			logger.Info("正在关闭节点库")
			if err := store.Close(); err != nil {
				logger.Warn("关闭节点库失败", "error", err)
				return err
			}
			return nil
		},
	})
}
