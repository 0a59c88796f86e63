package abuseguard

import (
	"errors"
	"time"

	"github.com/ffrrbb/rustdesk-server/config"
)

// ErrInvalidConfig 配置无效
var ErrInvalidConfig = errors.New("abuseguard: invalid config")

// Config 滥用检测配置
type Config struct {
	ChurnWindow         time.Duration
	ExtendedChurnWindow time.Duration
	BlockDuration       time.Duration
	RecentWindow        time.Duration

	// 阈值，0 表示关闭
	MaxAttempts    int
	MaxDistinctIDs int
	MaxRecentIDs   int

	// MaxAddresses 地址表容量，封禁期内被淘汰的地址另行保留直到封禁结束
	MaxAddresses int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return ConfigFromUnified(nil)
}

// ConfigFromUnified 从统一配置创建滥用检测配置
func ConfigFromUnified(cfg *config.Config) Config {
	g := config.DefaultGuardConfig()
	if cfg != nil {
		g = cfg.Guard
	}
	return Config{
		ChurnWindow:         g.ChurnWindow.Duration(),
		ExtendedChurnWindow: g.ExtendedChurnWindow.Duration(),
		BlockDuration:       g.BlockDuration.Duration(),
		RecentWindow:        g.RecentWindow.Duration(),
		MaxAttempts:         g.MaxAttempts,
		MaxDistinctIDs:      g.MaxDistinctIDs,
		MaxRecentIDs:        g.MaxRecentIDs,
		MaxAddresses:        g.MaxAddresses,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.ChurnWindow <= 0 || c.BlockDuration <= 0 || c.RecentWindow <= 0 {
		return ErrInvalidConfig
	}
	if c.ExtendedChurnWindow < c.ChurnWindow {
		return ErrInvalidConfig
	}
	if c.MaxAttempts < 0 || c.MaxDistinctIDs < 0 || c.MaxRecentIDs < 0 || c.MaxAddresses <= 0 {
		return ErrInvalidConfig
	}
	return nil
}
