package config

import (
	"fmt"
	"time"
)

// DirectoryConfig 节点目录配置
//
// RegBurst/RegInterval 约束单个 ID 的公钥注册频率：
// 允许突发 RegBurst 次，此后每 RegInterval 恢复一次。
type DirectoryConfig struct {
	// RegBurst 注册突发上限，0 表示不限频
	RegBurst int `json:"reg_burst"`

	// RegInterval 令牌恢复间隔
	RegInterval Duration `json:"reg_interval"`
}

// DefaultDirectoryConfig 返回默认的目录配置
func DefaultDirectoryConfig() DirectoryConfig {
	return DirectoryConfig{
		RegBurst:    3,
		RegInterval: Duration(2 * time.Second),
	}
}

// Validate 验证目录配置的有效性
func (c *DirectoryConfig) Validate() error {
	if c.RegBurst < 0 {
		return fmt.Errorf("directory: reg_burst cannot be negative")
	}
	if c.RegBurst > 0 && c.RegInterval <= 0 {
		return fmt.Errorf("directory: reg_interval must be positive when reg_burst is set")
	}
	return nil
}
