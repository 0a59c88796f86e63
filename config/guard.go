package config

import (
	"errors"
	"time"
)

// GuardConfig 来源地址滥用检测配置
//
// 时间窗口：
//   - ChurnWindow: 尝试计数和 ID 计数的窗口
//   - ExtendedChurnWindow: 超过此时长的 ID 计数在清扫时被压缩
//   - BlockDuration: 封禁时长（边界时刻仍处于封禁）
//   - RecentWindow: 近期不同 ID 集合的窗口，空闲超过此时长的地址被清除
//
// 阈值为 0 表示关闭对应检查。
type GuardConfig struct {
	ChurnWindow         Duration `json:"churn_window"`
	ExtendedChurnWindow Duration `json:"extended_churn_window"`
	BlockDuration       Duration `json:"block_duration"`
	RecentWindow        Duration `json:"recent_window"`

	// MaxAttempts 每个窗口内的注册尝试上限
	MaxAttempts int `json:"max_attempts"`

	// MaxDistinctIDs 每个窗口内的不同 ID 上限
	MaxDistinctIDs int `json:"max_distinct_ids"`

	// MaxRecentIDs 一天内的不同 ID 上限，超过后拒绝新 ID 但不封禁
	MaxRecentIDs int `json:"max_recent_ids"`

	// MaxAddresses 跟踪的地址数量上限
	MaxAddresses int `json:"max_addresses"`

	// SweepInterval 后台清扫间隔
	SweepInterval Duration `json:"sweep_interval"`
}

// DefaultGuardConfig 返回默认的滥用检测配置
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		ChurnWindow:         Duration(180 * time.Second),
		ExtendedChurnWindow: Duration(360 * time.Second),
		BlockDuration:       Duration(60 * time.Second),
		RecentWindow:        Duration(86400 * time.Second),
		MaxAttempts:         30,
		MaxDistinctIDs:      10,
		MaxRecentIDs:        300,
		MaxAddresses:        65536,
		SweepInterval:       Duration(60 * time.Second),
	}
}

// Validate 验证滥用检测配置的有效性
func (c *GuardConfig) Validate() error {
	if c.ChurnWindow <= 0 || c.BlockDuration <= 0 || c.RecentWindow <= 0 {
		return errors.New("guard: windows must be positive")
	}
	if c.ExtendedChurnWindow < c.ChurnWindow {
		return errors.New("guard: extended_churn_window must not be shorter than churn_window")
	}
	if c.MaxAttempts < 0 || c.MaxDistinctIDs < 0 || c.MaxRecentIDs < 0 {
		return errors.New("guard: thresholds cannot be negative")
	}
	if c.MaxAddresses <= 0 {
		return errors.New("guard: max_addresses must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("guard: sweep_interval must be positive")
	}
	return nil
}
