package config

import (
	"errors"
)

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	// Enable 是否启用指标 HTTP 服务
	Enable bool `json:"enable"`

	// Listen 指标与健康检查的监听地址
	Listen string `json:"listen"`
}

// DefaultMetricsConfig 返回默认的指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enable: true,
		Listen: "127.0.0.1:21119",
	}
}

// Validate 验证指标配置的有效性
func (c *MetricsConfig) Validate() error {
	if c.Enable && c.Listen == "" {
		return errors.New("metrics: listen address required when enabled")
	}
	return nil
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别：debug/info/warn/error
	Level string `json:"level"`

	// Format 输出格式：text/json
	Format string `json:"format"`
}

// DefaultLogConfig 返回默认的日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate 验证日志配置的有效性
func (c *LogConfig) Validate() error {
	switch c.Format {
	case "text", "json":
		return nil
	default:
		return errors.New("log: format must be text or json")
	}
}
