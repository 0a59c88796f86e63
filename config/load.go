package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// 环境变量
const (
	EnvDBURL         = "DB_URL"
	EnvLogLevel      = "HBBS_LOG_LEVEL"
	EnvLogFormat     = "HBBS_LOG_FORMAT"
	EnvMetricsListen = "HBBS_METRICS_LISTEN"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
// 示例 JSON:
//
//	{
//	  "storage": {"db_url": "postgres://hbbs@localhost/hbbs"},
//	  "guard": {"block_duration": "90s", "max_distinct_ids": 20}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return FromJSON(data)
}

// ToJSON 序列化配置
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// ApplyEnv 使用环境变量覆盖配置
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvDBURL); ok && v != "" {
		c.Storage.DBURL = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok && v != "" {
		c.Log.Format = v
	}
	if v, ok := os.LookupEnv(EnvMetricsListen); ok && v != "" {
		c.Metrics.Listen = v
	}
}
