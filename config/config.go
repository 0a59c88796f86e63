// Package config 提供 hbbs 统一配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义。
// 支持从 JSON 加载配置，并允许环境变量覆盖部分字段。
//
// 使用示例：
//
//	cfg, err := config.LoadFile("hbbs.json")
//	if err != nil {
//	    return err
//	}
//	cfg.ApplyEnv()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config

// Config 是 hbbs 的完整配置结构
//
// 配置按照功能模块组织：
//   - Storage: 节点库连接
//   - Directory: 节点目录与注册节流
//   - Guard: 来源地址滥用检测
//   - Metrics: Prometheus 指标
//   - Log: 日志输出
type Config struct {
	// Storage 节点库配置
	Storage StorageConfig `json:"storage"`

	// Directory 节点目录配置
	Directory DirectoryConfig `json:"directory"`

	// Guard 滥用检测配置
	Guard GuardConfig `json:"guard"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Storage:   DefaultStorageConfig(),
		Directory: DefaultDirectoryConfig(),
		Guard:     DefaultGuardConfig(),
		Metrics:   DefaultMetricsConfig(),
		Log:       DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置，返回遇到的第一个错误。
func (c *Config) Validate() error {
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Directory.Validate(); err != nil {
		return err
	}
	if err := c.Guard.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
