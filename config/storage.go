package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// DefaultDBFile 未配置连接串时使用的 sqlite 文件名
const DefaultDBFile = "db_v2.sqlite3"

// StorageConfig 节点库配置
//
// DBURL 取值：
//   - 空: 平台默认的 sqlite 文件
//   - 文件路径或 sqlite 连接串: sqlite
//   - postgres:// 或 postgresql://: PostgreSQL
//   - badger://<dir>: BadgerDB 键值存储
type StorageConfig struct {
	// DBURL 连接串，可由环境变量 DB_URL 覆盖
	DBURL string `json:"db_url,omitempty"`

	// Timeout 单次存储调用的超时，0 表示不限
	Timeout Duration `json:"timeout"`
}

// DefaultStorageConfig 返回默认的存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Timeout: Duration(5 * time.Second),
	}
}

// Validate 验证存储配置的有效性
func (c *StorageConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("storage: timeout cannot be negative")
	}
	return nil
}

// ResolvedURL 返回实际使用的连接串
func (c *StorageConfig) ResolvedURL() string {
	if c.DBURL != "" {
		return c.DBURL
	}
	return DefaultDBURL()
}

// DefaultDBURL 返回平台默认的数据库路径
//
// Windows 上放在可执行文件旁边，其余平台使用当前目录。
func DefaultDBURL() string {
	if runtime.GOOS == "windows" {
		if exe, err := os.Executable(); err == nil {
			return filepath.Join(filepath.Dir(exe), DefaultDBFile)
		}
	}
	return "./" + DefaultDBFile
}
