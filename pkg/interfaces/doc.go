// Package interfaces 定义 hbbs 的公共接口
//
// 一个接口文件对应一个实现目录：
//   - peerstore.go - 节点持久化网关（internal/core/peerdb）
//   - storage.go   - 键值存储引擎（internal/core/storage/engine/badger）
package interfaces
