// Package peerdb 实现节点持久化网关 interfaces.PeerStore
//
// 提供两种实现：
//   - SQLStore: 基于 gorm，默认 sqlite（github.com/glebarez/sqlite），
//     postgres:// 或 postgresql:// 连接串使用 PostgreSQL
//   - KVStore: 基于 BadgerDB 键值存储（badger://<dir>）
//
// Open 根据 DB_URL 选择实现。所有存储故障均包装为 *StorageError，
// 记录不存在时为 ErrNotFound。
//
// # 表结构
//
//	peer(guid blob primary key, id unique, uuid, pk, created_at,
//	     user, status, note, info)
//
// status 取值：0 在线，1 离线，NULL 未知。
package peerdb
