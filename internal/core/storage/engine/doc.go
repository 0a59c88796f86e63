// Package engine 定义存储引擎的内部接口
//
// 本包扩展 pkg/interfaces 中的公共 Engine 接口，
// 提供迭代器与事务，供 peerdb 的 badger 后端实现条件更新。
//
// # 线程安全
//
// 所有接口实现必须保证线程安全。事务在提交前相互隔离，
// 冲突在 Commit 时以 ErrTransactionConflict 返回。
package engine
