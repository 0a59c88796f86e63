package engine

import (
	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
)

// InternalEngine 内部扩展接口
//
// 扩展公共 Engine 接口，提供迭代器、事务和生命周期操作。
type InternalEngine interface {
	interfaces.Engine

	// NewPrefixIterator 创建前缀迭代器
	//
	// 仅遍历具有指定前缀的键。调用者负责在使用后调用 Close()。
	NewPrefixIterator(prefix []byte) Iterator

	// NewTransaction 创建新的事务
	//
	// 参数:
	//   - writable: true 表示读写事务，false 表示只读事务
	//
	// 调用者负责在使用后调用 Commit() 或 Discard()。
	NewTransaction(writable bool) Transaction

	// Start 启动后台任务（值日志 GC）
	Start() error

	// Sync 同步数据到磁盘
	Sync() error
}

// Iterator 迭代器接口
//
// 迭代器保持创建时的快照视图，不受后续写入影响。
//
// 使用模式:
//
//	iter := eng.NewPrefixIterator([]byte("p/"))
//	defer iter.Close()
//
//	for iter.First(); iter.Valid(); iter.Next() {
//	    key, value := iter.Key(), iter.Value()
//	}
//
//	if err := iter.Error(); err != nil {
//	    return err
//	}
type Iterator interface {
	// First 移动到第一个键值对
	First() bool

	// Next 移动到下一个键值对
	Next() bool

	// Valid 检查迭代器是否指向有效位置
	Valid() bool

	// Key 返回当前键，仅在下次迭代器操作前有效
	Key() []byte

	// Value 返回当前值，仅在下次迭代器操作前有效
	Value() []byte

	// Close 关闭迭代器
	Close()

	// Error 返回迭代过程中的错误
	Error() error
}

// Transaction 事务接口
//
// 使用模式:
//
//	txn := eng.NewTransaction(true)
//	defer txn.Discard()
//
//	if err := txn.Set(key, value); err != nil {
//	    return err
//	}
//	return txn.Commit()
type Transaction interface {
	// Get 在事务中读取值，键不存在时返回 ErrNotFound
	Get(key []byte) ([]byte, error)

	// Set 在事务中设置值（仅读写事务）
	Set(key, value []byte) error

	// Delete 在事务中删除键（仅读写事务）
	Delete(key []byte) error

	// Commit 提交事务，写冲突时返回 ErrTransactionConflict
	Commit() error

	// Discard 丢弃事务，多次调用是安全的
	Discard()
}
