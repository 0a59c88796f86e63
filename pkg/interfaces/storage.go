// Package interfaces - Storage 存储引擎接口
//
// 本文件定义 hbbs 键值存储引擎的公共接口。
// peerdb 的 badger 后端建立在此接口之上。
//
// # 设计原则
//
// 1. 最小化接口：仅暴露必要的基础操作
// 2. 可替换性：用户可以实现自定义存储后端
// 3. 无状态方法：所有方法都是幂等的
package interfaces

// Engine 存储引擎基础接口
//
// 提供键值读取和关闭，写入通过事务完成（见 engine.InternalEngine）。
//
// 线程安全：实现必须保证所有方法的线程安全性。
//
// 示例:
//
//	engine, err := badger.New(engine.DefaultConfig("/data/peers"))
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	value, err := engine.Get([]byte("p/peer-A"))
//	if err != nil {
//	    return err
//	}
type Engine interface {
	// Get 获取指定键的值
	//
	// 参数:
	//   - key: 键（不能为空）
	//
	// 返回:
	//   - []byte: 值的副本（调用者可以安全修改）
	//   - error: ErrNotFound 如果键不存在，其他错误表示存储故障
	Get(key []byte) ([]byte, error)

	// Close 关闭存储引擎
	//
	// 关闭后不能再进行任何操作。
	// 多次调用 Close 是安全的。
	//
	// 返回:
	//   - error: 关闭过程中的错误
	Close() error
}
