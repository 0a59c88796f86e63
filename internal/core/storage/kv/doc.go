// Package kv 提供带前缀隔离的 KV 存储抽象层
//
// Store 在底层存储引擎之上提供命名空间隔离。节点库使用以下前缀：
//   - p/ - 节点记录，键为节点 ID
//   - g/ - guid 索引，值为节点 ID
//
// # 使用示例
//
//	root := kv.New(eng, nil)
//	err := root.Update(func(txn *kv.Transaction) error {
//	    return txn.Sub([]byte("p/")).SetJSON([]byte("peer-A"), record)
//	})
//
//	n, err := root.SubStore([]byte("p/")).Count(nil)
package kv
