// Package badger 基于 BadgerDB 的存储引擎实现
//
// 节点记录的 badger 后端（peerdb.KVStore）使用本引擎。
//
// # 使用示例
//
//	eng, err := badger.New(engine.DefaultConfig("/data/peers"))
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	txn := eng.NewTransaction(true)
//	defer txn.Discard()
//	if err := txn.Set([]byte("p/peer-A"), record); err != nil {
//	    return err
//	}
//	if err := txn.Commit(); err != nil {
//	    return err
//	}
//	value, err := eng.Get([]byte("p/peer-A"))
package badger
