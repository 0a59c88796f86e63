// Package registration 实现公钥注册协议
//
// UpdatePublicKey 以条目的 guid 是否为空作为插入或更新的唯一依据，
// 不额外查询 ID 是否存在：
//
//	guid 为空  -> InsertPeer，成功后回写 guid
//	guid 非空  -> UpdatePeer
//
// 整个流程在条目的序列锁内执行，同一 ID 的并发注册按某个全序生效，
// 只有一个流程执行插入。存储失败返回 SERVER_ERROR 并记录日志，不重试。
package registration
