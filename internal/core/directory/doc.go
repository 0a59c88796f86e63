// Package directory 实现节点目录：持久化节点库之上的写穿缓存
//
// 目录以节点 ID 为键缓存 *Entry。缓存未命中时查询节点库并填充缓存；
// 同一 ID 在任何时刻只有一个 *Entry 对调用方可见。
//
// # 锁
//
//   - 目录 map: 读多写少，查询持读锁，插入在写锁下检查后插入
//   - Entry 字段锁: 保护记录字段
//   - Entry 序列锁: 覆盖一次完整的插入或更新（以及下线）流程
//
// 任何操作都不会同时持有两个 Entry 的锁。条目不会被淘汰。
package directory
