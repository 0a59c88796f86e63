// Package types 定义 hbbs 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - peer.go    - PeerRecord, PeerInfo
//   - result.go  - ResultCode, Verdict, RejectReason
package types
