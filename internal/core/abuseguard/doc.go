// Package abuseguard 实现按来源地址的注册滥用检测
//
// 每个来源 IP 维护两条独立的轨道：
//
// 封禁轨道：ChurnWindow 内的注册尝试超过 MaxAttempts 时进入封禁，
// 封禁期间（含 BlockDuration 边界时刻）拒绝任何 ID 的注册，
// 不访问目录和节点库。封禁严格超过 BlockDuration 后解除并清空计数。
//
// 轮换轨道：ChurnWindow 内按 ID 计数。同一地址短时间内出现
// 超过 MaxDistinctIDs 个不同 ID 时进入封禁；同一 ID 从不同地址注册
// 视为正常漫游。
//
// 另有一天窗口（RecentWindow）的近期 ID 集合，超过 MaxRecentIDs 后
// 拒绝新的 ID，已知 ID 不受影响，也不触发封禁。
//
// 所有窗口单调重置：now - start 超过窗口长度时清空并把 start 设为 now。
// 跟踪的地址数量由 LRU 限制在 MaxAddresses 以内，Sweep 清除空闲地址。
package abuseguard
