// Package metrics 提供 hbbs 的 Prometheus 监控指标
//
// # 指标
//
//	hbbs_registrations_total{result}       公钥注册结果（OK / SERVER_ERROR / blocked / too_frequent）
//	hbbs_guard_rejections_total{reason}    滥用检测拒绝原因
//	hbbs_storage_errors_total{op}          存储网关错误
//	hbbs_directory_lookups_total{source}   目录查询命中来源（memory / storage / created / miss）
//	hbbs_directory_entries                 目录缓存条目数
//	hbbs_guard_tracked_addresses           滥用检测跟踪的地址数
//	hbbs_registration_rate                 最近 60 秒的平均注册速率（次/秒）
//
// # 使用示例
//
//	c := metrics.NewCollector(prometheus.NewRegistry())
//	c.ObserveRegistration("OK")
//	store = metrics.InstrumentStore(store, c)
//
// Collector 的所有方法对 nil 接收者安全，未启用指标时组件可以直接传 nil。
package metrics
