// Package rendezvous 串联注册请求的处理流程
//
//	Register(req)
//	  -> abuseguard.Evaluate(ip, id)      拒绝时返回 *GuardError，不访问目录和节点库
//	  -> directory.GetOrCreate(id)        节点库故障时返回 SERVER_ERROR
//	  -> Entry.AllowRegistration(now)     过于频繁时返回 ErrTooFrequent
//	  -> registration.UpdatePublicKey(...)
//	  -> abuseguard.Record(ip, id)        无论结果如何都执行
//
// Service 同时运行一个后台清扫循环，定期调用 abuseguard.Sweep 并刷新指标。
package rendezvous
