// Package mocks 提供统一的测试 Mock 实现
//
// # 存储 Mock
//
//   - MockPeerStore: 模拟 interfaces.PeerStore，内存实现，支持故障注入
//
// # 设计原则
//
// 1. 函数式注入: 通过 XxxFunc 字段注入自定义行为
// 2. 调用记录: 记录每个方法的调用次数和参数，便于验证写入次数
// 3. 故障注入: FailInsert/FailUpdate/FailGet 让对应调用返回错误
//
// # 使用示例
//
//	store := mocks.NewMockPeerStore()
//	store.FailInsert(errors.New("disk full"))
//
//	code := proto.UpdatePublicKey(ctx, "peer-A", entry, addr, uuid, pk, ip)
//	if code != types.ResultServerError {
//	    t.Fatal("expected SERVER_ERROR")
//	}
//	if store.InsertCalls() != 1 {
//	    t.Fatal("expected one insert")
//	}
package mocks
