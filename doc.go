// Package hbbs 提供远程桌面 ID 服务器的节点身份注册核心
//
// 客户端以节点 ID 向服务器登记公钥和来源地址。hbbs 维护 ID 到最新
// 公钥、UUID、来源地址和在线状态的映射，持久化到节点库，并对来源地址
// 做滥用检测（ID 轮换、注册尝试次数、近期 ID 数量）。
//
// # 快速开始
//
//	srv, err := hbbs.New(
//	    hbbs.WithDBURL("./db_v2.sqlite3"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Stop(context.Background())
//
//	code, err := srv.Register(ctx, hbbs.RegisterRequest{
//	    ID:        "123456789",
//	    UUID:      uuid,
//	    PublicKey: pk,
//	    Addr:      netip.MustParseAddrPort("203.0.113.7:21116"),
//	})
//
// # 请求流程
//
//	Register
//	  ├─ abuseguard.Evaluate   来源地址被拒绝 → ErrAddressBlocked
//	  ├─ directory.GetOrCreate 节点库故障 → ResultServerError
//	  ├─ 注册节流              过于频繁 → ErrTooFrequent
//	  ├─ registration.UpdatePublicKey
//	  └─ abuseguard.Record     无论结果如何都执行
//
// # 文件组织
//
//   - version.go: 版本信息
//   - errors.go: 公共错误
//   - options.go: 用户配置选项
//   - fx.go: Fx 应用组装
//   - server.go: Server 门面
package hbbs
