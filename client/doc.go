// Package client 连接游戏服务端的机器人客户端。
//
// Session 持有一条 WebSocket 连接：接收服务端推送的世界状态（state 事件），
// 并通过 Controller 发送 rotate / throttle / fire 指令。SetGamePlan 以固定周期
// 用最新状态调用决策函数；连接未打开时跳过，连接关闭时自动取消。
//
//	cfg, err := client.LoadConfig()
//	if err != nil { log.Fatal(err) }
//	s, err := client.New(cfg, client.WithLogger(log))
//	if err != nil { log.Fatal(err) }
//	defer s.Close()
//
//	ctl := s.Controller()
//	s.SetGamePlan(func(state *client.Snapshot) {
//		_ = ctl.Throttle(0.2)
//		_ = ctl.Rotate(client.RandomFloat(0.1, 1.0, 1) * 2 * math.Pi)
//		_ = ctl.Fire()
//	}, time.Second)
//
// 指令不确认、不重发；连接断开后会话不会自动重连。
package client
