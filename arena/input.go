package arena

import "tokyobot/protocol"

// Input 客户端指令（意图），由房间在 Tick 中解释
type Input struct {
	PlayerID PlayerID
	Command  protocol.Command
}

// join 加入 / 离开请求，在 Tick 线程中处理
type join struct {
	id    PlayerID
	conn  *ClientConn
	leave bool
}
