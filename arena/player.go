package arena

// PlayerID 玩家唯一标识（连接时的 name）
type PlayerID string

// PlayerState 为广播给客户端的轻量状态
type PlayerState struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
	Speed float64 `json:"speed"`
	Shots int     `json:"shots"`
}

// Player 房间内的玩家实体（服务端权威状态）
type Player struct {
	ID    PlayerID
	X     float64
	Y     float64
	Angle float64 // 弧度，rotate 指令直接设置
	Speed float64 // throttle 指令设置，按房间上限裁剪
	Shots int

	Conn *ClientConn // 网络连接的发送端（写协程）
}

func (p *Player) state() PlayerState {
	return PlayerState{ID: string(p.ID), X: p.X, Y: p.Y, Angle: p.Angle, Speed: p.Speed, Shots: p.Shots}
}
