package arena

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"tokyobot/protocol"
)

// RoomConfig 可热更新的房间规则
type RoomConfig struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	MaxSpeed float64 `json:"maxSpeed"` // throttle 的绝对值上限（每 Tick 移动距离）
}

// DefaultRoomConfig 100x100 的地图，速度上限 1
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{Width: 100, Height: 100, MaxSpeed: 1}
}

// Room 房间世界：权威状态维护在内存，单线程 Tick 推进
type Room struct {
	ID string

	players   map[PlayerID]*Player // 仅 Tick 协程访问
	inputChan chan Input
	joinChan  chan join // 加入与离开共用，保证先后顺序

	cfgMu sync.RWMutex
	cfg   RoomConfig

	tickSeq atomic.Int64
	metrics *RoomMetrics
	log     *zap.SugaredLogger

	tickerOnce sync.Once
	stopOnce   sync.Once
	stop       chan struct{}
}

// NewRoom 创建房间，初始化数据结构
func NewRoom(id string, cfg RoomConfig, log *zap.SugaredLogger) *Room {
	return &Room{
		ID:        id,
		players:   make(map[PlayerID]*Player),
		inputChan: make(chan Input, 256), // 足够缓冲，避免网络读阻塞影响 Tick
		joinChan:  make(chan join, 128),
		cfg:       cfg,
		metrics:   &RoomMetrics{},
		log:       log,
		stop:      make(chan struct{}),
	}
}

// Config 当前规则
func (r *Room) Config() RoomConfig {
	r.cfgMu.RLock()
	defer r.cfgMu.RUnlock()
	return r.cfg
}

// UpdateConfig 在锁内修改规则
func (r *Room) UpdateConfig(fn func(*RoomConfig)) RoomConfig {
	r.cfgMu.Lock()
	defer r.cfgMu.Unlock()
	fn(&r.cfg)
	return r.cfg
}

// Metrics 房间指标
func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// Tick 已推进的 Tick 数
func (r *Room) Tick() int64 { return r.tickSeq.Load() }

// RequestJoin 请求在 Tick 线程中加入玩家；房间已停止时返回 false
func (r *Room) RequestJoin(id PlayerID, conn *ClientConn) bool {
	select {
	case <-r.stop:
		return false
	default:
	}
	select {
	case r.joinChan <- join{id: id, conn: conn}:
		return true
	case <-r.stop:
		return false
	}
}

// RequestLeave 请求在 Tick 线程中移除玩家，避免并发改动房间状态
func (r *Room) RequestLeave(id PlayerID, conn *ClientConn) {
	select {
	case r.joinChan <- join{id: id, conn: conn, leave: true}:
	case <-r.stop:
	}
}

// OnInput 入站指令（不立即改变状态），等下一次 Tick 处理
func (r *Room) OnInput(in Input) {
	select {
	case r.inputChan <- in:
	default:
		// 丢弃：为了实时性，避免背压影响世界推进
		r.metrics.IncChanFullDiscarded()
	}
}

func (r *Room) joinPlayer(j join) {
	if old, ok := r.players[j.id]; ok && old.Conn != nil && old.Conn != j.conn {
		// 同名重复登录：踢掉旧连接
		old.Conn.Close()
	}
	cfg := r.Config()
	r.players[j.id] = &Player{ID: j.id, X: cfg.Width / 2, Y: cfg.Height / 2, Conn: j.conn}
	r.metrics.IncJoins()
	r.log.Infow("player joined", "room", r.ID, "player", j.id)
}

// leavePlayer 只移除仍绑定在该连接上的玩家（同名重连后旧连接的离开请求无效）
func (r *Room) leavePlayer(j join) {
	if p, ok := r.players[j.id]; ok && p.Conn == j.conn {
		delete(r.players, j.id)
		r.metrics.IncLeaves()
		r.log.Infow("player left", "room", r.ID, "player", j.id)
	}
}

// ProcessInputs 处理当前帧的加入、离开与指令（非阻塞 drain）
// 先处理成员变化，保证同一帧内新玩家的指令不会被丢弃
func (r *Room) ProcessInputs() {
	for drained := false; !drained; {
		select {
		case j := <-r.joinChan:
			if j.leave {
				r.leavePlayer(j)
			} else {
				r.joinPlayer(j)
			}
		default:
			drained = true
		}
	}
	for {
		select {
		case in := <-r.inputChan:
			if p, ok := r.players[in.PlayerID]; ok {
				r.applyCommand(p, in.Command)
				r.metrics.IncAccepted()
			}
		default:
			return
		}
	}
}

// applyCommand 解释一条指令
func (r *Room) applyCommand(p *Player, cmd protocol.Command) {
	switch cmd.E {
	case protocol.EventRotate:
		p.Angle = *cmd.Data
	case protocol.EventThrottle:
		limit := r.Config().MaxSpeed
		p.Speed = math.Max(-limit, math.Min(limit, *cmd.Data))
	case protocol.EventFire:
		p.Shots++
	}
}

// UpdateWorld 按朝向与速度推进位置并进行越界裁剪
func (r *Room) UpdateWorld() {
	cfg := r.Config()
	for _, p := range r.players {
		p.X += math.Cos(p.Angle) * p.Speed
		p.Y += math.Sin(p.Angle) * p.Speed
		p.X = math.Max(0, math.Min(cfg.Width, p.X))
		p.Y = math.Max(0, math.Min(cfg.Height, p.Y))
	}
}

// WorldState state 事件的 data 部分
type WorldState struct {
	Room    string        `json:"room"`
	Tick    int64         `json:"tick"`
	Width   float64       `json:"width"`
	Height  float64       `json:"height"`
	Players []PlayerState `json:"players"`
}

func (r *Room) worldState() WorldState {
	cfg := r.Config()
	players := make([]PlayerState, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p.state())
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return WorldState{Room: r.ID, Tick: r.tickSeq.Load(), Width: cfg.Width, Height: cfg.Height, Players: players}
}

// Broadcast 将当前世界状态广播给所有玩家
func (r *Room) Broadcast() {
	if len(r.players) == 0 {
		return
	}
	b, err := protocol.StateMessage(r.worldState())
	if err != nil {
		r.log.Errorw("encode state", "room", r.ID, "err", err)
		return
	}
	for _, p := range r.players {
		if p.Conn != nil {
			p.Conn.Enqueue(b)
		}
	}
}
