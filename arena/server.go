// Package arena 本地练习用的游戏服务端：与正式服务端同一套协议，
// 按固定 Tick 推进世界并向每个机器人广播 state。
package arena

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"tokyobot/internal/logging"
	"tokyobot/protocol"
)

// DefaultRoom 未指定 room 时加入的房间
const DefaultRoom = "room-1"

// Options 练习服务端参数
type Options struct {
	Keys         []string // 允许的 api key；为空表示任意非空 key
	TickInterval time.Duration
	Room         RoomConfig
	Log          *zap.SugaredLogger
}

// Server 练习服务端
type Server struct {
	rooms *RoomManager
	keys  map[string]struct{}
	log   *zap.SugaredLogger
}

func NewServer(opts Options) *Server {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Room == (RoomConfig{}) {
		opts.Room = DefaultRoomConfig()
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	s := &Server{
		rooms: NewRoomManager(opts.Room, opts.TickInterval, opts.Log),
		log:   opts.Log,
	}
	if len(opts.Keys) > 0 {
		s.keys = make(map[string]struct{}, len(opts.Keys))
		for _, k := range opts.Keys {
			s.keys[k] = struct{}{}
		}
	}
	return s
}

func (s *Server) authorize(key string) bool {
	if key == "" {
		return false
	}
	if s.keys == nil {
		return true
	}
	_, ok := s.keys[key]
	return ok
}

// Rooms 房间管理器
func (s *Server) Rooms() *RoomManager { return s.rooms }

// Handler 路由：/socket、/admin/config、/metrics、/healthz
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(protocol.SocketPath, s.HandleWS)
	mux.HandleFunc("/admin/config", s.HandleAdminConfig)
	mux.HandleFunc("/metrics", s.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Close 停止所有房间
func (s *Server) Close() {
	s.rooms.StopAll()
}
