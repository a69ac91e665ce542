package arena

import (
	"encoding/json"
	"net/http"
)

// HandleAdminConfig 提供房间配置的读取与更新（热更新基本规则）
// GET /admin/config?room=room-1  返回当前配置
// POST /admin/config?room=room-1 以 JSON 载荷更新部分字段
func (s *Server) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = DefaultRoom
	}
	room := s.rooms.GetOrCreateRoom(roomID)

	type cfg struct {
		Width    *float64 `json:"width,omitempty"`
		Height   *float64 `json:"height,omitempty"`
		MaxSpeed *float64 `json:"maxSpeed,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, room.Config())
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		for _, v := range []*float64{body.Width, body.Height, body.MaxSpeed} {
			if v != nil && *v <= 0 {
				http.Error(w, "values must be positive", http.StatusBadRequest)
				return
			}
		}
		cur := room.UpdateConfig(func(c *RoomConfig) {
			if body.Width != nil {
				c.Width = *body.Width
			}
			if body.Height != nil {
				c.Height = *body.Height
			}
			if body.MaxSpeed != nil {
				c.MaxSpeed = *body.MaxSpeed
			}
		})
		s.log.Infof("config updated: room=%s size=%.0fx%.0f maxSpeed=%.2f", roomID, cur.Width, cur.Height, cur.MaxSpeed)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "config": cur})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMetrics 输出指定房间的运行指标
// GET /metrics?room=room-1
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = DefaultRoom
	}
	room, ok := s.rooms.Room(roomID)
	if !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room":    roomID,
		"tick":    room.Tick(),
		"metrics": room.metrics.Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
