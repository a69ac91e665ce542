package arena

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RoomManager 管理多个房间的生命周期
type RoomManager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	cfg      RoomConfig
	interval time.Duration
	log      *zap.SugaredLogger
}

func NewRoomManager(cfg RoomConfig, interval time.Duration, log *zap.SugaredLogger) *RoomManager {
	return &RoomManager{rooms: make(map[string]*Room), cfg: cfg, interval: interval, log: log}
}

// GetOrCreateRoom 获取或创建房间，并确保开始 Tick
func (m *RoomManager) GetOrCreateRoom(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		r = NewRoom(id, m.cfg, m.log)
		m.rooms[id] = r
		r.StartTicker(m.interval)
	}
	return r
}

// Room 查找已存在的房间
func (m *RoomManager) Room(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// RoomIDs 按名称排序
func (m *RoomManager) RoomIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StopAll 停止所有房间的 Tick
func (m *RoomManager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		r.Stop()
	}
}
