// Package protocol 定义机器人与游戏服务端之间的 JSON 信封（双方共用）
package protocol

import (
	"encoding/json"
	"fmt"
	"math"
)

// 事件名（e 字段）
const (
	EventState    = "state"
	EventRotate   = "rotate"
	EventThrottle = "throttle"
	EventFire     = "fire"
)

// SocketPath 服务端 WebSocket 入口
const SocketPath = "/socket"

// Envelope 入站消息：{"e":"state","data":{...}}
type Envelope struct {
	E    string          `json:"e"`
	Data json.RawMessage `json:"data,omitempty"`
}

// HasData data 字段存在且不为 null
func (e Envelope) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

// Command 出站指令；Fire 没有 data 字段
type Command struct {
	E    string   `json:"e"`
	Data *float64 `json:"data,omitempty"`
}

func Rotate(angle float64) Command {
	return Command{E: EventRotate, Data: &angle}
}

func Throttle(speed float64) Command {
	return Command{E: EventThrottle, Data: &speed}
}

func Fire() Command {
	return Command{E: EventFire}
}

// Encode 序列化指令，拒绝 NaN / Inf（JSON 无法表示）
func (c Command) Encode() ([]byte, error) {
	if c.Data != nil && (math.IsNaN(*c.Data) || math.IsInf(*c.Data, 0)) {
		return nil, fmt.Errorf("encode %s: non-finite value %v", c.E, *c.Data)
	}
	return json.Marshal(c)
}

// Decode 解析入站信封；缺少 e 字段视为非法
func Decode(payload []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, err
	}
	if env.E == "" {
		return Envelope{}, fmt.Errorf("missing event discriminator")
	}
	return env, nil
}

// DecodeCommand 服务端视角解析客户端指令
func DecodeCommand(payload []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(payload, &c); err != nil {
		return Command{}, err
	}
	switch c.E {
	case EventRotate, EventThrottle:
		if c.Data == nil {
			return Command{}, fmt.Errorf("%s: missing data", c.E)
		}
	case EventFire:
	default:
		return Command{}, fmt.Errorf("unknown command %q", c.E)
	}
	return c, nil
}

// StateMessage 包装服务端推送的世界状态
func StateMessage(data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{E: EventState, Data: raw})
}
