package client

import (
	"encoding/json"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Snapshot 服务端推送的世界状态，整体替换、只读
//
// 核心不校验结构；Raw 是 state 事件中 data 字段的原始 JSON，调用方不得修改。
type Snapshot struct {
	Seq        uint64 // 本会话内第几个 state 事件，从 1 开始
	ReceivedAt time.Time
	Raw        json.RawMessage
}

// Decode 按调用方自己的结构解析
func (s *Snapshot) Decode(v any) error {
	return json.Unmarshal(s.Raw, v)
}

// Map 解析为通用 map；data 不是对象时返回错误
func (s *Snapshot) Map() (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(s.Raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Struct 解析为 protobuf Struct，便于按字段类型访问
func (s *Snapshot) Struct() (*structpb.Struct, error) {
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(s.Raw, st); err != nil {
		return nil, err
	}
	return st, nil
}
