package client

import "errors"

var (
	// ErrTransportNotOpen 连接未处于 Open 状态时发送指令
	ErrTransportNotOpen = errors.New("transport not open")
	// ErrSendBufferFull 发送队列已满，指令被丢弃
	ErrSendBufferFull = errors.New("send buffer full")
	// ErrInvalidConfig 凭据缺失
	ErrInvalidConfig = errors.New("invalid config")
	// ErrSessionClosed 会话已关闭（终态）
	ErrSessionClosed = errors.New("session closed")
	// ErrInvalidPlan 决策函数为空或周期非正
	ErrInvalidPlan = errors.New("invalid game plan")
)
