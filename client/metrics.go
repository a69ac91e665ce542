package client

import (
	"sync/atomic"
)

// Metrics 会话运行期计数（用于监控与调试）；读取走 Snapshot
type Metrics struct {
	statesReceived  int64 // 应用的 state 事件数
	ignored         int64 // 非 state 事件
	malformed       int64 // 无法解析的入站消息
	commandsSent    int64 // 成功入队的指令
	sendFailures    int64 // 未开连接 / 队列满 / 编码失败
	errors          int64 // 传输层错误事件
	ticks           int64 // 决策定时器触发次数
	ticksSkipped    int64 // 连接未打开而跳过
	ticksNoState    int64 // 尚未收到 state 而跳过
	ticksOverlapped int64 // 上一次决策未完成而跳过
	decisions       int64 // 决策函数调用次数
	totalDecisionNs int64 // 决策累计耗时（纳秒）
}

func (m *Metrics) incStates()     { atomic.AddInt64(&m.statesReceived, 1) }
func (m *Metrics) incIgnored()    { atomic.AddInt64(&m.ignored, 1) }
func (m *Metrics) incMalformed()  { atomic.AddInt64(&m.malformed, 1) }
func (m *Metrics) incSent()       { atomic.AddInt64(&m.commandsSent, 1) }
func (m *Metrics) incSendFailed() { atomic.AddInt64(&m.sendFailures, 1) }
func (m *Metrics) incErrors()     { atomic.AddInt64(&m.errors, 1) }
func (m *Metrics) incTick()       { atomic.AddInt64(&m.ticks, 1) }
func (m *Metrics) incSkipped()    { atomic.AddInt64(&m.ticksSkipped, 1) }
func (m *Metrics) incNoState()    { atomic.AddInt64(&m.ticksNoState, 1) }
func (m *Metrics) incOverlapped() { atomic.AddInt64(&m.ticksOverlapped, 1) }
func (m *Metrics) addDecision(ns int64) {
	atomic.AddInt64(&m.decisions, 1)
	atomic.AddInt64(&m.totalDecisionNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	decisions := atomic.LoadInt64(&m.decisions)
	total := atomic.LoadInt64(&m.totalDecisionNs)
	var avgMs float64
	if decisions > 0 {
		avgMs = float64(total) / float64(decisions) / 1e6
	}
	return map[string]any{
		"states_received":  atomic.LoadInt64(&m.statesReceived),
		"ignored":          atomic.LoadInt64(&m.ignored),
		"malformed":        atomic.LoadInt64(&m.malformed),
		"commands_sent":    atomic.LoadInt64(&m.commandsSent),
		"send_failures":    atomic.LoadInt64(&m.sendFailures),
		"errors":           atomic.LoadInt64(&m.errors),
		"ticks":            atomic.LoadInt64(&m.ticks),
		"ticks_skipped":    atomic.LoadInt64(&m.ticksSkipped),
		"ticks_no_state":   atomic.LoadInt64(&m.ticksNoState),
		"ticks_overlapped": atomic.LoadInt64(&m.ticksOverlapped),
		"decisions":        decisions,
		"avg_decision_ms":  avgMs,
	}
}
