package client

import (
	"sync"
	"sync/atomic"
	"time"
)

// GamePlanFunc 决策函数，参数为最近一次收到的世界状态（非 nil）
type GamePlanFunc func(state *Snapshot)

// Plan 一个周期性决策任务；由 Session 持有，可显式 Stop
type Plan struct {
	fn     GamePlanFunc
	period time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool // 决策函数执行中
	calls    atomic.Int64
}

// Period 决策周期
func (p *Plan) Period() time.Duration { return p.period }

// Invocations 决策函数被调用的次数
func (p *Plan) Invocations() int64 { return p.calls.Load() }

// Stop 取消定时器；已投递但未处理的 tick 会被事件循环丢弃
func (p *Plan) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *Plan) stopped() bool {
	select {
	case <-p.stop:
		return true
	default:
		return false
	}
}

// run 定时器协程：只负责投递 tick，不直接调用决策函数
func (p *Plan) run(s *Session) {
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			s.metrics.incTick()
			// 上一次决策尚未返回：跳过本次，不排队
			if !p.running.CompareAndSwap(false, true) {
				s.metrics.incOverlapped()
				continue
			}
			if !s.post(event{kind: evTick, plan: p}) {
				return
			}
		}
	}
}

// SetGamePlan 以 period 为周期调用 fn；替换（先取消）之前的 Plan
//
// 连接未打开或尚未收到任何 state 时跳过该次 tick。
// fn 中的 panic 不会被捕获。
func (s *Session) SetGamePlan(fn GamePlanFunc, period time.Duration) (*Plan, error) {
	if fn == nil || period <= 0 {
		return nil, ErrInvalidPlan
	}
	p := &Plan{fn: fn, period: period, stop: make(chan struct{})}

	s.mu.Lock()
	if ReadyState(s.state.Load()) == StateClosed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	prev := s.plan
	s.plan = p
	s.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	go p.run(s)
	return p, nil
}

// SetGamePlanMs 同 SetGamePlan，周期以毫秒表示
func (s *Session) SetGamePlanMs(fn GamePlanFunc, ms int) (*Plan, error) {
	return s.SetGamePlan(fn, time.Duration(ms)*time.Millisecond)
}

// StopGamePlan 取消当前 Plan（如果有）
func (s *Session) StopGamePlan() {
	s.mu.Lock()
	p := s.plan
	s.plan = nil
	s.mu.Unlock()
	if p != nil {
		p.Stop()
	}
}

// GamePlan 当前生效的 Plan；没有时为 nil
func (s *Session) GamePlan() *Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan
}

// handleTick 在事件循环中执行一次决策
func (s *Session) handleTick(p *Plan) {
	defer p.running.Store(false)

	s.mu.Lock()
	current := s.plan == p
	s.mu.Unlock()
	if !current || p.stopped() {
		return
	}
	if !s.IsConnected() {
		s.metrics.incSkipped()
		return
	}
	state := s.LatestSnapshot()
	if state == nil {
		s.metrics.incNoState()
		return
	}

	start := time.Now()
	p.fn(state)
	p.calls.Add(1)
	s.metrics.addDecision(time.Since(start).Nanoseconds())
}
