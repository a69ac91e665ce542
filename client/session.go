package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tokyobot/internal/logging"
	"tokyobot/protocol"
)

// ReadyState 与浏览器 WebSocket.readyState 对应
type ReadyState int32

const (
	StateConnecting ReadyState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s ReadyState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("ReadyState(%d)", int32(s))
}

// OpenEvent 连接建立时传给 OnOpenFunc
type OpenEvent struct {
	Target string // 已隐藏 api key
	Status int    // 握手响应状态码
	At     time.Time
}

// OnOpenFunc 连接建立回调；只保留最后一次注册的
type OnOpenFunc func(OpenEvent)

type eventKind int

const (
	evOpen eventKind = iota
	evMessage
	evError
	evClose
	evTick
)

// event 投递给会话事件循环的事件；所有用户回调都在循环协程里执行
type event struct {
	kind    eventKind
	conn    *conn
	open    OpenEvent
	payload []byte
	err     error
	plan    *Plan
}

// Session 一个客户端连接及其协议状态
//
// 传输层事件、决策定时器都投递到同一个事件循环协程串行处理，
// 因此 open 回调与决策函数不会并发执行，也不会与 state 替换并发。
type Session struct {
	target  string
	log     *zap.SugaredLogger
	dialer  *websocket.Dialer
	header  http.Header
	sendBuf int

	state   atomic.Int32
	latest  atomic.Pointer[Snapshot]
	metrics Metrics

	connMu sync.RWMutex
	conn   *conn

	mu     sync.Mutex
	onOpen OnOpenFunc
	plan   *Plan

	events chan event
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	seq    uint64 // 仅事件循环读写
}

// Option 构造参数
type Option func(*Session)

// WithLogger 指定日志；默认不输出
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Session) { s.log = log }
}

// WithDialer 替换默认 Dialer（握手超时、TLS、代理等）
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

// WithHeader 握手时附加的 HTTP 头
func WithHeader(h http.Header) Option {
	return func(s *Session) { s.header = h }
}

// WithOnOpen 在拨号前注册 open 回调，避免与连接建立竞争
func WithOnOpen(fn OnOpenFunc) Option {
	return func(s *Session) { s.onOpen = fn }
}

// WithSendBuffer 发送队列容量
func WithSendBuffer(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.sendBuf = n
		}
	}
}

// New 校验凭据、拼接地址并开始异步连接
func New(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return Open(cfg.URL(), opts...), nil
}

// Open 对已拼好的地址开始异步连接；返回时连接通常尚未建立
func Open(target string, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		target:  target,
		log:     logging.Nop(),
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		sendBuf: 256,
		events:  make(chan event, 64),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(int32(StateConnecting))

	go s.loop()
	go s.dial()
	return s
}

func (s *Session) dial() {
	ws, resp, err := dialContext(s.ctx, s.dialer, s.target, s.header)
	if err != nil {
		if s.ctx.Err() == nil {
			s.post(event{kind: evError, err: fmt.Errorf("dial %s: %w", redact(s.target), err)})
		}
		s.post(event{kind: evClose})
		return
	}
	c := newConn(ws, s.sendBuf)
	if s.ctx.Err() != nil {
		// Close() 在握手期间被调用
		_ = c.close()
		s.post(event{kind: evClose})
		return
	}
	ev := OpenEvent{Target: redact(s.target), At: time.Now()}
	if resp != nil {
		ev.Status = resp.StatusCode
	}
	s.post(event{kind: evOpen, conn: c, open: ev})
}

// post 投递事件；会话结束后直接丢弃
func (s *Session) post(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// loop 事件循环：直到处理完 close 事件
func (s *Session) loop() {
	for {
		ev := <-s.events
		switch ev.kind {
		case evOpen:
			s.handleOpen(ev)
		case evMessage:
			s.handleMessage(ev.payload)
		case evError:
			s.handleError(ev.err)
		case evTick:
			s.handleTick(ev.plan)
		case evClose:
			s.handleClose()
			return
		}
	}
}

func (s *Session) handleOpen(ev event) {
	// 先发布 conn 再切到 Open：IsConnected 为真时 send 一定拿得到连接
	s.connMu.Lock()
	s.conn = ev.conn
	s.connMu.Unlock()
	go s.read(ev.conn)

	if !s.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen)) {
		// 握手期间已调用 Close()；读协程随后投递 close
		_ = ev.conn.close()
		return
	}
	go ev.conn.writePump()

	s.log.Infow("connected", "target", ev.open.Target)

	s.mu.Lock()
	fn := s.onOpen
	s.mu.Unlock()
	if fn != nil {
		fn(ev.open)
	}
}

// read 读协程：消息按到达顺序投递，退出时投递 close
func (s *Session) read(c *conn) {
	err := c.readPump(func(payload []byte) {
		s.post(event{kind: evMessage, payload: payload})
	})
	if err != nil && !isNormalClose(err) && ReadyState(s.state.Load()) == StateOpen {
		s.post(event{kind: evError, err: fmt.Errorf("read: %w", err)})
	}
	s.post(event{kind: evClose})
}

func (s *Session) handleMessage(payload []byte) {
	env, err := protocol.Decode(payload)
	if err != nil {
		s.metrics.incMalformed()
		s.log.Debugw("ignore malformed message", "err", err, "size", len(payload))
		return
	}
	if env.E != protocol.EventState {
		s.metrics.incIgnored()
		return
	}
	if !env.HasData() {
		s.metrics.incMalformed()
		s.log.Debugw("ignore state event without data")
		return
	}
	s.seq++
	s.latest.Store(&Snapshot{Seq: s.seq, ReceivedAt: time.Now(), Raw: env.Data})
	s.metrics.incStates()
}

func (s *Session) handleError(err error) {
	s.metrics.incErrors()
	s.log.Errorw("transport error", "err", err)
}

func (s *Session) handleClose() {
	s.mu.Lock()
	s.state.Store(int32(StateClosed))
	p := s.plan
	s.plan = nil
	s.mu.Unlock()
	if p != nil {
		p.Stop()
	}

	s.cancel()
	s.connMu.RLock()
	c := s.conn
	s.connMu.RUnlock()
	if c != nil {
		_ = c.close()
	}
	close(s.done)
	s.log.Info("disconnected")
}

func (s *Session) send(cmd protocol.Command) error {
	if ReadyState(s.state.Load()) != StateOpen {
		s.metrics.incSendFailed()
		return ErrTransportNotOpen
	}
	b, err := cmd.Encode()
	if err != nil {
		s.metrics.incSendFailed()
		return err
	}
	s.connMu.RLock()
	c := s.conn
	s.connMu.RUnlock()
	if err := c.enqueue(b); err != nil {
		s.metrics.incSendFailed()
		return fmt.Errorf("%s: %w", cmd.E, err)
	}
	s.metrics.incSent()
	return nil
}

// Rotate 转向到 angle（弧度）
func (s *Session) Rotate(angle float64) error {
	return s.send(protocol.Rotate(angle))
}

// Throttle 设置油门；取值范围由服务端决定
func (s *Session) Throttle(speed float64) error {
	return s.send(protocol.Throttle(speed))
}

// Fire 开火
func (s *Session) Fire() error {
	return s.send(protocol.Fire())
}

// IsConnected 传输层处于 Open 状态
func (s *Session) IsConnected() bool {
	return ReadyState(s.state.Load()) == StateOpen
}

// State 当前 ReadyState
func (s *Session) State() ReadyState {
	return ReadyState(s.state.Load())
}

// LatestSnapshot 最近一次 state 事件；尚未收到时为 nil
func (s *Session) LatestSnapshot() *Snapshot {
	return s.latest.Load()
}

// SetOnOpenFn 注册 open 回调，覆盖之前的注册
func (s *Session) SetOnOpenFn(fn OnOpenFunc) {
	s.mu.Lock()
	s.onOpen = fn
	s.mu.Unlock()
}

// Metrics 运行期计数
func (s *Session) Metrics() *Metrics {
	return &s.metrics
}

// Done 会话进入 Closed 后关闭
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close 请求关闭连接；重复调用无副作用
func (s *Session) Close() error {
	for {
		st := ReadyState(s.state.Load())
		if st == StateClosing || st == StateClosed {
			return nil
		}
		if s.state.CompareAndSwap(int32(st), int32(StateClosing)) {
			break
		}
	}
	s.cancel()
	s.connMu.RLock()
	c := s.conn
	s.connMu.RUnlock()
	if c == nil {
		// 仍在拨号：dial 协程看到 ctx 取消后投递 close
		return nil
	}
	if err := c.close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
