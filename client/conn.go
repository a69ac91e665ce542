package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
)

const (
	writeWait      = 5 * time.Second
	closeWait      = 500 * time.Millisecond
	maxMessageSize = 16 << 20 // 16MB，世界状态可能较大
)

// dialContext 与 Dialer.DialContext 相同，但 ctx 取消时会中断进行中的握手
func dialContext(ctx context.Context, d *websocket.Dialer, target string, header http.Header) (*websocket.Conn, *http.Response, error) {
	dialer := *d
	base := dialer.NetDialContext
	if base == nil {
		if dialer.NetDial != nil {
			netDial := dialer.NetDial
			base = func(_ context.Context, network, addr string) (net.Conn, error) { return netDial(network, addr) }
		} else {
			base = (&net.Dialer{}).DialContext
		}
	}

	var mu sync.Mutex
	var raw net.Conn
	dialer.NetDialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		c, err := base(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		defer mu.Unlock()
		if err := ctx.Err(); err != nil {
			_ = c.Close()
			return nil, err
		}
		raw = c
		return c, nil
	}
	stop := context.AfterFunc(ctx, func() {
		mu.Lock()
		defer mu.Unlock()
		if raw != nil {
			_ = raw.Close()
		}
	})
	defer stop()
	return dialer.DialContext(ctx, target, header)
}

// conn 对 websocket.Conn 的轻量包装：写协程 + 读协程
type conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}

	wmu       sync.Mutex // 串行化写（数据帧与控制帧）
	closeOnce sync.Once
	closeErr  error
}

func newConn(ws *websocket.Conn, sendBuf int) *conn {
	ws.SetReadLimit(maxMessageSize)
	return &conn{
		ws:   ws,
		send: make(chan []byte, sendBuf),
		done: make(chan struct{}),
	}
}

// enqueue 非阻塞入队；连接已关闭或队列满时返回错误
func (c *conn) enqueue(b []byte) error {
	select {
	case <-c.done:
		return ErrTransportNotOpen
	default:
	}
	select {
	case c.send <- b:
		return nil
	case <-c.done:
		return ErrTransportNotOpen
	default:
		return ErrSendBufferFull
	}
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (c *conn) writePump() {
	for {
		select {
		case <-c.done:
			// 关闭时队列中未写出的指令直接丢弃
			return
		case msg := <-c.send:
			c.wmu.Lock()
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.ws.WriteMessage(websocket.TextMessage, msg)
			c.wmu.Unlock()
			if err != nil {
				// 读协程会随之报错并触发 close 事件
				_ = c.ws.Close()
				return
			}
		}
	}
}

// readPump 逐条读取服务端消息交给 onMessage；返回导致退出的错误
func (c *conn) readPump(onMessage func([]byte)) error {
	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}
		onMessage(payload)
	}
}

// close 发送关闭帧并关闭底层连接，可重复调用
func (c *conn) close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.wmu.Lock()
		err := c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWait))
		c.wmu.Unlock()
		if errors.Is(err, websocket.ErrCloseSent) {
			err = nil
		}
		c.closeErr = multierr.Append(err, c.ws.Close())
	})
	return c.closeErr
}

// isNormalClose 对端正常关闭（不作为错误上报）
func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
