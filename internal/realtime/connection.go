package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/service"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 64 * 1024
)

// Options настройки соединения
type Options struct {
	WriteTimeout time.Duration
	BufferSize   int
}

func (o Options) withDefaults() Options {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.BufferSize <= 0 {
		o.BufferSize = 100
	}
	return o
}

// Connection обёртка над websocket: все записи идут через одну горутину writeLoop
type Connection struct {
	id      string
	conn    *websocket.Conn
	actor   service.Actor
	writeCh chan []byte
	timeout time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewConnection(conn *websocket.Conn, actor service.Actor, opts Options) *Connection {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:      uuid.NewString(),
		conn:    conn,
		actor:   actor,
		writeCh: make(chan []byte, opts.BufferSize),
		timeout: opts.WriteTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}

	go c.writeLoop()

	return c
}

func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) Actor() service.Actor {
	return c.actor
}

// Done закрывается, когда соединение закрыто с любой стороны
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.Close()

	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.timeout)); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

// Send ставит кадр в очередь записи
func (c *Connection) Send(data []byte) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case c.writeCh <- data:
		return nil
	case <-timer.C:
		return ErrWriteTimeout
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

// ReadLoop читает входящие кадры до ошибки чтения или закрытия и затем закрывает соединение
func (c *Connection) ReadLoop(handle func(data []byte)) {
	defer c.Close()

	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage || handle == nil {
			continue
		}
		handle(data)
	}
}

func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		// даём writeLoop отправить close frame до закрытия сокета
		time.AfterFunc(100*time.Millisecond, func() { _ = c.conn.Close() })
	})
	return nil
}
