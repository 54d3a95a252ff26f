package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/api"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrAlreadyConnected = errors.New("channel already connected")
	ErrNotConnected     = errors.New("channel not connected")
	ErrClosed           = errors.New("channel closed")
)

const (
	writeWait      = 10 * time.Second
	maxFrameSize   = 1 << 20
	closeGraceWait = time.Second
)

// Channel дуплексное соединение с одним обработчиком входящих кадров.
// Адрес задаётся при создании и после Connect не меняется. Переподключения нет:
// обрыв виден через Done и Err, владелец сам решает, что делать дальше.
type Channel[T any] interface {
	Connect(ctx context.Context) error
	OnMessage(handler func(T))
	Close() error
	Done() <-chan struct{}
	Err() error
}

// Socket реализация Channel поверх gorilla/websocket
type Socket[T any] struct {
	url    string
	creds  api.Credentials
	dialer *websocket.Dialer
	logger *zap.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	handler   func(T)
	connected bool
	closed    bool
	err       error

	writeMu sync.Mutex
	done    chan struct{}
}

var _ Channel[struct{}] = (*Socket[struct{}])(nil)

// NewSocket канал по полному ws:// адресу
func NewSocket[T any](url string, creds api.Credentials, logger *zap.Logger) *Socket[T] {
	return &Socket[T]{
		url:    url,
		creds:  creds,
		dialer: websocket.DefaultDialer,
		logger: logger.With(zap.String("channel", url)),
		done:   make(chan struct{}),
	}
}

func (s *Socket[T]) URL() string {
	return s.url
}

// Connect открывает соединение и запускает чтение
func (s *Socket[T]) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.connected {
		return ErrAlreadyConnected
	}

	header := http.Header{}
	s.creds.Apply(header)

	conn, resp, err := s.dialer.DialContext(ctx, s.url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (HTTP %d)", s.url, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	conn.SetReadLimit(maxFrameSize)

	s.conn = conn
	s.connected = true
	go s.readLoop(conn)

	s.logger.Debug("Channel connected")
	return nil
}

// OnMessage заменяет обработчик. Кадры до регистрации обработчика отбрасываются
func (s *Socket[T]) OnMessage(handler func(T)) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

// Send пишет кадр в соединение
func (s *Socket[T]) Send(v any) error {
	s.mu.Lock()
	conn := s.conn
	closed := s.closed
	s.mu.Unlock()

	if conn == nil || closed {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteJSON(v); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close закрывает соединение. Повторный вызов ничего не делает
func (s *Socket[T]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		close(s.done)
		return nil
	}

	s.writeMu.Lock()
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	s.writeMu.Unlock()

	select {
	case <-s.done:
	case <-time.After(closeGraceWait):
		// сервер не ответил на close, обрываем сами; readLoop завершится с ошибкой чтения
		_ = conn.Close()
		<-s.done
	}
	return nil
}

// Done закрывается, когда соединение завершилось по любой причине
func (s *Socket[T]) Done() <-chan struct{} {
	return s.done
}

// Err причина обрыва. nil, если канал закрыт владельцем или ещё работает
func (s *Socket[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Socket[T]) readLoop(conn *websocket.Conn) {
	defer close(s.done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closedByOwner := s.closed
			if !closedByOwner && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				s.err = err
			}
			s.mu.Unlock()

			if closedByOwner {
				s.logger.Debug("Channel closed")
			} else {
				s.logger.Warn("Channel dropped", zap.Error(err))
			}
			_ = conn.Close()
			return
		}

		s.dispatch(data)
	}
}

// dispatch разбирает кадр и отдаёт его обработчику. Битые кадры отбрасываются
func (s *Socket[T]) dispatch(data []byte) {
	var frame T
	if err := json.Unmarshal(data, &frame); err != nil {
		s.logger.Debug("Dropping malformed frame", zap.Int("size", len(data)), zap.Error(err))
		return
	}

	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()

	if handler != nil {
		handler(frame)
	}
}

// wsURL склеивает базовый ws адрес и путь
func wsURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
