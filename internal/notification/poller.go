package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval период опроса коллабораторов
const DefaultPollInterval = 30 * time.Second

var ErrPollerStarted = errors.New("poller already started")

// PollTarget то, что опрашивается по таймеру
type PollTarget interface {
	Poll(ctx context.Context) error
}

// Poller периодически перестраивает уведомления из коллабораторов.
// Один экземпляр на сессию пользователя, время жизни задаёт владелец через Start/Stop
type Poller struct {
	target   PollTarget
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	started  bool
	stopChan chan struct{}
	done     chan struct{}
}

func NewPoller(target PollTarget, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		target:   target,
		interval: interval,
		logger:   logger,
	}
}

// Start запускает опрос: первый цикл сразу, дальше по таймеру
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrPollerStarted
	}
	p.started = true
	p.stopChan = make(chan struct{})
	p.done = make(chan struct{})

	p.logger.Info("Starting notification poller", zap.Duration("interval", p.interval))
	go p.run(ctx, p.stopChan, p.done)
	return nil
}

// Stop останавливает опрос и ждёт завершения текущего цикла
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	stop, done := p.stopChan, p.done
	p.mu.Unlock()

	close(stop)
	<-done
	p.logger.Info("Notification poller stopped")
}

func (p *Poller) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.poll(ctx)
		case <-stop:
			return
		case <-ctx.Done():
			p.logger.Info("Notification poller cancelled")
			return
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	if err := p.target.Poll(ctx); err != nil {
		// ошибки отдельных шагов уже залогированы, цикл завершён с частичным результатом
		p.logger.Debug("Notification poll finished with errors", zap.Error(err))
	}
}
