package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReadStore постоянный набор ключей, отмеченных прочитанными
type ReadStore interface {
	ReadKeys(ctx context.Context) ([]string, error)
	MarkRead(ctx context.Context, keys []string) error
}

// Aggregator собирает уведомления пользователя из push канала, локальных событий
// и опроса коллабораторов в один список
type Aggregator struct {
	userID int64
	role   model.Role
	source Collaborators
	reads  ReadStore
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	read     map[string]struct{}
	pushed   []*Item // push и локальные, в порядке поступления
	polled   []*Item // результат последнего опроса, заменяется целиком
	onChange func()
}

// NewAggregator загружает набор прочитанных ключей и возвращает пустой агрегатор
func NewAggregator(ctx context.Context, userID int64, role model.Role, source Collaborators, reads ReadStore, logger *zap.Logger) (*Aggregator, error) {
	keys, err := reads.ReadKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load read keys: %w", err)
	}

	read := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		read[k] = struct{}{}
	}

	return &Aggregator{
		userID: userID,
		role:   role,
		source: source,
		reads:  reads,
		logger: logger.With(zap.Int64("user_id", userID)),
		now:    time.Now,
		read:   read,
	}, nil
}

// OnChange вызывается после каждого изменения списка
func (a *Aggregator) OnChange(fn func()) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

// HandleFrame принимает кадр глобального канала. Кадры чужому получателю отбрасываются
func (a *Aggregator) HandleFrame(frame model.UserFrame) (*Item, bool) {
	if frame.ReceiverID != a.userID {
		a.logger.Debug("Dropping frame for another receiver",
			zap.String("type", frame.Type),
			zap.Int64("receiver_id", frame.ReceiverID),
		)
		return nil, false
	}

	sender := frame.SenderName
	if sender == "" {
		sender = model.FallbackName(frame.SenderID)
	}

	var item *Item
	switch frame.Type {
	case model.FrameMessageNotification:
		ts := frame.Timestamp
		if ts == "" {
			// без времени отправки ключ берётся по времени получения, иначе все такие сообщения совпадут
			ts = a.now().UTC().Format(time.RFC3339Nano)
		}
		item = &Item{
			Key:         PushMessageKey(frame.SenderID, ts),
			Kind:        KindMessage,
			Title:       "New Message",
			Description: model.NewMessageNotificationText(sender),
		}
	case model.FrameNewRequest:
		if frame.Request == nil {
			return nil, false
		}
		item = &Item{
			Key:         ConnectionKey(frame.Request.ID),
			Kind:        KindConnection,
			Title:       "Connection Request",
			Description: fmt.Sprintf("From %s", sender),
		}
	case model.FrameBookingRequest:
		if frame.Booking == nil {
			return nil, false
		}
		item = &Item{
			Key:         BookingKey(frame.Booking.ID),
			Kind:        KindBooking,
			Title:       "Booking Request",
			Description: fmt.Sprintf("From %s for %s", sender, frame.Booking.Topic),
		}
	default:
		a.logger.Debug("Ignoring frame type", zap.String("type", frame.Type))
		return nil, false
	}

	return a.append(item, SourcePush)
}

// Raise добавляет локальное событие
func (a *Aggregator) Raise(ev LocalEvent) (*Item, bool) {
	kind := ev.Kind
	if kind == "" {
		kind = KindMessage
	}
	return a.append(&Item{
		Key:         ev.Key,
		Kind:        kind,
		Title:       ev.Title,
		Description: ev.Description,
	}, SourceLocal)
}

// append добавляет в конец push списка. Дубликаты не схлопываются,
// подавляется только ключ, уже отмеченный прочитанным
func (a *Aggregator) append(item *Item, source Source) (*Item, bool) {
	a.mu.Lock()
	if item.Key != "" {
		if _, ok := a.read[item.Key]; ok {
			a.mu.Unlock()
			a.logger.Debug("Suppressing already read notification", zap.String("key", item.Key))
			return nil, false
		}
	}

	item.ID = uuid.New()
	item.Unread = true
	item.Source = source
	item.CreatedAt = a.now()
	a.pushed = append(a.pushed, item)
	out := *item
	notify := a.onChange
	a.mu.Unlock()

	if notify != nil {
		notify()
	}
	return &out, true
}

// Remove убирает уведомление по синтетическому id. Набор прочитанных не меняется
func (a *Aggregator) Remove(id uuid.UUID) bool {
	a.mu.Lock()
	var removed bool
	a.pushed, removed = without(a.pushed, id)
	if !removed {
		a.polled, removed = without(a.polled, id)
	}
	notify := a.onChange
	a.mu.Unlock()

	if removed && notify != nil {
		notify()
	}
	return removed
}

func without(items []*Item, id uuid.UUID) ([]*Item, bool) {
	for i, it := range items {
		if it.ID == id {
			return append(items[:i:i], items[i+1:]...), true
		}
	}
	return items, false
}

// MarkAllRead сохраняет ключи всех показанных уведомлений и снимает с них флаг unread.
// Уведомления остаются в списке до явного Remove. Пришедшее во время записи ключей
// остаётся непрочитанным, если его ключ не попал в набор
func (a *Aggregator) MarkAllRead(ctx context.Context) error {
	a.mu.Lock()
	shown := a.all()
	var fresh []string
	seen := make(map[string]struct{})
	for _, it := range shown {
		if it.Key == "" {
			continue
		}
		if _, ok := a.read[it.Key]; ok {
			continue
		}
		if _, ok := seen[it.Key]; ok {
			continue
		}
		seen[it.Key] = struct{}{}
		fresh = append(fresh, it.Key)
	}
	a.mu.Unlock()

	if len(fresh) > 0 {
		if err := a.reads.MarkRead(ctx, fresh); err != nil {
			return fmt.Errorf("persist read keys: %w", err)
		}
	}

	a.mu.Lock()
	for _, k := range fresh {
		a.read[k] = struct{}{}
	}
	marked := make(map[*Item]struct{}, len(shown))
	for _, it := range shown {
		marked[it] = struct{}{}
	}
	changed := false
	for _, it := range a.all() {
		if !it.Unread {
			continue
		}
		_, wasShown := marked[it]
		_, keyRead := a.read[it.Key]
		// опрос мог заменить элемент с уже сохранённым ключом
		if wasShown || (it.Key != "" && keyRead) {
			it.Unread = false
			changed = true
		}
	}
	notify := a.onChange
	a.mu.Unlock()

	if changed && notify != nil {
		notify()
	}
	return nil
}

// ClearPushed убирает все push и локальные уведомления. Результат опроса и набор прочитанных не меняются
func (a *Aggregator) ClearPushed() int {
	a.mu.Lock()
	n := len(a.pushed)
	a.pushed = nil
	notify := a.onChange
	a.mu.Unlock()

	if n > 0 && notify != nil {
		notify()
	}
	return n
}

// List копия списка: сначала push и локальные по порядку поступления, затем результат опроса
func (a *Aggregator) List() []Item {
	a.mu.Lock()
	defer a.mu.Unlock()

	all := a.all()
	out := make([]Item, len(all))
	for i, it := range all {
		out[i] = *it
	}
	return out
}

// UnreadCount число непрочитанных уведомлений (агрегат сообщений считается одним)
func (a *Aggregator) UnreadCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for _, it := range a.all() {
		if it.Unread {
			n++
		}
	}
	return n
}

// IsRead отмечен ли ключ прочитанным
func (a *Aggregator) IsRead(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.read[key]
	return ok
}

// all вызывать под a.mu
func (a *Aggregator) all() []*Item {
	out := make([]*Item, 0, len(a.pushed)+len(a.polled))
	out = append(out, a.pushed...)
	return append(out, a.polled...)
}
