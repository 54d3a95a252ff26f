package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	previewLength     = 50
	sessionTimeLayout = "02 Jan 2006 15:04"
)

// Collaborators запросы, из которых опрос выводит уведомления
type Collaborators interface {
	Inbox(ctx context.Context, userID int64) ([]*model.Message, error)
	StudentSessions(ctx context.Context, studentID int64) ([]*model.Booking, error)
	MentorBookingRequests(ctx context.Context, mentorID int64) ([]*model.Booking, error)
	MentorRequests(ctx context.Context, mentorID int64, pendingOnly bool) ([]*model.ConnectionRequest, error)
}

type scanStep struct {
	name string
	scan func(ctx context.Context) ([]*Item, error)
}

// Poll один цикл опроса. Порядок: сообщения, встречи, бронирования, заявки.
// Ошибка одного коллаборатора не прерывает остальные, результат частичный.
// Возвращает объединённые ошибки цикла
func (a *Aggregator) Poll(ctx context.Context) error {
	var errs []error
	var candidates []*Item

	for _, step := range a.steps() {
		items, err := step.scan(ctx)
		if err != nil {
			a.logger.Warn("Notification poll step failed", zap.String("step", step.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
			continue
		}
		candidates = append(candidates, items...)
	}

	a.replacePolled(candidates)
	return errors.Join(errs...)
}

func (a *Aggregator) steps() []scanStep {
	steps := []scanStep{{name: "messages", scan: a.scanMessages}}

	switch a.role {
	case model.RoleStudent:
		steps = append(steps, scanStep{name: "sessions", scan: a.scanSessions})
	case model.RoleMentor:
		steps = append(steps,
			scanStep{name: "bookings", scan: a.scanBookingRequests},
			scanStep{name: "connections", scan: a.scanConnectionRequests},
		)
	}
	return steps
}

// replacePolled заменяет результат опроса целиком. Уже прочитанные ключи отбрасываются,
// уведомление с тем же ключом сохраняет свой id между циклами
func (a *Aggregator) replacePolled(candidates []*Item) {
	a.mu.Lock()
	previous := make(map[string]*Item, len(a.polled))
	for _, it := range a.polled {
		previous[it.Key] = it
	}

	polled := make([]*Item, 0, len(candidates))
	for _, it := range candidates {
		if _, read := a.read[it.Key]; read {
			continue
		}
		if prev, ok := previous[it.Key]; ok {
			it.ID = prev.ID
			it.CreatedAt = prev.CreatedAt
		} else {
			it.ID = uuid.New()
			it.CreatedAt = a.now()
		}
		it.Unread = true
		it.Source = SourcePoll
		polled = append(polled, it)
	}
	a.polled = polled
	notify := a.onChange
	a.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// scanMessages один агрегат на все непросмотренные сообщения
func (a *Aggregator) scanMessages(ctx context.Context) ([]*Item, error) {
	inbox, err := a.source.Inbox(ctx, a.userID)
	if err != nil {
		return nil, err
	}

	var unseen []*model.Message
	for _, m := range inbox {
		if !m.Seen() {
			unseen = append(unseen, m)
		}
	}
	if len(unseen) == 0 {
		return nil, nil
	}

	item := &Item{
		Key:   MessagesKey,
		Kind:  KindMessage,
		Count: len(unseen),
	}
	if len(unseen) == 1 {
		item.Title = "1 New Message"
		item.Description = preview(unseen[0].Content)
	} else {
		item.Title = fmt.Sprintf("%d New Messages", len(unseen))
		item.Description = fmt.Sprintf("%d unread messages", len(unseen))
	}
	return []*Item{item}, nil
}

func (a *Aggregator) scanSessions(ctx context.Context) ([]*Item, error) {
	sessions, err := a.source.StudentSessions(ctx, a.userID)
	if err != nil {
		return nil, err
	}

	items := make([]*Item, 0, len(sessions))
	for _, s := range sessions {
		title := "Scheduled Session"
		if s.Status == model.BookingStatusAccepted {
			title = "Session Accepted"
		}
		items = append(items, &Item{
			Key:         SessionKey(s.ID),
			Kind:        KindSession,
			Title:       title,
			Description: fmt.Sprintf("Session on %s", s.EffectiveTime().Format(sessionTimeLayout)),
		})
	}
	return items, nil
}

func (a *Aggregator) scanBookingRequests(ctx context.Context) ([]*Item, error) {
	bookings, err := a.source.MentorBookingRequests(ctx, a.userID)
	if err != nil {
		return nil, err
	}

	items := make([]*Item, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, &Item{
			Key:         BookingKey(b.ID),
			Kind:        KindBooking,
			Title:       "Booking Request",
			Description: fmt.Sprintf("From %s for %s", nameOr(b.StudentName, b.StudentID), b.Topic),
		})
	}
	return items, nil
}

func (a *Aggregator) scanConnectionRequests(ctx context.Context) ([]*Item, error) {
	requests, err := a.source.MentorRequests(ctx, a.userID, true)
	if err != nil {
		return nil, err
	}

	items := make([]*Item, 0, len(requests))
	for _, r := range requests {
		items = append(items, &Item{
			Key:         ConnectionKey(r.ID),
			Kind:        KindConnection,
			Title:       "Connection Request",
			Description: fmt.Sprintf("From %s", nameOr(r.StudentName, r.StudentID)),
		})
	}
	return items, nil
}

func nameOr(name string, id int64) string {
	if name != "" {
		return name
	}
	return model.FallbackName(id)
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}
