package state

import (
	"sync"
	"time"
)

// DefaultTTL время, после которого брошенный диалог считается истёкшим
const DefaultTTL = 30 * time.Minute

// Manager управляет состояниями пользователей
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData // telegramID -> UserData
	ttl    time.Duration
	now    func() time.Time
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]*UserData),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
}

// GetState получает текущее состояние пользователя
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, ok := sm.live(telegramID); ok {
		return userData.State
	}
	return StateNone
}

// SetState устанавливает состояние пользователя, черновик сохраняется
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		delete(sm.states, telegramID)
		return
	}

	userData, ok := sm.live(telegramID)
	if !ok {
		userData = &UserData{}
		sm.states[telegramID] = userData
	}
	userData.State = state
	userData.UpdatedAt = sm.now()
}

// StartSchedule начинает диалог назначения встречи с чистым черновиком
func (sm *Manager) StartSchedule(telegramID, bookingID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.states[telegramID] = &UserData{
		State:     StateScheduleDateTime,
		Draft:     ScheduleDraft{BookingID: bookingID},
		UpdatedAt: sm.now(),
	}
}

// Draft возвращает копию черновика
func (sm *Manager) Draft(telegramID int64) (ScheduleDraft, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, ok := sm.live(telegramID); ok {
		return userData.Draft, true
	}
	return ScheduleDraft{}, false
}

// Advance применяет изменение к черновику и переводит диалог в следующее состояние
func (sm *Manager) Advance(telegramID int64, next UserState, update func(*ScheduleDraft)) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	userData, ok := sm.live(telegramID)
	if !ok {
		return false
	}
	if update != nil {
		update(&userData.Draft)
	}
	userData.State = next
	userData.UpdatedAt = sm.now()
	return true
}

// ClearState очищает состояние и данные пользователя
func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, telegramID)
}

// live вызывается под блокировкой; истёкшие записи считаются отсутствующими
func (sm *Manager) live(telegramID int64) (*UserData, bool) {
	userData, ok := sm.states[telegramID]
	if !ok {
		return nil, false
	}
	if sm.ttl > 0 && sm.now().Sub(userData.UpdatedAt) > sm.ttl {
		return nil, false
	}
	return userData, true
}
