package model

import "time"

// ConnectionStatus статус заявки студента к ментору
type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"  // Ожидает ответа ментора
	ConnectionStatusAccepted ConnectionStatus = "accepted" // Принята ментором
	ConnectionStatusRejected ConnectionStatus = "rejected" // Отклонена ментором

	// ConnectionStatusNone возвращается, если у пары ещё не было ни одной заявки
	ConnectionStatusNone ConnectionStatus = "none"
)

// DefaultConnectionMessage подставляется, если студент не написал сообщение
const DefaultConnectionMessage = "I would like to connect with you."

// ConnectionRequest заявка студента на менторство
type ConnectionRequest struct {
	ID        int64            `json:"id"`
	StudentID int64            `json:"student_id"`
	MentorID  int64            `json:"mentor_id"`
	Status    ConnectionStatus `json:"status"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`

	// Дополнительные поля для отображения (не из таблицы заявок)
	StudentName string `json:"student_name,omitempty"`
	MentorName  string `json:"mentor_name,omitempty"`
}

// IsPending проверяет, ожидает ли заявка ответа
func (r *ConnectionRequest) IsPending() bool {
	return r.Status == ConnectionStatusPending
}

// IsActive заявка блокирует создание новой для той же пары
func (r *ConnectionRequest) IsActive() bool {
	return r.Status.IsActive()
}

// IsActive pending и accepted считаются активными для пары
func (s ConnectionStatus) IsActive() bool {
	return s == ConnectionStatusPending || s == ConnectionStatusAccepted
}

// IsTerminal из accepted и rejected переходов нет
func (s ConnectionStatus) IsTerminal() bool {
	return s == ConnectionStatusAccepted || s == ConnectionStatusRejected
}

// IsDecision проверяет, что статус является допустимым ответом ментора
func (s ConnectionStatus) IsDecision() bool {
	return s == ConnectionStatusAccepted || s == ConnectionStatusRejected
}

// CanTransitionTo pending -> {accepted, rejected}, остальные переходы запрещены
func (s ConnectionStatus) CanTransitionTo(next ConnectionStatus) bool {
	return s == ConnectionStatusPending && next.IsDecision()
}
