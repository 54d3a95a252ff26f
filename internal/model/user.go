package model

import "time"

type Role string

const (
	RoleStudent  Role = "student"
	RoleMentor   Role = "mentor"
	RoleAlumni   Role = "alumni"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

// IsValid проверяет, что роль известна платформе
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleMentor, RoleAlumni, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	TelegramID *int64    `json:"telegram_id,omitempty"` // nil - Telegram не привязан
	CreatedAt  time.Time `json:"created_at"`
}

// DisplayName имя для уведомлений: full_name, потом name, потом "User <id>"
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Name != "" {
		return u.Name
	}
	return FallbackName(u.ID)
}
