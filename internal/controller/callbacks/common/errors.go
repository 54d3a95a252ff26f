package common

import (
	"errors"

	"github.com/Freeeeeet/mentorship_hub/internal/service"
)

// Общие ошибки для обработчиков
var (
	ErrUserNotLinked = errors.New("telegram account is not linked")
	ErrNoMessage     = errors.New("no message in callback")
	ErrInvalidFormat = errors.New("invalid callback format")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrUserNotLinked):
		return "❌ Telegram не привязан к аккаунту. Используйте /start"
	case errors.Is(err, ErrNoMessage):
		return "❌ Ошибка обработки сообщения"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Неверный формат данных"
	case errors.Is(err, service.ErrNotFound):
		return "❌ Не найдено"
	case errors.Is(err, service.ErrForbidden):
		return "❌ Нет доступа"
	case errors.Is(err, service.ErrInvalidTransition):
		return "⚠️ На этот запрос уже ответили"
	case errors.Is(err, service.ErrConflict):
		return "⚠️ Конфликт: запрос уже обработан"
	case errors.Is(err, service.ErrValidation):
		return "❌ Некорректные данные: " + err.Error()
	default:
		return "❌ Произошла ошибка"
	}
}
