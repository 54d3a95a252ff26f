package api

import (
	"errors"
	"fmt"
)

// HTTPError ответ API со статусом не из 2xx
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus true, если err (или обёрнутая в нём ошибка) это HTTPError с нужным кодом
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}
