package repository

import "errors"

var (
	// ErrActiveRequestExists у пары уже есть pending или accepted заявка
	ErrActiveRequestExists = errors.New("active connection request already exists")
	// ErrStaleStatus строка не в ожидаемом исходном статусе (или не существует)
	ErrStaleStatus = errors.New("status changed concurrently")
)
