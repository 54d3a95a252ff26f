package callbacktypes

import (
	"fmt"
	"strconv"
	"strings"
)

// Action префикс callback data, до двоеточия
type Action string

const (
	ConnAccept   Action = "conn_accept"
	ConnReject   Action = "conn_reject"
	BookAccept   Action = "book_accept"
	BookReject   Action = "book_reject"
	BookSchedule Action = "book_schedule"
)

// Data собирает callback data вида "action:id"
func Data(action Action, id int64) string {
	return fmt.Sprintf("%s:%d", action, id)
}

// Parse разбирает callback data обратно в действие и ID
func Parse(data string) (Action, int64, error) {
	prefix, rawID, ok := strings.Cut(data, ":")
	if !ok || prefix == "" {
		return "", 0, fmt.Errorf("invalid callback data format: %q", data)
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("invalid callback id: %q", data)
	}

	return Action(prefix), id, nil
}
