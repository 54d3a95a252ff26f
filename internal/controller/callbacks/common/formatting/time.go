package formatting

import (
	"fmt"
	"strings"
	"time"
)

// DateTimeLayout формат, в котором бот показывает и принимает дату и время
const DateTimeLayout = "02.01.2006 15:04"

// FormatDateTime форматирует дату и время
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// ParseDateTime разбирает ввод пользователя в формате ДД.ММ.ГГГГ ЧЧ:ММ
func ParseDateTime(input string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateTimeLayout, strings.TrimSpace(input), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date time %q: %w", input, err)
	}
	return t, nil
}
