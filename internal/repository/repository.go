package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// IsDuplicate reports whether err is a unique-constraint violation. The raw
// capacity-guarded insert bypasses gorm's error translation, so the driver
// message is checked as well.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

// DayWindow returns the [00:00, 24:00) bounds of the calendar day containing t.
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
