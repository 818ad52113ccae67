package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
)

const (
	// DateLayout keys daily artifacts.
	DateLayout = "2006-01-02"

	daysPerWeek = 7
	maxISOWeek  = 53
)

var weekPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// WeekString returns the ISO week key (YYYY-WNN) containing t.
func WeekString(t time.Time) string {
	year, week := t.ISOWeek()

	return fmt.Sprintf("%d-W%02d", year, week)
}

// ParseWeek returns the Monday (00:00, in loc) that starts the given ISO week.
func ParseWeek(week string, loc *time.Location) (time.Time, error) {
	m := weekPattern.FindStringSubmatch(week)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidWeek, week)
	}

	year, _ := strconv.Atoi(m[1]) //nolint:errcheck // guaranteed digits by the pattern
	num, _ := strconv.Atoi(m[2])  //nolint:errcheck // guaranteed digits by the pattern

	if num < 1 || num > maxISOWeek {
		return time.Time{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidWeek, week)
	}

	if loc == nil {
		loc = time.UTC
	}

	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	offset := (int(jan4.Weekday()) + daysPerWeek - 1) % daysPerWeek
	monday := jan4.AddDate(0, 0, -offset+(num-1)*daysPerWeek)

	if y, w := monday.ISOWeek(); y != year || w != num {
		return time.Time{}, fmt.Errorf("%w: %q has no such week", apperrors.ErrInvalidWeek, week)
	}

	return monday, nil
}

// WeekDays returns the seven calendar dates of the week starting at monday.
func WeekDays(monday time.Time) []string {
	days := make([]string, 0, daysPerWeek)

	for i := 0; i < daysPerWeek; i++ {
		days = append(days, monday.AddDate(0, 0, i).Format(DateLayout))
	}

	return days
}
