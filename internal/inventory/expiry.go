// AngelaMos | 2026
// expiry.go

package inventory

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/carterperez-dev/shelflife/internal/core"
)

const DateLayout = "2006-01-02"

type Status string

const (
	StatusExpired Status = "expired"
	StatusToday   Status = "today"
	StatusWeek    Status = "week"
	StatusMonth   Status = "month"
	StatusNormal  Status = "normal"
)

// Date truncates t to its calendar date, expressed as midnight UTC so that
// day arithmetic never crosses a DST change.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is the current calendar date in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Date(now.In(loc))
}

// DaysUntil is ceil((expiry - today) / 1 day) on calendar dates.
func DaysUntil(expiry, today time.Time) int {
	diff := Date(expiry).Sub(Date(today))
	return int(math.Ceil(diff.Hours() / 24))
}

func Classify(days int) Status {
	switch {
	case days < 0:
		return StatusExpired
	case days == 0:
		return StatusToday
	case days <= 7:
		return StatusWeek
	case days <= 30:
		return StatusMonth
	default:
		return StatusNormal
	}
}

type Filter string

const (
	FilterAll   Filter = "all"
	FilterToday Filter = "today"
	FilterWeek  Filter = "week"
	FilterMonth Filter = "month"
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterToday, FilterWeek, FilterMonth:
		return f, nil
	}
	return "", fmt.Errorf("unknown filter %q: %w", s, core.ErrInvalidInput)
}

// Match reports whether an item days away from expiry falls in the
// window. Windows start today, so expired items only show under all.
func (f Filter) Match(days int) bool {
	switch f {
	case FilterToday:
		return days == 0
	case FilterWeek:
		return days >= 0 && days <= 7
	case FilterMonth:
		return days >= 0 && days <= 30
	default:
		return true
	}
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("expiry_date must be YYYY-MM-DD: %w", core.ErrInvalidInput)
	}
	return t, nil
}
