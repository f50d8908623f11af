package syntax

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date written Y/M/D in source (e.g. "2024/1/5" or
// "2024-01-05"); either '/' or '-' separates the components, and month/day
// may be one or two digits, unlike beancount's fixed YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate parses a Y/M/D date, accepting '-' or '/' separators.
func ParseDate(s string) (Date, error) {
	sep := "/"
	if strings.Contains(s, "-") {
		sep = "-"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date %q: want Y%sM%sD", s, sep, sep)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return Date{}, fmt.Errorf("invalid date %q: bad month", s)
	}
	d, err := strconv.Atoi(parts[2])
	if err != nil || d < 1 || d > 31 {
		return Date{}, fmt.Errorf("invalid date %q: bad day", s)
	}
	return Date{time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)}, nil
}

// String renders the date in canonical Y/M/D form.
func (d Date) String() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year(), int(d.Month()), d.Day())
}

// IsZero is nil-safe so callers can check an optional *Date cheaply.
func (d *Date) IsZero() bool {
	return d == nil || d.Time.IsZero()
}
