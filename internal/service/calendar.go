package service

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/msomdec/birthday-bot/internal/domain"
)

//go:embed calendar.jsonc
var defaultCalendar []byte

// Calendar is the immutable month to day-count table used to validate
// and render day selections.
type Calendar struct {
	months []string
	days   map[string]int
}

// LoadCalendar reads a JSONC calendar file. An empty path loads the
// embedded default table.
func LoadCalendar(path string) (*Calendar, error) {
	if path == "" {
		return ParseCalendar(defaultCalendar)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calendar %s: %w", path, err)
	}
	cal, err := ParseCalendar(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cal, nil
}

// ParseCalendar parses a JSONC document mapping month names to day counts.
// All twelve months must be present with 28 to 31 days each.
func ParseCalendar(data []byte) (*Calendar, error) {
	var raw map[string]int
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("%w: parse calendar: %v", domain.ErrConfiguration, err)
	}

	cal := &Calendar{days: make(map[string]int, 12)}
	for m := time.January; m <= time.December; m++ {
		name := m.String()
		count, ok := raw[name]
		if !ok {
			return nil, fmt.Errorf("%w: calendar is missing %s", domain.ErrConfiguration, name)
		}
		if count < 28 || count > 31 {
			return nil, fmt.Errorf("%w: %s has %d days", domain.ErrConfiguration, name, count)
		}
		cal.months = append(cal.months, name)
		cal.days[name] = count
	}
	if len(raw) != len(cal.days) {
		for name := range raw {
			if _, ok := cal.days[name]; !ok {
				return nil, fmt.Errorf("%w: unknown month %q in calendar", domain.ErrConfiguration, name)
			}
		}
	}
	return cal, nil
}

// Months returns the month names in calendar order.
func (c *Calendar) Months() []string {
	return append([]string(nil), c.months...)
}

// MonthExists reports whether name is a known month.
func (c *Calendar) MonthExists(name string) bool {
	_, ok := c.days[name]
	return ok
}

// DayCount returns the number of selectable days in month.
func (c *Calendar) DayCount(month string) (int, bool) {
	n, ok := c.days[month]
	return n, ok
}

// IsValidDay reports whether day falls within month.
func (c *Calendar) IsValidDay(month string, day int) bool {
	n, ok := c.days[month]
	return ok && day >= 1 && day <= n
}

// ParseDay converts a submitted day value to an integer. Only positive
// integer-like values are accepted: "5" and "5.0" pass, "5.5" does not.
func ParseDay(value string) (int, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: day %q is not a number", domain.ErrInvalidInput, value)
	}
	if v != math.Trunc(v) || v < 1 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: day %q is not a positive integer", domain.ErrInvalidInput, value)
	}
	return int(v), nil
}
