// Package workday classifies calendar days as workdays, rest days, or
// holidays, honoring statutory holidays and make-up workday overrides.
package workday

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"attendance-scanner/internal/attendance"
)

// Calendar holds the holiday and workday-override sets, keyed by year.
// Precedence: override > holiday > natural rule. The natural rule: Sunday
// through Friday are workdays, Saturday is the rest day.
type Calendar struct {
	holidays  map[int]map[string]bool
	overrides map[int]map[string]bool
}

// yearEntry is the per-year block of the JSON config:
//
//	{"2024": {"holidays": ["2024-01-01", ...], "workdays": ["2024-02-04", ...]}}
type yearEntry struct {
	Holidays []string `json:"holidays,omitempty"`
	Workdays []string `json:"workdays,omitempty"`
}

// NewCalendar returns an empty calendar using only the natural rule.
func NewCalendar() *Calendar {
	return &Calendar{
		holidays:  make(map[int]map[string]bool),
		overrides: make(map[int]map[string]bool),
	}
}

// Load reads a holiday config file. A missing file yields an empty calendar,
// not an error: the natural rule alone is a valid configuration.
func Load(path string) (*Calendar, error) {
	c := NewCalendar()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]yearEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse holiday config %s: %w", path, err)
	}

	for yearStr, entry := range raw {
		var year int
		if _, err := fmt.Sscanf(yearStr, "%d", &year); err != nil {
			return nil, fmt.Errorf("invalid year key %q in %s", yearStr, path)
		}
		for _, d := range entry.Holidays {
			if err := c.addDate(c.holidays, year, d); err != nil {
				return nil, err
			}
		}
		for _, d := range entry.Workdays {
			if err := c.addDate(c.overrides, year, d); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// Save writes the calendar back to a JSON config file.
func (c *Calendar) Save(path string) error {
	raw := make(map[string]yearEntry)
	years := make(map[int]bool)
	for y := range c.holidays {
		years[y] = true
	}
	for y := range c.overrides {
		years[y] = true
	}
	for y := range years {
		entry := yearEntry{
			Holidays: sortedDates(c.holidays[y]),
			Workdays: sortedDates(c.overrides[y]),
		}
		raw[fmt.Sprintf("%d", y)] = entry
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// AddHoliday marks a date as a statutory holiday.
func (c *Calendar) AddHoliday(date time.Time) {
	c.put(c.holidays, date)
}

// AddWorkdayOverride marks a date as a make-up workday.
func (c *Calendar) AddWorkdayOverride(date time.Time) {
	c.put(c.overrides, date)
}

// IsHoliday reports whether the date is a statutory holiday.
func (c *Calendar) IsHoliday(date time.Time) bool {
	return c.holidays[date.Year()][dateKey(date)]
}

// IsWorkday reports whether the date is a workday, considering overrides,
// holidays, and the natural rule, in that order.
func (c *Calendar) IsWorkday(date time.Time) bool {
	if c.overrides[date.Year()][dateKey(date)] {
		return true
	}
	if c.IsHoliday(date) {
		return false
	}
	return date.Weekday() != time.Saturday
}

// DayType classifies the date for the attendance model.
func (c *Calendar) DayType(date time.Time) attendance.DayType {
	if c.IsHoliday(date) {
		return attendance.DayHoliday
	}
	if c.IsWorkday(date) {
		return attendance.DayWorkday
	}
	return attendance.DayRest
}

// WorkdaysInMonth returns every workday of the given month in order.
func (c *Calendar) WorkdaysInMonth(year int, month time.Month) []time.Time {
	var days []time.Time
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	for day := 1; day <= last; day++ {
		d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if c.IsWorkday(d) {
			days = append(days, d)
		}
	}
	return days
}

func (c *Calendar) put(set map[int]map[string]bool, date time.Time) {
	year := date.Year()
	if set[year] == nil {
		set[year] = make(map[string]bool)
	}
	set[year][dateKey(date)] = true
}

func (c *Calendar) addDate(set map[int]map[string]bool, year int, s string) error {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	if set[year] == nil {
		set[year] = make(map[string]bool)
	}
	set[year][dateKey(d)] = true
	return nil
}

func dateKey(d time.Time) string {
	return d.Format("2006-01-02")
}

func sortedDates(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
