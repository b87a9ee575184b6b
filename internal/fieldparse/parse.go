// Package fieldparse turns raw OCR tokens into typed date and time values,
// tolerating partial or garbled input.
package fieldparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNoDate indicates no plausible day number was found in the tokens.
// Non-fatal: the assembler falls back to positional row inference.
var ErrNoDate = errors.New("no valid day number in tokens")

// Plausibility window for year-month headers. Years outside it are treated
// as OCR noise rather than accepted silently.
const (
	yearMin = 2015
	yearMax = 2035
)

var (
	// "1日", "15日" — explicit day suffix wins over bare numbers.
	suffixedDayPattern = regexp.MustCompile(`(\d{1,2})日`)
	bareDayPattern     = regexp.MustCompile(`\b(\d{1,2})\b`)

	// Times tolerate full-width separators and a dot variant.
	timePattern = regexp.MustCompile(`(\d{1,2})[:：.．](\d{2})\b`)

	yearMonthPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月`),
		regexp.MustCompile(`(\d{4})[-./](\d{1,2})\b`),
	}
)

// digitConfusions maps characters Tesseract commonly substitutes for digits.
var digitConfusions = strings.NewReplacer(
	"l", "1", "I", "1", "|", "1",
	"O", "0", "o", "0",
	"S", "5", "s", "5",
	"B", "8",
	"Z", "2", "z", "2",
)

// RepairDigits rewrites common OCR digit confusions (l→1, O→0, ...).
func RepairDigits(s string) string {
	return digitConfusions.Replace(s)
}

// ParseDay extracts a day-of-month from OCR tokens, validated against the
// calendar range of the context year-month. A repaired number outside
// [1, daysInMonth] is rejected, never silently accepted.
func ParseDay(tokens []string, year int, month time.Month) (int, error) {
	text := RepairDigits(strings.Join(tokens, " "))
	limit := DaysInMonth(year, month)

	for _, pat := range []*regexp.Regexp{suffixedDayPattern, bareDayPattern} {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			day, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if day >= 1 && day <= limit {
				return day, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q (month has %d days)", ErrNoDate, text, limit)
}

// ParseTime extracts an "HH:MM" value from OCR tokens. A missing leading
// zero is tolerated; separator variants are accepted. Returns "" when no
// plausible time pattern exists — absence of a time is a normal outcome for
// a missing punch, not a parse failure.
func ParseTime(tokens []string) string {
	text := RepairDigits(strings.Join(tokens, " "))

	for _, m := range timePattern.FindAllStringSubmatch(text, -1) {
		hour, err1 := strconv.Atoi(m[1])
		minute, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			continue
		}
		if hour > 23 || minute > 59 {
			continue
		}
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}
	return ""
}

// ValidTime reports whether s is "" or a well-formed "HH:MM".
func ValidTime(s string) bool {
	if s == "" {
		return true
	}
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	hour, err1 := strconv.Atoi(s[:2])
	minute, err2 := strconv.Atoi(s[3:])
	return err1 == nil && err2 == nil && hour <= 23 && minute <= 59
}

// ExtractYearMonth finds a year-month header ("2025年09月", "2025-09",
// "2025.09", "2025/09") in the tokens. Values outside the plausibility
// window are ignored.
func ExtractYearMonth(tokens []string) (int, time.Month, bool) {
	text := RepairDigits(strings.Join(tokens, " "))

	for _, pat := range yearMonthPatterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			year, err1 := strconv.Atoi(m[1])
			month, err2 := strconv.Atoi(m[2])
			if err1 != nil || err2 != nil {
				continue
			}
			if year >= yearMin && year <= yearMax && month >= 1 && month <= 12 {
				return year, time.Month(month), true
			}
		}
	}
	return 0, 0, false
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
