// Package attendance defines the monthly attendance data model and the
// record assembler that owns it.
package attendance

import (
	"encoding/json"
	"fmt"
	"time"
)

// ClockStatus is the state of a single punch.
type ClockStatus int

const (
	StatusMissing ClockStatus = iota
	StatusNormal
	StatusAbnormal
)

func (s ClockStatus) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusAbnormal:
		return "abnormal"
	default:
		return "missing"
	}
}

// ParseClockStatus converts a status name back to its enum value.
func ParseClockStatus(s string) (ClockStatus, error) {
	switch s {
	case "normal":
		return StatusNormal, nil
	case "abnormal":
		return StatusAbnormal, nil
	case "missing":
		return StatusMissing, nil
	}
	return 0, fmt.Errorf("invalid clock status: %q", s)
}

// MarshalJSON encodes the status as its name.
func (s ClockStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name.
func (s *ClockStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, err := ParseClockStatus(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// DayType classifies a calendar day independent of punch status.
type DayType int

const (
	DayWorkday DayType = iota
	DayRest
	DayHoliday
)

func (t DayType) String() string {
	switch t {
	case DayRest:
		return "rest_day"
	case DayHoliday:
		return "holiday"
	default:
		return "workday"
	}
}

// ParseDayType converts a day-type name back to its enum value.
func ParseDayType(s string) (DayType, error) {
	switch s {
	case "workday":
		return DayWorkday, nil
	case "rest_day":
		return DayRest, nil
	case "holiday":
		return DayHoliday, nil
	}
	return 0, fmt.Errorf("invalid day type: %q", s)
}

// MarshalJSON encodes the day type as its name.
func (t DayType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a day-type name.
func (t *DayType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, err := ParseDayType(name)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ClockRecord is one punch slot. Time is "HH:MM" or empty. A missing status
// always has an empty time; Confidence carries the dot classifier's trust so
// the UI can flag entries needing manual review.
type ClockRecord struct {
	Time       string      `json:"time,omitempty"`
	Status     ClockStatus `json:"status"`
	Confidence float64     `json:"confidence"`
}

// DailyAttendance is one calendar day of the month.
//
// The weekday is never stored: it is always derived from Date via Weekday().
// Confirmed starts false and is set only by an explicit user action.
type DailyAttendance struct {
	Date         time.Time   `json:"date"`
	DayType      DayType     `json:"day_type"`
	ClockIn      ClockRecord `json:"clock_in"`
	ClockOut     ClockRecord `json:"clock_out"`
	Confirmed    bool        `json:"is_confirmed"`
	DateInferred bool        `json:"date_inferred,omitempty"` // date came from row position, not OCR
}

// Weekday returns the day of week computed from Date.
func (d DailyAttendance) Weekday() time.Weekday {
	return d.Date.Weekday()
}

// DateString returns the date as "YYYY-MM-DD".
func (d DailyAttendance) DateString() string {
	return d.Date.Format("2006-01-02")
}

// NeedsReview reports whether any slot was extracted with low trust.
func (d DailyAttendance) NeedsReview() bool {
	const trust = 0.8
	return d.DateInferred || d.ClockIn.Confidence < trust || d.ClockOut.Confidence < trust
}

// Statistics are derived, read-only counts recomputed whenever the days
// change. Never persisted independently of the data they summarize.
type Statistics struct {
	TotalDays        int     `json:"total_days"`
	WorkDays         int     `json:"work_days"`
	RestDays         int     `json:"rest_days"`
	HolidayDays      int     `json:"holiday_days"`
	NormalClockIn    int     `json:"normal_clock_in"`
	AbnormalClockIn  int     `json:"abnormal_clock_in"`
	NormalClockOut   int     `json:"normal_clock_out"`
	AbnormalClockOut int     `json:"abnormal_clock_out"`
	PresentDays      int     `json:"present_days"`
	AbsentDays       int     `json:"absent_days"`
	ConfirmedDays    int     `json:"confirmed_days"`
	AttendanceRate   float64 `json:"attendance_rate"`
}

// MonthlyAttendance holds every calendar day of one month, exactly once,
// sorted ascending, plus derived statistics. It exclusively owns its days;
// all edits go through the Assembler.
type MonthlyAttendance struct {
	Year       int               `json:"year"`
	Month      time.Month        `json:"month"`
	Days       []DailyAttendance `json:"days"`
	Statistics Statistics        `json:"statistics"`
}

// YearMonth returns the month identity as "YYYY-MM".
func (m *MonthlyAttendance) YearMonth() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Day returns the entry for the given day of month (1-based).
func (m *MonthlyAttendance) Day(day int) (DailyAttendance, error) {
	if day < 1 || day > len(m.Days) {
		return DailyAttendance{}, fmt.Errorf("day %d out of range for %s", day, m.YearMonth())
	}
	return m.Days[day-1], nil
}

// computeStatistics derives the statistics from a day sequence. Idempotent:
// repeated calls over unchanged days yield identical results.
func computeStatistics(days []DailyAttendance) Statistics {
	s := Statistics{TotalDays: len(days)}

	normalWorkdays := 0
	for _, d := range days {
		switch d.DayType {
		case DayWorkday:
			s.WorkDays++
		case DayRest:
			s.RestDays++
		case DayHoliday:
			s.HolidayDays++
		}

		switch d.ClockIn.Status {
		case StatusNormal:
			s.NormalClockIn++
		case StatusAbnormal:
			s.AbnormalClockIn++
		}
		switch d.ClockOut.Status {
		case StatusNormal:
			s.NormalClockOut++
		case StatusAbnormal:
			s.AbnormalClockOut++
		}

		present := d.ClockIn.Status != StatusMissing || d.ClockOut.Status != StatusMissing
		if present {
			s.PresentDays++
		} else if d.DayType == DayWorkday {
			s.AbsentDays++
		}

		if d.DayType == DayWorkday &&
			d.ClockIn.Status == StatusNormal && d.ClockOut.Status == StatusNormal {
			normalWorkdays++
		}

		if d.Confirmed {
			s.ConfirmedDays++
		}
	}

	if s.WorkDays > 0 {
		s.AttendanceRate = float64(normalWorkdays) / float64(s.WorkDays)
	}
	return s
}
