package attendance

import (
	"fmt"
	"log"
	"sync"
	"time"

	"attendance-scanner/internal/dot"
	"attendance-scanner/internal/fieldparse"
)

// PunchObservation pairs the dot classification for one punch slot with the
// time parsed from the aligned text cell.
type PunchObservation struct {
	Dot  dot.Observation
	Time string // parsed "HH:MM", empty when no plausible time was found
}

// RowObservation carries the extracted observations for one data row.
type RowObservation struct {
	Row      int // 1-based data row index; row k maps to day k as fallback
	Day      int // day of month parsed from the date column, 0 on parse failure
	ClockIn  PunchObservation
	ClockOut PunchObservation
}

// Field names accepted by UpdateField.
type Field string

const (
	FieldClockInTime    Field = "clock_in.time"
	FieldClockInStatus  Field = "clock_in.status"
	FieldClockOutTime   Field = "clock_out.time"
	FieldClockOutStatus Field = "clock_out.status"
	FieldDayType        Field = "day_type"
)

// EventType identifies assembler events.
type EventType int

const (
	EventAssembled EventType = iota
	EventDayUpdated
	EventDayConfirmed
)

// Listener is called after a mutation has been committed.
type Listener func(data interface{})

// Service is the capability boundary a presentation layer calls through.
// There is no reverse dependency: the assembler never calls back into UI code
// except via registered listeners.
type Service interface {
	Assemble(year int, month time.Month, rows []RowObservation) (*MonthlyAttendance, error)
	UpdateField(date string, field Field, value string) error
	Confirm(date string) error
	Statistics() Statistics
}

// Assembler combines per-cell extraction results into a validated month and
// is the single writer for all subsequent edits. Mutations serialize through
// one mutex so statistics always reflect the latest committed days, never a
// partial edit.
type Assembler struct {
	mu        sync.Mutex
	month     *MonthlyAttendance
	dayType   func(time.Time) DayType
	listeners map[EventType][]Listener
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithDayTypes supplies the day-type classifier (typically a workday
// calendar). Without it, Saturdays default to rest days and everything else
// to workdays.
func WithDayTypes(fn func(time.Time) DayType) Option {
	return func(a *Assembler) { a.dayType = fn }
}

// NewAssembler creates an assembler with no month loaded yet.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		dayType:   naturalDayType,
		listeners: make(map[EventType][]Listener),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// naturalDayType is the default rule when no calendar is configured:
// Saturday is the rest day, every other day is a workday.
func naturalDayType(d time.Time) DayType {
	if d.Weekday() == time.Saturday {
		return DayRest
	}
	return DayWorkday
}

// On registers an event listener.
func (a *Assembler) On(event EventType, listener Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners[event] = append(a.listeners[event], listener)
}

func (a *Assembler) emit(event EventType, data interface{}) {
	a.mu.Lock()
	listeners := a.listeners[event]
	a.mu.Unlock()
	for _, l := range listeners {
		l(data)
	}
}

// Assemble builds the month from per-row observations. Every calendar day of
// the month appears exactly once; rows whose date column failed to parse fall
// back to positional inference (row k means day k), and days with no row at
// all are recorded as missing with zero confidence so they surface for review.
func (a *Assembler) Assemble(year int, month time.Month, rows []RowObservation) (*MonthlyAttendance, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month: %d", month)
	}
	if year < 1 {
		return nil, fmt.Errorf("invalid year: %d", year)
	}

	numDays := fieldparse.DaysInMonth(year, month)
	days := make([]DailyAttendance, numDays)
	for i := range days {
		date := time.Date(year, month, i+1, 0, 0, 0, 0, time.UTC)
		days[i] = DailyAttendance{
			Date:    date,
			DayType: a.dayType(date),
		}
	}

	claimed := make(map[int]bool)
	for _, r := range rows {
		day := r.Day
		inferred := false
		if day < 1 || day > numDays {
			// Grid row order is a reliable secondary signal.
			day = r.Row
			inferred = true
		}
		if day < 1 || day > numDays {
			log.Printf("assemble: row %d maps to no calendar day in %04d-%02d, skipping", r.Row, year, month)
			continue
		}
		if claimed[day] {
			log.Printf("assemble: duplicate extraction for day %d, keeping first", day)
			continue
		}
		claimed[day] = true

		d := &days[day-1]
		d.DateInferred = inferred
		d.ClockIn = buildClockRecord(r.ClockIn)
		d.ClockOut = buildClockRecord(r.ClockOut)
	}

	m := &MonthlyAttendance{
		Year:  year,
		Month: month,
		Days:  days,
	}
	m.Statistics = computeStatistics(m.Days)

	a.mu.Lock()
	a.month = m
	a.mu.Unlock()

	snapshot := a.Month()
	a.emit(EventAssembled, snapshot)
	return snapshot, nil
}

// buildClockRecord derives a punch record from its observations. Status
// comes from the dot alone: green means normal, gray abnormal, absence
// missing. The time is taken only when the status is not missing, and a
// failed time parse never forces a present punch to missing.
func buildClockRecord(p PunchObservation) ClockRecord {
	rec := ClockRecord{Confidence: p.Dot.Confidence}
	if !p.Dot.Present {
		rec.Status = StatusMissing
		return rec
	}
	if p.Dot.Color == dot.ColorGreen {
		rec.Status = StatusNormal
	} else {
		rec.Status = StatusAbnormal
	}
	rec.Time = p.Time
	return rec
}

// Month returns a snapshot of the current month, or nil before Assemble.
func (a *Assembler) Month() *MonthlyAttendance {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.month == nil {
		return nil
	}
	clone := *a.month
	clone.Days = make([]DailyAttendance, len(a.month.Days))
	copy(clone.Days, a.month.Days)
	return &clone
}

// Statistics returns the current derived statistics.
func (a *Assembler) Statistics() Statistics {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.month == nil {
		return Statistics{}
	}
	return a.month.Statistics
}

// UpdateField applies a manual correction to one field of one day and
// recomputes statistics. It never touches the confirmation flag: confirming
// is a separate, explicit action.
func (a *Assembler) UpdateField(date string, field Field, value string) error {
	a.mu.Lock()

	d, err := a.dayLocked(date)
	if err == nil {
		switch field {
		case FieldClockInTime:
			err = setTime(&d.ClockIn, value)
		case FieldClockOutTime:
			err = setTime(&d.ClockOut, value)
		case FieldClockInStatus:
			err = setStatus(&d.ClockIn, value)
		case FieldClockOutStatus:
			err = setStatus(&d.ClockOut, value)
		case FieldDayType:
			var t DayType
			if t, err = ParseDayType(value); err == nil {
				d.DayType = t
			}
		default:
			err = fmt.Errorf("field %q is not editable", field)
		}
	}
	if err != nil {
		a.mu.Unlock()
		return err
	}

	a.month.Statistics = computeStatistics(a.month.Days)
	snapshot := *d
	a.mu.Unlock()

	a.emit(EventDayUpdated, snapshot)
	return nil
}

// setTime edits a punch time. A missing punch cannot carry a time; its
// status must be corrected first.
func setTime(rec *ClockRecord, value string) error {
	if !fieldparse.ValidTime(value) {
		return fmt.Errorf("invalid time %q, want HH:MM", value)
	}
	if rec.Status == StatusMissing && value != "" {
		return fmt.Errorf("cannot set a time on a missing punch; update its status first")
	}
	rec.Time = value
	return nil
}

// setStatus edits a punch status. Setting missing clears the time so the
// missing-implies-no-time invariant holds.
func setStatus(rec *ClockRecord, value string) error {
	s, err := ParseClockStatus(value)
	if err != nil {
		return err
	}
	rec.Status = s
	if s == StatusMissing {
		rec.Time = ""
	}
	return nil
}

// Confirm marks a day as user-confirmed. It changes nothing else and never
// re-validates the data: confirmation is a user assertion, not a
// recomputation trigger.
func (a *Assembler) Confirm(date string) error {
	a.mu.Lock()
	d, err := a.dayLocked(date)
	if err != nil {
		a.mu.Unlock()
		return err
	}
	d.Confirmed = true
	a.month.Statistics = computeStatistics(a.month.Days)
	snapshot := *d
	a.mu.Unlock()

	a.emit(EventDayConfirmed, snapshot)
	return nil
}

// dayLocked resolves a "YYYY-MM-DD" date to its entry. Caller holds mu.
func (a *Assembler) dayLocked(date string) (*DailyAttendance, error) {
	if a.month == nil {
		return nil, fmt.Errorf("no month assembled")
	}
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	if d.Year() != a.month.Year || d.Month() != a.month.Month {
		return nil, fmt.Errorf("date %s is outside %s", date, a.month.YearMonth())
	}
	return &a.month.Days[d.Day()-1], nil
}

var _ Service = (*Assembler)(nil)
