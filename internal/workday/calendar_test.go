package workday

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"attendance-scanner/internal/attendance"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNaturalRule(t *testing.T) {
	c := NewCalendar()

	if c.IsWorkday(date("2025-09-06")) {
		t.Error("Saturday classified as workday")
	}
	// Sunday through Friday work.
	for _, s := range []string{"2025-09-07", "2025-09-08", "2025-09-12"} {
		if !c.IsWorkday(date(s)) {
			t.Errorf("%s (%s) classified as non-workday", s, date(s).Weekday())
		}
	}
}

func TestHolidayAndOverridePrecedence(t *testing.T) {
	c := NewCalendar()
	c.AddHoliday(date("2025-10-01"))
	c.AddWorkdayOverride(date("2025-09-27")) // a Saturday worked as make-up

	if c.IsWorkday(date("2025-10-01")) {
		t.Error("holiday classified as workday")
	}
	if !c.IsHoliday(date("2025-10-01")) {
		t.Error("IsHoliday false for an added holiday")
	}
	if !c.IsWorkday(date("2025-09-27")) {
		t.Error("make-up Saturday not classified as workday")
	}

	// An override on a holiday wins over the holiday.
	c.AddWorkdayOverride(date("2025-10-01"))
	if !c.IsWorkday(date("2025-10-01")) {
		t.Error("override did not take precedence over the holiday")
	}
}

func TestDayType(t *testing.T) {
	c := NewCalendar()
	c.AddHoliday(date("2025-10-01"))

	tests := []struct {
		date string
		want attendance.DayType
	}{
		{"2025-10-01", attendance.DayHoliday},
		{"2025-09-06", attendance.DayRest},
		{"2025-09-08", attendance.DayWorkday},
	}
	for _, tt := range tests {
		if got := c.DayType(date(tt.date)); got != tt.want {
			t.Errorf("DayType(%s) = %v, want %v", tt.date, got, tt.want)
		}
	}
}

func TestWorkdaysInMonth(t *testing.T) {
	c := NewCalendar()
	// September 2025 has 4 Saturdays: the 6th, 13th, 20th, 27th.
	days := c.WorkdaysInMonth(2025, time.September)
	if len(days) != 26 {
		t.Fatalf("got %d workdays, want 26", len(days))
	}
	for _, d := range days {
		if d.Weekday() == time.Saturday {
			t.Errorf("%s is a Saturday", d.Format("2006-01-02"))
		}
	}

	c.AddHoliday(date("2025-09-08"))
	if got := len(c.WorkdaysInMonth(2025, time.September)); got != 25 {
		t.Errorf("after one holiday got %d workdays, want 25", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendars", "holidays.json")

	c := NewCalendar()
	c.AddHoliday(date("2024-01-01"))
	c.AddHoliday(date("2025-10-01"))
	c.AddWorkdayOverride(date("2025-09-27"))
	if err := c.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.IsHoliday(date("2024-01-01")) || !loaded.IsHoliday(date("2025-10-01")) {
		t.Error("holidays lost in round trip")
	}
	if !loaded.IsWorkday(date("2025-09-27")) {
		t.Error("workday override lost in round trip")
	}
}

func TestLoadMissingFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if !c.IsWorkday(date("2025-09-08")) {
		t.Error("empty calendar lost the natural rule")
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.json")

	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed JSON accepted")
	}

	if err := os.WriteFile(path, []byte(`{"2025":{"holidays":["10-01"]}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed date accepted")
	}
}
