package attendance

import (
	"testing"
	"time"

	"attendance-scanner/internal/dot"
)

func greenPunch(clock string) PunchObservation {
	return PunchObservation{
		Dot:  dot.Observation{Present: true, Color: dot.ColorGreen, Confidence: 0.95},
		Time: clock,
	}
}

func grayPunch(clock string) PunchObservation {
	return PunchObservation{
		Dot:  dot.Observation{Present: true, Color: dot.ColorGray, Confidence: 0.9},
		Time: clock,
	}
}

func absentPunch() PunchObservation {
	return PunchObservation{Dot: dot.Observation{Present: false, Color: dot.ColorNone, Confidence: 1.0}}
}

func assembleSeptember(t *testing.T, rows []RowObservation) (*Assembler, *MonthlyAttendance) {
	t.Helper()
	a := NewAssembler()
	m, err := a.Assemble(2025, time.September, rows)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return a, m
}

func TestAssembleCoversWholeMonth(t *testing.T) {
	rows := []RowObservation{
		{Row: 1, Day: 1, ClockIn: greenPunch("08:55"), ClockOut: greenPunch("18:02")},
		{Row: 2, Day: 2, ClockIn: grayPunch("10:12"), ClockOut: absentPunch()},
	}
	_, m := assembleSeptember(t, rows)

	if len(m.Days) != 30 {
		t.Fatalf("got %d days, want 30", len(m.Days))
	}
	for i, d := range m.Days {
		if d.Date.Day() != i+1 {
			t.Fatalf("day %d holds date %s: days must be ascending and complete", i, d.DateString())
		}
		if d.Confirmed {
			t.Errorf("day %d starts confirmed", i+1)
		}
	}

	// Day 3 had no extraction at all: missing with zero confidence so it
	// surfaces for review.
	d3 := m.Days[2]
	if d3.ClockIn.Status != StatusMissing || d3.ClockIn.Confidence != 0 {
		t.Errorf("unextracted day = %+v, want missing with zero confidence", d3.ClockIn)
	}
	if !d3.NeedsReview() {
		t.Error("unextracted day must need review")
	}
}

func TestAssembleStatusMapping(t *testing.T) {
	rows := []RowObservation{
		{Row: 1, Day: 1, ClockIn: greenPunch("08:55"), ClockOut: grayPunch("19:40")},
		{Row: 2, Day: 2, ClockIn: absentPunch(), ClockOut: absentPunch()},
	}
	_, m := assembleSeptember(t, rows)

	d1 := m.Days[0]
	if d1.ClockIn.Status != StatusNormal || d1.ClockIn.Time != "08:55" {
		t.Errorf("green marker: got %+v", d1.ClockIn)
	}
	if d1.ClockOut.Status != StatusAbnormal || d1.ClockOut.Time != "19:40" {
		t.Errorf("gray marker: got %+v", d1.ClockOut)
	}

	d2 := m.Days[1]
	if d2.ClockIn.Status != StatusMissing || d2.ClockIn.Time != "" {
		t.Errorf("absent marker: got %+v, want missing with no time", d2.ClockIn)
	}
}

func TestAssembleMissingNeverCarriesTime(t *testing.T) {
	// Text leaked into a cell whose marker is absent: the time must not stick.
	rows := []RowObservation{{
		Row: 1, Day: 1,
		ClockIn: PunchObservation{
			Dot:  dot.Observation{Present: false, Color: dot.ColorNone, Confidence: 1.0},
			Time: "09:00",
		},
	}}
	_, m := assembleSeptember(t, rows)

	if got := m.Days[0].ClockIn; got.Status != StatusMissing || got.Time != "" {
		t.Errorf("got %+v, want missing with empty time", got)
	}
}

func TestAssemblePositionalFallback(t *testing.T) {
	rows := []RowObservation{
		{Row: 3, Day: 0, ClockIn: greenPunch("09:01"), ClockOut: greenPunch("18:00")},
	}
	_, m := assembleSeptember(t, rows)

	d3 := m.Days[2]
	if d3.ClockIn.Status != StatusNormal {
		t.Fatalf("positional fallback did not land on day 3: %+v", d3)
	}
	if !d3.DateInferred {
		t.Error("fallback day must be flagged DateInferred")
	}
	if m.Days[0].DateInferred {
		t.Error("untouched day flagged DateInferred")
	}
}

func TestAssembleDuplicateDayKeepsFirst(t *testing.T) {
	rows := []RowObservation{
		{Row: 1, Day: 5, ClockIn: greenPunch("08:30")},
		{Row: 2, Day: 5, ClockIn: grayPunch("11:11")},
	}
	_, m := assembleSeptember(t, rows)

	if got := m.Days[4].ClockIn; got.Status != StatusNormal || got.Time != "08:30" {
		t.Errorf("duplicate resolution kept %+v, want the first extraction", got)
	}
}

func TestAssembleRejectsBadMonth(t *testing.T) {
	a := NewAssembler()
	if _, err := a.Assemble(2025, 13, nil); err == nil {
		t.Error("month 13 accepted")
	}
	if _, err := a.Assemble(0, time.May, nil); err == nil {
		t.Error("year 0 accepted")
	}
}

func TestAssembleDayTypes(t *testing.T) {
	_, m := assembleSeptember(t, nil)

	// 2025-09-06 is a Saturday; with no calendar configured it is the rest
	// day, and Sunday 2025-09-07 stays a workday.
	if got := m.Days[5].DayType; got != DayRest {
		t.Errorf("Saturday = %v, want rest_day", got)
	}
	if got := m.Days[6].DayType; got != DayWorkday {
		t.Errorf("Sunday = %v, want workday", got)
	}
}

func TestWithDayTypes(t *testing.T) {
	a := NewAssembler(WithDayTypes(func(d time.Time) DayType {
		if d.Day() == 1 {
			return DayHoliday
		}
		return DayWorkday
	}))
	m, err := a.Assemble(2025, time.September, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.Days[0].DayType != DayHoliday {
		t.Errorf("day 1 = %v, want holiday from the injected classifier", m.Days[0].DayType)
	}
}

func TestUpdateFieldTime(t *testing.T) {
	a, _ := assembleSeptember(t, []RowObservation{
		{Row: 1, Day: 1, ClockIn: greenPunch("08:55"), ClockOut: greenPunch("18:02")},
	})

	if err := a.UpdateField("2025-09-01", FieldClockInTime, "09:00"); err != nil {
		t.Fatalf("UpdateField: %v", err)
	}
	d, _ := a.Month().Day(1)
	if d.ClockIn.Time != "09:00" {
		t.Errorf("time = %q after edit", d.ClockIn.Time)
	}
	if d.ClockIn.Status != StatusNormal {
		t.Errorf("editing the time changed the status to %v", d.ClockIn.Status)
	}
	if d.Confirmed {
		t.Error("UpdateField set the confirmation flag")
	}
}

func TestUpdateFieldRejectsBadTime(t *testing.T) {
	a, _ := assembleSeptember(t, []RowObservation{{Row: 1, Day: 1, ClockIn: greenPunch("08:55")}})

	for _, bad := range []string{"9:00", "24:00", "noon"} {
		if err := a.UpdateField("2025-09-01", FieldClockInTime, bad); err == nil {
			t.Errorf("time %q accepted", bad)
		}
	}
}

func TestUpdateFieldMissingInvariant(t *testing.T) {
	a, _ := assembleSeptember(t, []RowObservation{
		{Row: 1, Day: 1, ClockIn: greenPunch("08:55")},
	})

	// A time cannot be attached to a missing punch.
	if err := a.UpdateField("2025-09-02", FieldClockInTime, "09:00"); err == nil {
		t.Error("time set on a missing punch")
	}

	// Setting a punch to missing clears its time.
	if err := a.UpdateField("2025-09-01", FieldClockInStatus, "missing"); err != nil {
		t.Fatal(err)
	}
	d, _ := a.Month().Day(1)
	if d.ClockIn.Time != "" {
		t.Errorf("time %q survived a missing status", d.ClockIn.Time)
	}

	// Correcting the status first makes the time editable again.
	if err := a.UpdateField("2025-09-01", FieldClockInStatus, "abnormal"); err != nil {
		t.Fatal(err)
	}
	if err := a.UpdateField("2025-09-01", FieldClockInTime, "10:15"); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateFieldDayType(t *testing.T) {
	a, _ := assembleSeptember(t, nil)
	before := a.Statistics()

	if err := a.UpdateField("2025-09-01", FieldDayType, "holiday"); err != nil {
		t.Fatal(err)
	}
	after := a.Statistics()
	if after.HolidayDays != before.HolidayDays+1 || after.WorkDays != before.WorkDays-1 {
		t.Errorf("statistics not recomputed: before %+v after %+v", before, after)
	}
}

func TestUpdateFieldValidation(t *testing.T) {
	a, _ := assembleSeptember(t, nil)

	if err := a.UpdateField("2025-09-01", "salary", "raise"); err == nil {
		t.Error("unknown field accepted")
	}
	if err := a.UpdateField("2025-10-01", FieldClockInStatus, "normal"); err == nil {
		t.Error("date outside the month accepted")
	}
	if err := a.UpdateField("not-a-date", FieldClockInStatus, "normal"); err == nil {
		t.Error("malformed date accepted")
	}

	empty := NewAssembler()
	if err := empty.UpdateField("2025-09-01", FieldClockInStatus, "normal"); err == nil {
		t.Error("edit accepted before any month was assembled")
	}
}

func TestConfirmChangesNothingElse(t *testing.T) {
	a, _ := assembleSeptember(t, []RowObservation{
		{Row: 1, Day: 1, ClockIn: grayPunch("10:12"), ClockOut: greenPunch("18:02")},
	})
	before, _ := a.Month().Day(1)

	if err := a.Confirm("2025-09-01"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	after, _ := a.Month().Day(1)
	if !after.Confirmed {
		t.Fatal("Confirmed not set")
	}
	after.Confirmed = before.Confirmed
	if after != before {
		t.Errorf("Confirm changed more than the flag:\nbefore %+v\nafter  %+v", before, after)
	}

	if got := a.Statistics().ConfirmedDays; got != 1 {
		t.Errorf("ConfirmedDays = %d, want 1", got)
	}
}

func TestWeekdayDerivedAfterEdits(t *testing.T) {
	a, _ := assembleSeptember(t, nil)
	if err := a.UpdateField("2025-09-03", FieldClockInStatus, "normal"); err != nil {
		t.Fatal(err)
	}
	d, _ := a.Month().Day(3)
	if d.Weekday() != time.Wednesday {
		t.Errorf("2025-09-03 weekday = %v, want Wednesday regardless of edits", d.Weekday())
	}
}

func TestEvents(t *testing.T) {
	a := NewAssembler()

	var assembled, updated, confirmed int
	a.On(EventAssembled, func(interface{}) { assembled++ })
	a.On(EventDayUpdated, func(interface{}) { updated++ })
	a.On(EventDayConfirmed, func(data interface{}) {
		confirmed++
		if d, ok := data.(DailyAttendance); !ok || !d.Confirmed {
			t.Errorf("confirm event payload = %#v", data)
		}
	})

	if _, err := a.Assemble(2025, time.September, nil); err != nil {
		t.Fatal(err)
	}
	if err := a.UpdateField("2025-09-01", FieldClockInStatus, "normal"); err != nil {
		t.Fatal(err)
	}
	if err := a.Confirm("2025-09-01"); err != nil {
		t.Fatal(err)
	}

	if assembled != 1 || updated != 1 || confirmed != 1 {
		t.Errorf("event counts = %d/%d/%d, want 1/1/1", assembled, updated, confirmed)
	}

	// A failed edit must not emit.
	_ = a.UpdateField("2025-09-01", FieldClockInTime, "bad")
	if updated != 1 {
		t.Errorf("failed edit emitted an event")
	}
}

func TestMonthSnapshotIsolation(t *testing.T) {
	a, _ := assembleSeptember(t, nil)

	snap := a.Month()
	snap.Days[0].ClockIn.Time = "11:11"
	snap.Days[0].ClockIn.Status = StatusNormal

	d, _ := a.Month().Day(1)
	if d.ClockIn.Time == "11:11" {
		t.Error("mutating a snapshot leaked into the assembler's state")
	}
}
