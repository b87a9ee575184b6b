package cli

import (
	"fmt"
	"testing"
	"time"

	"attendance-scanner/internal/attendance"
)

type fakeService struct {
	updates  []string
	confirms []string
	failOn   string
}

func (f *fakeService) Assemble(int, time.Month, []attendance.RowObservation) (*attendance.MonthlyAttendance, error) {
	return nil, nil
}

func (f *fakeService) UpdateField(date string, field attendance.Field, value string) error {
	if date == f.failOn {
		return fmt.Errorf("boom")
	}
	f.updates = append(f.updates, fmt.Sprintf("%s:%s=%s", date, field, value))
	return nil
}

func (f *fakeService) Confirm(date string) error {
	f.confirms = append(f.confirms, date)
	return nil
}

func (f *fakeService) Statistics() attendance.Statistics { return attendance.Statistics{} }

func TestParseSet(t *testing.T) {
	date, field, value, err := parseSet("2025-09-03:clock_in.time=09:00")
	if err != nil {
		t.Fatal(err)
	}
	if date != "2025-09-03" || field != attendance.FieldClockInTime || value != "09:00" {
		t.Errorf("got %s %s %s", date, field, value)
	}

	for _, bad := range []string{"", "2025-09-03", "2025-09-03:clock_in.time", "no-colon=x"} {
		if _, _, _, err := parseSet(bad); err == nil {
			t.Errorf("parseSet(%q) accepted", bad)
		}
	}
}

func TestApplyEdits(t *testing.T) {
	svc := &fakeService{}
	sets := []string{
		"2025-09-03:clock_in.time=09:00",
		"2025-09-04:day_type=holiday",
	}
	confirms := []string{"2025-09-03"}

	if err := applyEdits(svc, sets, confirms); err != nil {
		t.Fatal(err)
	}
	if len(svc.updates) != 2 || svc.updates[1] != "2025-09-04:day_type=holiday" {
		t.Errorf("updates = %v", svc.updates)
	}
	if len(svc.confirms) != 1 || svc.confirms[0] != "2025-09-03" {
		t.Errorf("confirms = %v", svc.confirms)
	}
}

func TestApplyEditsStopsOnFailure(t *testing.T) {
	svc := &fakeService{failOn: "2025-09-03"}
	err := applyEdits(svc, []string{"2025-09-03:clock_in.time=09:00"}, []string{"2025-09-03"})
	if err == nil {
		t.Fatal("failed edit not reported")
	}
	if len(svc.confirms) != 0 {
		t.Error("confirmation ran after a failed edit")
	}
}
