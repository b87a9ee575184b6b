// Package export writes assembled attendance months to Excel, CSV, and JSON
// files and renders plain-text summaries.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"attendance-scanner/internal/attendance"
)

// Format selects the output encoding.
type Format string

const (
	FormatExcel Format = "xlsx"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatExcel:
		return FormatExcel, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (want xlsx, csv, or json)", s)
}

// detailHeader is the column layout shared by the Excel detail sheet and the
// CSV output.
var detailHeader = []string{
	"Date", "Weekday", "Day Type",
	"Clock In", "Clock In Status",
	"Clock Out", "Clock Out Status",
	"Confirmed", "Remarks",
}

// Write exports the month in the given format under dir, creating dir if
// needed. The file is named attendance_YYYY-MM.<ext>; the full path is
// returned.
func Write(m *attendance.MonthlyAttendance, format Format, dir string) (string, error) {
	if m == nil {
		return "", fmt.Errorf("no attendance month to export")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("attendance_%s.%s", m.YearMonth(), format))
	var err error
	switch format {
	case FormatExcel:
		err = Excel(m, path)
	case FormatCSV:
		err = CSV(m, path)
	case FormatJSON:
		err = JSON(m, path)
	default:
		err = fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// Excel writes a workbook with three sheets: the full day-by-day detail, the
// derived statistics, and the subset of days needing attention.
func Excel(m *attendance.MonthlyAttendance, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const detailSheet = "Details"
	f.SetSheetName("Sheet1", detailSheet)
	if err := writeDetailSheet(f, detailSheet, m.Days); err != nil {
		return err
	}

	if err := writeStatisticsSheet(f, m); err != nil {
		return err
	}
	if err := writeAbnormalSheet(f, m.Days); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeDetailSheet(f *excelize.File, sheet string, days []attendance.DailyAttendance) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := setRow(f, sheet, 1, toCells(detailHeader)); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "I", 14); err != nil {
		return err
	}

	for i, d := range days {
		row := []interface{}{
			d.DateString(),
			d.Weekday().String(),
			d.DayType.String(),
			d.ClockIn.Time,
			d.ClockIn.Status.String(),
			d.ClockOut.Time,
			d.ClockOut.Status.String(),
			d.Confirmed,
			remarks(d),
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeStatisticsSheet(f *excelize.File, m *attendance.MonthlyAttendance) error {
	const sheet = "Statistics"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 22); err != nil {
		return err
	}

	s := m.Statistics
	rows := [][]interface{}{
		{"Month", m.YearMonth()},
		{"Total Days", s.TotalDays},
		{"Work Days", s.WorkDays},
		{"Rest Days", s.RestDays},
		{"Holiday Days", s.HolidayDays},
		{"Present Days", s.PresentDays},
		{"Absent Days", s.AbsentDays},
		{"Normal Clock In", s.NormalClockIn},
		{"Abnormal Clock In", s.AbnormalClockIn},
		{"Normal Clock Out", s.NormalClockOut},
		{"Abnormal Clock Out", s.AbnormalClockOut},
		{"Confirmed Days", s.ConfirmedDays},
		{"Attendance Rate", fmt.Sprintf("%.1f%%", s.AttendanceRate*100)},
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

// writeAbnormalSheet lists only the days a reviewer should look at: abnormal
// or missing punches on workdays, and low-trust extractions.
func writeAbnormalSheet(f *excelize.File, days []attendance.DailyAttendance) error {
	const sheet = "Abnormal"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := setRow(f, sheet, 1, toCells(detailHeader)); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "I", 14); err != nil {
		return err
	}

	n := 2
	for _, d := range days {
		if !abnormal(d) {
			continue
		}
		row := []interface{}{
			d.DateString(),
			d.Weekday().String(),
			d.DayType.String(),
			d.ClockIn.Time,
			d.ClockIn.Status.String(),
			d.ClockOut.Time,
			d.ClockOut.Status.String(),
			d.Confirmed,
			remarks(d),
		}
		if err := setRow(f, sheet, n, row); err != nil {
			return err
		}
		n++
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toCells(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// CSV writes the detail rows with the same columns as the Excel detail sheet.
func CSV(m *attendance.MonthlyAttendance, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(detailHeader); err != nil {
		return err
	}
	for _, d := range m.Days {
		row := []string{
			d.DateString(),
			d.Weekday().String(),
			d.DayType.String(),
			d.ClockIn.Time,
			d.ClockIn.Status.String(),
			d.ClockOut.Time,
			d.ClockOut.Status.String(),
			fmt.Sprintf("%t", d.Confirmed),
			remarks(d),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// JSON writes the full month, statistics included, as indented JSON.
func JSON(m *attendance.MonthlyAttendance, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Summary renders a short plain-text report suitable for terminal output.
func Summary(m *attendance.MonthlyAttendance) string {
	s := m.Statistics
	var b strings.Builder
	fmt.Fprintf(&b, "Attendance %s\n", m.YearMonth())
	fmt.Fprintf(&b, "  days: %d total, %d work, %d rest, %d holiday\n",
		s.TotalDays, s.WorkDays, s.RestDays, s.HolidayDays)
	fmt.Fprintf(&b, "  presence: %d present, %d absent\n", s.PresentDays, s.AbsentDays)
	fmt.Fprintf(&b, "  clock in: %d normal, %d abnormal\n", s.NormalClockIn, s.AbnormalClockIn)
	fmt.Fprintf(&b, "  clock out: %d normal, %d abnormal\n", s.NormalClockOut, s.AbnormalClockOut)
	fmt.Fprintf(&b, "  confirmed: %d/%d, attendance rate %.1f%%\n",
		s.ConfirmedDays, s.TotalDays, s.AttendanceRate*100)

	var flagged []string
	for _, d := range m.Days {
		if abnormal(d) {
			flagged = append(flagged, fmt.Sprintf("  %s %s", d.DateString(), remarks(d)))
		}
	}
	if len(flagged) > 0 {
		fmt.Fprintf(&b, "needs attention (%d):\n%s\n", len(flagged), strings.Join(flagged, "\n"))
	}
	return b.String()
}

// abnormal reports whether a day belongs on the review list.
func abnormal(d attendance.DailyAttendance) bool {
	if d.DayType == attendance.DayWorkday &&
		(d.ClockIn.Status != attendance.StatusNormal || d.ClockOut.Status != attendance.StatusNormal) {
		return true
	}
	return d.NeedsReview() && !d.Confirmed
}

// remarks builds the human-readable notes column for a day.
func remarks(d attendance.DailyAttendance) string {
	var notes []string
	if d.DayType == attendance.DayWorkday {
		switch {
		case d.ClockIn.Status == attendance.StatusMissing && d.ClockOut.Status == attendance.StatusMissing:
			notes = append(notes, "no punches")
		case d.ClockIn.Status == attendance.StatusMissing:
			notes = append(notes, "clock-in missing")
		case d.ClockOut.Status == attendance.StatusMissing:
			notes = append(notes, "clock-out missing")
		}
		if d.ClockIn.Status == attendance.StatusAbnormal {
			notes = append(notes, "clock-in abnormal")
		}
		if d.ClockOut.Status == attendance.StatusAbnormal {
			notes = append(notes, "clock-out abnormal")
		}
	}
	if d.DateInferred {
		notes = append(notes, "date inferred from row position")
	}
	if !d.DateInferred && d.NeedsReview() {
		notes = append(notes, "low extraction confidence")
	}
	return strings.Join(notes, "; ")
}
