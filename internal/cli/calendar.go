package cli

import (
	"fmt"
	"time"
)

// HolidayAddCmd records a statutory holiday in the workday calendar.
type HolidayAddCmd struct {
	Date string `arg:"" help:"Holiday date as YYYY-MM-DD."`
}

func (c *HolidayAddCmd) Run(appCtx *Context) error {
	d, err := parseDate(c.Date)
	if err != nil {
		return err
	}
	appCtx.Calendar.AddHoliday(d)
	if err := appCtx.Calendar.Save(appCtx.CalendarPath); err != nil {
		return err
	}
	fmt.Printf("added holiday %s\n", c.Date)
	return nil
}

// WorkdayAddCmd records a make-up workday override, typically a weekend day
// worked in exchange for an extended holiday.
type WorkdayAddCmd struct {
	Date string `arg:"" help:"Make-up workday date as YYYY-MM-DD."`
}

func (c *WorkdayAddCmd) Run(appCtx *Context) error {
	d, err := parseDate(c.Date)
	if err != nil {
		return err
	}
	appCtx.Calendar.AddWorkdayOverride(d)
	if err := appCtx.Calendar.Save(appCtx.CalendarPath); err != nil {
		return err
	}
	fmt.Printf("added make-up workday %s\n", c.Date)
	return nil
}

// WorkdaysCmd lists the workdays of a month under the current calendar.
type WorkdaysCmd struct {
	Month string `arg:"" help:"Month as YYYY-MM."`
}

func (c *WorkdaysCmd) Run(appCtx *Context) error {
	t, err := time.Parse("2006-01", c.Month)
	if err != nil {
		return fmt.Errorf("invalid month %q, want YYYY-MM: %w", c.Month, err)
	}
	days := appCtx.Calendar.WorkdaysInMonth(t.Year(), t.Month())
	for _, d := range days {
		fmt.Printf("%s %s\n", d.Format("2006-01-02"), d.Weekday())
	}
	fmt.Printf("%d workdays in %s\n", len(days), c.Month)
	return nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", s, err)
	}
	return d, nil
}
