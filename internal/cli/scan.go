package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"attendance-scanner/internal/attendance"
	"attendance-scanner/internal/export"
	"attendance-scanner/internal/pipeline"
)

// ScanCmd extracts one attendance table image and exports the month.
type ScanCmd struct {
	Image  string `arg:"" help:"Attendance table image (png, jpg, bmp, or tiff)." type:"existingfile"`
	Month  string `help:"Month as YYYY-MM; read from the table header when omitted."`
	Out    string `help:"Output directory (default from config)." type:"path"`
	Format string `help:"Export format: xlsx, csv, or json (default from config)."`

	Set     []string `help:"Corrections applied after extraction, as DATE:FIELD=VALUE (e.g. 2025-09-03:clock_in.time=09:00)."`
	Confirm []string `help:"Dates to mark confirmed, as YYYY-MM-DD."`
}

func (c *ScanCmd) Run(appCtx *Context) error {
	var year int
	var month time.Month
	if c.Month != "" {
		t, err := time.Parse("2006-01", c.Month)
		if err != nil {
			return fmt.Errorf("invalid month %q, want YYYY-MM: %w", c.Month, err)
		}
		year, month = t.Year(), t.Month()
	}

	formatName := c.Format
	if formatName == "" {
		formatName = appCtx.Config.Export.DefaultFormat
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	dir := c.Out
	if dir == "" {
		dir = appCtx.Config.Export.DefaultDir
	}

	p, err := pipeline.New(appCtx.Config, appCtx.Calendar)
	if err != nil {
		return err
	}
	defer p.Close()

	assembler, err := p.Process(context.Background(), c.Image, year, month)
	if err != nil {
		return err
	}

	if err := applyEdits(assembler, c.Set, c.Confirm); err != nil {
		return err
	}

	m := assembler.Month()
	path, err := export.Write(m, format, dir)
	if err != nil {
		return err
	}

	fmt.Print(export.Summary(m))
	fmt.Printf("exported to %s\n", path)
	return nil
}

// applyEdits applies --set corrections and --confirm flags in order, edits
// first so a confirmation covers the corrected values.
func applyEdits(svc attendance.Service, sets, confirms []string) error {
	for _, s := range sets {
		date, field, value, err := parseSet(s)
		if err != nil {
			return err
		}
		if err := svc.UpdateField(date, field, value); err != nil {
			return fmt.Errorf("--set %s: %w", s, err)
		}
	}
	for _, date := range confirms {
		if err := svc.Confirm(date); err != nil {
			return fmt.Errorf("--confirm %s: %w", date, err)
		}
	}
	return nil
}

func parseSet(s string) (date string, field attendance.Field, value string, err error) {
	date, rest, ok := strings.Cut(s, ":")
	if ok {
		var fieldName string
		fieldName, value, ok = strings.Cut(rest, "=")
		field = attendance.Field(fieldName)
	}
	if !ok {
		return "", "", "", fmt.Errorf("invalid --set %q, want DATE:FIELD=VALUE", s)
	}
	return date, field, value, nil
}
