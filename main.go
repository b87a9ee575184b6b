// Package main provides the entry point for the attendance scanner.
package main

import (
	"log"

	"github.com/alecthomas/kong"

	"attendance-scanner/internal/cli"
	"attendance-scanner/internal/config"
	"attendance-scanner/internal/workday"
)

const (
	appName    = "attendance-scanner"
	appVersion = "0.1.0"
)

var CLI struct {
	Config string `help:"Config file path." type:"path" default:"config/config.toml"`

	Scan     cli.ScanCmd `cmd:"" help:"Extract an attendance table image and export the month."`
	Calendar struct {
		AddHoliday cli.HolidayAddCmd `cmd:"" name:"add-holiday" help:"Record a statutory holiday."`
		AddWorkday cli.WorkdayAddCmd `cmd:"" name:"add-workday" help:"Record a make-up workday override."`
		Workdays   cli.WorkdaysCmd   `cmd:"" help:"List the workdays of a month."`
	} `cmd:"" help:"Manage the workday calendar."`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	kctx := kong.Parse(&CLI,
		kong.Name(appName),
		kong.Description("Extracts monthly attendance records from punch-table screenshots."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(CLI.Config)
	kctx.FatalIfErrorf(err)

	calendar, err := workday.Load(cfg.Calendar.HolidayConfig)
	kctx.FatalIfErrorf(err)

	log.Printf("%s v%s starting", appName, appVersion)

	appCtx := &cli.Context{
		Config:       cfg,
		Calendar:     calendar,
		CalendarPath: cfg.Calendar.HolidayConfig,
	}
	kctx.FatalIfErrorf(kctx.Run(appCtx))
}
