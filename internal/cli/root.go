// Package cli implements the command-line commands.
package cli

import (
	"attendance-scanner/internal/config"
	"attendance-scanner/internal/workday"
)

// Context carries the shared dependencies into command Run methods.
type Context struct {
	Config       config.Config
	Calendar     *workday.Calendar
	CalendarPath string
}
