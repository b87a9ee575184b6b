// Package pipeline runs the full image-to-record extraction: preprocessing,
// segmentation, per-cell classification and text recognition, field parsing,
// and assembly into a monthly attendance record.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log"
	"runtime"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"attendance-scanner/internal/attendance"
	"attendance-scanner/internal/config"
	"attendance-scanner/internal/dot"
	"attendance-scanner/internal/fieldparse"
	"attendance-scanner/internal/imaging"
	"attendance-scanner/internal/ocr"
	"attendance-scanner/internal/preprocess"
	"attendance-scanner/internal/table"
	"attendance-scanner/internal/workday"
)

// Pipeline owns the recognition engine for its lifetime and orchestrates one
// image per Process call. Everything upstream of the assembler is a pure
// per-image or per-cell transform.
type Pipeline struct {
	cfg       config.Config
	engine    ocr.Recognizer
	extractor *ocr.Extractor
	calendar  *workday.Calendar
}

// New constructs a pipeline with a Tesseract-backed engine selected by the
// configuration. Close must be called to release the engine.
func New(cfg config.Config, calendar *workday.Calendar) (*Pipeline, error) {
	engine, err := ocr.NewEngine(cfg.OCR.UseAcceleratedEngine, cfg.OCR.Languages...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize recognition engine: %w", err)
	}
	return NewWithEngine(cfg, calendar, engine), nil
}

// NewWithEngine constructs a pipeline around an existing engine. Used by
// tests to substitute a fake recognizer.
func NewWithEngine(cfg config.Config, calendar *workday.Calendar, engine ocr.Recognizer) *Pipeline {
	if calendar == nil {
		calendar = workday.NewCalendar()
	}
	return &Pipeline{
		cfg:       cfg,
		engine:    engine,
		extractor: ocr.NewExtractor(engine, cfg.OCR.Timeout.Duration(), cfg.OCR.ConfidenceThreshold),
		calendar:  calendar,
	}
}

// Close releases the recognition engine.
func (p *Pipeline) Close() error {
	if p.engine != nil {
		return p.engine.Close()
	}
	return nil
}

// Process extracts one month's attendance table from the image. When year is
// zero the year-month is read from the table header. The returned assembler
// owns the month; callers apply edits and confirmations through it.
//
// Fatal errors (*preprocess.QualityError, *table.LayoutError) abort the whole
// image; per-cell failures degrade to missing/empty records and are logged.
func (p *Pipeline) Process(ctx context.Context, imagePath string, year int, month time.Month) (*attendance.Assembler, error) {
	img, mat, err := imaging.Load(imagePath)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	mask, err := preprocess.Run(mat)
	if err != nil {
		return nil, err
	}
	defer mask.Close()

	cells, err := table.Segment(mask, table.Options{MinCellArea: p.cfg.Image.MinCellArea})
	if err != nil {
		return nil, err
	}

	if year == 0 {
		year, month, err = p.readYearMonth(ctx, mat, cells)
		if err != nil {
			return nil, err
		}
	}

	rows := table.DataRows(cells)
	if len(rows) == 0 {
		return nil, &table.LayoutError{Rows: 1, Columns: table.SchemaColumns}
	}

	observations := p.extractRows(ctx, img, mat, rows, year, month)

	assembler := attendance.NewAssembler(attendance.WithDayTypes(p.calendar.DayType))
	if _, err := assembler.Assemble(year, month, observations); err != nil {
		return nil, err
	}

	log.Printf("processed %s: %d data rows, month %04d-%02d", imagePath, len(rows), year, month)
	return assembler, nil
}

// readYearMonth recognizes the header cells and extracts the year-month.
func (p *Pipeline) readYearMonth(ctx context.Context, mat gocv.Mat, cells []table.CellRegion) (int, time.Month, error) {
	var tokens []string
	for _, c := range table.HeaderCells(cells) {
		obs, err := p.extractor.Extract(ctx, mat, c.Region())
		if err != nil {
			log.Printf("header cell (%d,%d): %v", c.Row, c.Col, err)
			continue
		}
		tokens = append(tokens, obs.Texts()...)
	}
	year, month, ok := fieldparse.ExtractYearMonth(tokens)
	if !ok {
		return 0, 0, fmt.Errorf("year-month not supplied and not found in table header")
	}
	return year, month, nil
}

// extractRows fans per-row extraction out over a bounded worker pool.
// Classification and recognition are side-effect-free per cell, so the only
// shared state is the per-index result slot; fan-in happens at the assembler.
func (p *Pipeline) extractRows(ctx context.Context, img image.Image, mat gocv.Mat, rows [][]table.CellRegion, year int, month time.Month) []attendance.RowObservation {
	results := make([]attendance.RowObservation, len(rows))
	jobs := make(chan int)

	workers := runtime.NumCPU()
	if workers > len(rows) {
		workers = len(rows)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.extractRow(ctx, img, mat, rows[i], year, month)
			}
		}()
	}
	for i := range rows {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// extractRow processes the four cells of one data row.
func (p *Pipeline) extractRow(ctx context.Context, img image.Image, mat gocv.Mat, row []table.CellRegion, year int, month time.Month) attendance.RowObservation {
	obs := attendance.RowObservation{Row: row[0].Row}

	if c, ok := cellAt(row, table.ColDate); ok {
		text := p.extractText(ctx, mat, c)
		day, err := fieldparse.ParseDay(text.Texts(), year, month)
		if err != nil {
			log.Printf("row %d: %v, falling back to positional inference", obs.Row, err)
		}
		obs.Day = day
	}

	// The weekday column is ignored: day of week is always derived from the
	// date, never trusted from OCR.

	obs.ClockIn = p.extractPunch(ctx, img, mat, row, table.ColClockIn)
	obs.ClockOut = p.extractPunch(ctx, img, mat, row, table.ColClockOut)
	return obs
}

// extractPunch classifies the status dot and parses the time for one punch cell.
func (p *Pipeline) extractPunch(ctx context.Context, img image.Image, mat gocv.Mat, row []table.CellRegion, col int) attendance.PunchObservation {
	c, ok := cellAt(row, col)
	if !ok {
		return attendance.PunchObservation{}
	}

	// Classify on the original color pixels; a 2px inset keeps grid-line
	// remnants out of the sample.
	cell := imaging.SubImage(img, c.Rect().Inset(2))
	dotObs := dot.Classify(cell, dot.Options{
		MinDotArea:           p.cfg.Image.MinDotArea,
		CircularityThreshold: p.cfg.Image.CircularityThreshold,
	})

	text := p.extractText(ctx, mat, c)
	return attendance.PunchObservation{
		Dot:  dotObs,
		Time: fieldparse.ParseTime(text.Texts()),
	}
}

// extractText recognizes one cell, degrading to an empty observation on
// engine failure or timeout.
func (p *Pipeline) extractText(ctx context.Context, mat gocv.Mat, c table.CellRegion) ocr.Observation {
	obs, err := p.extractor.Extract(ctx, mat, c.Region())
	if err != nil {
		log.Printf("cell (%d,%d): text extraction degraded: %v", c.Row, c.Col, err)
		return ocr.Observation{}
	}
	return obs
}

func cellAt(row []table.CellRegion, col int) (table.CellRegion, bool) {
	for _, c := range row {
		if c.Col == col {
			return c, true
		}
	}
	return table.CellRegion{}, false
}

