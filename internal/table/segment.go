// Package table locates the attendance grid in a binary mask and yields
// rectangular cell regions with row/column coordinates.
package table

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"attendance-scanner/pkg/geometry"
)

// Column indices of the expected table schema.
const (
	ColDate = iota
	ColWeekday
	ColClockIn
	ColClockOut

	// SchemaColumns is the number of columns a month table must have:
	// date, weekday, clock-in, clock-out.
	SchemaColumns = 4
)

// HeaderRow is the row index reserved for the table header. Data rows start
// at 1 and map to calendar days in order.
const HeaderRow = 0

// CellRegion is one detected table cell: a pixel rectangle plus its logical
// grid position. Immutable once produced.
type CellRegion struct {
	Row    int `json:"row"`
	Col    int `json:"col"`
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the cell's pixel rectangle.
func (c CellRegion) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
}

// Region returns the cell's rectangle as a geometry.RectInt.
func (c CellRegion) Region() geometry.RectInt {
	return geometry.RectInt{X: c.X, Y: c.Y, Width: c.Width, Height: c.Height}
}

// LayoutError indicates the detected grid does not match the expected
// schema. Fatal: an unrecognized table shape is never forced into a default
// layout.
type LayoutError struct {
	Columns int
	Rows    int
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("unexpected table layout: %d rows x %d columns (want %d columns)",
		e.Rows, e.Columns, SchemaColumns)
}

// Options configures segmentation.
type Options struct {
	// MinCellArea rejects contours too small to be a table cell.
	MinCellArea int
}

// DefaultOptions returns segmentation defaults.
func DefaultOptions() Options {
	return Options{MinCellArea: 100}
}

// Segment detects cell contours on a binary mask and returns the cells
// ordered by (row, col). Returns *LayoutError when the clustered column
// count does not match the schema.
func Segment(mask gocv.Mat, opts Options) ([]CellRegion, error) {
	if mask.Empty() {
		return nil, fmt.Errorf("empty mask")
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var cells []CellRegion
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area < float64(opts.MinCellArea) {
			continue
		}
		r := gocv.BoundingRect(contours.At(i))
		cells = append(cells, CellRegion{
			Row: -1, Col: -1,
			X: r.Min.X, Y: r.Min.Y,
			Width: r.Dx(), Height: r.Dy(),
		})
	}

	cells = FilterByModalArea(cells, AreaTolerance)
	return AssignGrid(cells)
}
