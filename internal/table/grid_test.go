package table

import (
	"errors"
	"math/rand"
	"testing"
)

// makeGrid builds a synthetic rows x SchemaColumns layout of 100x50 cells
// with 10px gutters, unassigned (Row/Col zero).
func makeGrid(rows int) []CellRegion {
	var cells []CellRegion
	for r := 0; r < rows; r++ {
		for c := 0; c < SchemaColumns; c++ {
			cells = append(cells, CellRegion{
				X:      c * 110,
				Y:      r * 60,
				Width:  100,
				Height: 50,
			})
		}
	}
	return cells
}

func TestAssignGrid(t *testing.T) {
	cells := makeGrid(5)
	// Segmentation emits contours in no particular order.
	rand.New(rand.NewSource(1)).Shuffle(len(cells), func(i, j int) {
		cells[i], cells[j] = cells[j], cells[i]
	})

	assigned, err := AssignGrid(cells)
	if err != nil {
		t.Fatalf("AssignGrid: %v", err)
	}
	if len(assigned) != 5*SchemaColumns {
		t.Fatalf("got %d cells, want %d", len(assigned), 5*SchemaColumns)
	}

	for i, c := range assigned {
		wantRow, wantCol := i/SchemaColumns, i%SchemaColumns
		if c.Row != wantRow || c.Col != wantCol {
			t.Errorf("cell %d assigned (%d,%d), want (%d,%d)", i, c.Row, c.Col, wantRow, wantCol)
		}
		if c.X != wantCol*110 || c.Y != wantRow*60 {
			t.Errorf("cell %d at (%d,%d), order does not match geometry", i, c.X, c.Y)
		}
	}
}

func TestAssignGridJitter(t *testing.T) {
	// Real scans have a few pixels of vertical jitter within a row.
	cells := makeGrid(3)
	for i := range cells {
		cells[i].Y += i % 4
	}
	if _, err := AssignGrid(cells); err != nil {
		t.Fatalf("AssignGrid with jitter: %v", err)
	}
}

func TestAssignGridWrongColumnCount(t *testing.T) {
	cells := makeGrid(3)
	cells = cells[:len(cells)-1] // last row loses a cell

	_, err := AssignGrid(cells)
	var layoutErr *LayoutError
	if !errors.As(err, &layoutErr) {
		t.Fatalf("error = %v, want *LayoutError", err)
	}
	if layoutErr.Columns == SchemaColumns {
		t.Errorf("LayoutError.Columns = %d, want the defective count", layoutErr.Columns)
	}
}

func TestAssignGridHeaderOnly(t *testing.T) {
	_, err := AssignGrid(makeGrid(1))
	var layoutErr *LayoutError
	if !errors.As(err, &layoutErr) {
		t.Fatalf("error = %v, want *LayoutError for a single row", err)
	}
}

func TestAssignGridEmpty(t *testing.T) {
	var layoutErr *LayoutError
	if _, err := AssignGrid(nil); !errors.As(err, &layoutErr) {
		t.Fatalf("error = %v, want *LayoutError", err)
	}
}

func TestFilterByModalArea(t *testing.T) {
	cells := makeGrid(4)
	outliers := []CellRegion{
		{X: 0, Y: 500, Width: 800, Height: 600}, // the table's outer frame
		{X: 0, Y: 400, Width: 6, Height: 5},     // border fragment
	}
	all := append(append([]CellRegion{}, cells...), outliers...)

	kept := FilterByModalArea(all, AreaTolerance)
	if len(kept) != len(cells) {
		t.Fatalf("kept %d cells, want %d", len(kept), len(cells))
	}
	for _, c := range kept {
		if c.Width*c.Height != 100*50 {
			t.Errorf("outlier %dx%d survived the modal filter", c.Width, c.Height)
		}
	}
}

func TestFilterByModalAreaSmallInput(t *testing.T) {
	cells := []CellRegion{{Width: 10, Height: 10}, {Width: 900, Height: 900}}
	if got := FilterByModalArea(cells, AreaTolerance); len(got) != 2 {
		t.Errorf("fewer than 3 cells must pass through unfiltered, got %d", len(got))
	}
}

func TestDataRows(t *testing.T) {
	assigned, err := AssignGrid(makeGrid(4))
	if err != nil {
		t.Fatal(err)
	}

	rows := DataRows(assigned)
	if len(rows) != 3 {
		t.Fatalf("got %d data rows, want 3 (header excluded)", len(rows))
	}
	for i, row := range rows {
		if len(row) != SchemaColumns {
			t.Fatalf("row %d has %d cells", i, len(row))
		}
		if row[0].Row != i+1 {
			t.Errorf("row %d carries grid row %d, want %d", i, row[0].Row, i+1)
		}
		for col, c := range row {
			if c.Col != col {
				t.Errorf("row %d cell %d has Col=%d", i, col, c.Col)
			}
		}
	}
}

func TestCellRegionGeometry(t *testing.T) {
	c := CellRegion{X: 110, Y: 60, Width: 100, Height: 50}

	region := c.Region()
	if region.X != 110 || region.Y != 60 || region.Width != 100 || region.Height != 50 {
		t.Errorf("Region() = %+v", region)
	}
	if center := region.Center(); center.X != 160 || center.Y != 85 {
		t.Errorf("Center() = (%g,%g), want (160,85)", center.X, center.Y)
	}
	if region.Area() != 5000 {
		t.Errorf("Area() = %d, want 5000", region.Area())
	}
}

func TestHeaderCells(t *testing.T) {
	assigned, err := AssignGrid(makeGrid(2))
	if err != nil {
		t.Fatal(err)
	}
	header := HeaderCells(assigned)
	if len(header) != SchemaColumns {
		t.Fatalf("got %d header cells, want %d", len(header), SchemaColumns)
	}
	for col, c := range header {
		if c.Row != HeaderRow || c.Col != col {
			t.Errorf("header cell %d assigned (%d,%d)", col, c.Row, c.Col)
		}
	}
}
