package table

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"attendance-scanner/pkg/geometry"
)

// AreaTolerance is the allowed ratio between a cell's area and the modal
// cell area. Candidates outside [modal/AreaTolerance, modal*AreaTolerance]
// are treated as scan noise or partial borders and rejected.
const AreaTolerance = 2.5

// FilterByModalArea drops rectangles whose area deviates beyond the given
// ratio tolerance from the modal (median) cell area.
func FilterByModalArea(cells []CellRegion, tolerance float64) []CellRegion {
	if len(cells) < 3 {
		return cells
	}

	areas := make([]float64, len(cells))
	for i, c := range cells {
		areas[i] = float64(c.Region().Area())
	}
	sort.Float64s(areas)
	modal := stat.Quantile(0.5, stat.Empirical, areas, nil)
	if modal <= 0 {
		return cells
	}

	kept := cells[:0]
	for _, c := range cells {
		ratio := float64(c.Region().Area()) / modal
		if ratio >= 1/tolerance && ratio <= tolerance {
			kept = append(kept, c)
		}
	}
	return kept
}

// AssignGrid clusters cell centers along each axis into rows and columns,
// assigns (row, col) indices, and returns the cells sorted by (row, col).
// Row 0 is the header; data rows follow in reading order.
func AssignGrid(cells []CellRegion) ([]CellRegion, error) {
	if len(cells) == 0 {
		return nil, &LayoutError{}
	}

	sorted := make([]CellRegion, len(cells))
	copy(sorted, cells)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Region().Center().Y < sorted[j].Region().Center().Y
	})

	// Cluster into rows: a cell joins the current row while its center stays
	// within half the median cell height of the row's running centroid.
	threshold := medianHeight(sorted) * 0.5
	var rows [][]CellRegion
	current := []CellRegion{sorted[0]}
	centers := []geometry.Point2D{sorted[0].Region().Center()}
	for _, c := range sorted[1:] {
		center := c.Region().Center()
		if math.Abs(center.Y-geometry.Centroid(centers).Y) < threshold {
			current = append(current, c)
			centers = append(centers, center)
		} else {
			rows = append(rows, current)
			current = []CellRegion{c}
			centers = []geometry.Point2D{center}
		}
	}
	rows = append(rows, current)

	if len(rows) < 2 {
		return nil, &LayoutError{Rows: len(rows), Columns: len(rows[0])}
	}

	var out []CellRegion
	for rowIdx, row := range rows {
		if len(row) != SchemaColumns {
			return nil, &LayoutError{Rows: len(rows), Columns: len(row)}
		}
		sort.Slice(row, func(i, j int) bool {
			return row[i].Region().Center().X < row[j].Region().Center().X
		})
		for colIdx, c := range row {
			c.Row = rowIdx
			c.Col = colIdx
			out = append(out, c)
		}
	}
	return out, nil
}

// DataRows groups assigned cells by row, skipping the header, and returns
// the rows in ascending order with cells ordered by column.
func DataRows(cells []CellRegion) [][]CellRegion {
	byRow := make(map[int][]CellRegion)
	maxRow := 0
	for _, c := range cells {
		if c.Row <= HeaderRow {
			continue
		}
		byRow[c.Row] = append(byRow[c.Row], c)
		if c.Row > maxRow {
			maxRow = c.Row
		}
	}

	var rows [][]CellRegion
	for r := HeaderRow + 1; r <= maxRow; r++ {
		row := byRow[r]
		if len(row) == 0 {
			continue
		}
		sort.Slice(row, func(i, j int) bool { return row[i].Col < row[j].Col })
		rows = append(rows, row)
	}
	return rows
}

// HeaderCells returns the header-row cells ordered by column.
func HeaderCells(cells []CellRegion) []CellRegion {
	var header []CellRegion
	for _, c := range cells {
		if c.Row == HeaderRow {
			header = append(header, c)
		}
	}
	sort.Slice(header, func(i, j int) bool { return header[i].Col < header[j].Col })
	return header
}

func medianHeight(cells []CellRegion) float64 {
	hs := make([]float64, len(cells))
	for i, c := range cells {
		hs[i] = float64(c.Height)
	}
	sort.Float64s(hs)
	return stat.Quantile(0.5, stat.Empirical, hs, nil)
}
