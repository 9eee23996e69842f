package ownmap

import (
	"math"

	"github.com/jamesrr39/goutil/errorsx"
)

// ElevationGrid is a row-major grid of elevation samples (row 0 is the
// northern edge of the tile). Missing samples are tracked in a validity
// bitmap rather than with NaN sentinels.
type ElevationGrid struct {
	Width  int
	Height int
	values []float64
	valid  []bool
}

// NewElevationGrid creates a grid where every sample is no-data.
func NewElevationGrid(width, height int) *ElevationGrid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	return &ElevationGrid{
		Width:  width,
		Height: height,
		values: make([]float64, width*height),
		valid:  make([]bool, width*height),
	}
}

// NewElevationGridFromValues creates a grid from row-major values.
// NaN and infinite values are recorded as no-data.
func NewElevationGridFromValues(width, height int, values []float64) (*ElevationGrid, errorsx.Error) {
	if width <= 0 || height <= 0 {
		return nil, errorsx.Wrap(ErrMalformedGrid, "width", width, "height", height)
	}

	if len(values) != width*height {
		return nil, errorsx.Wrap(ErrMalformedGrid, "width", width, "height", height, "valueCount", len(values))
	}

	grid := NewElevationGrid(width, height)
	for i, value := range values {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}
		grid.values[i] = value
		grid.valid[i] = true
	}

	return grid, nil
}

// NewElevationGridFromRows creates a grid from a slice of rows. All rows must have the same length.
func NewElevationGridFromRows(rows [][]float64) (*ElevationGrid, errorsx.Error) {
	if len(rows) == 0 {
		return nil, errorsx.Wrap(ErrMalformedGrid, "reason", "no rows")
	}

	width := len(rows[0])
	values := make([]float64, 0, width*len(rows))
	for rowIdx, row := range rows {
		if len(row) != width {
			return nil, errorsx.Wrap(ErrMalformedGrid, "reason", "ragged rows", "row", rowIdx, "rowLength", len(row), "expectedLength", width)
		}
		values = append(values, row...)
	}

	return NewElevationGridFromValues(width, len(rows), values)
}

// Validate checks the grid's dimensions and internal consistency.
func (g *ElevationGrid) Validate() errorsx.Error {
	if g == nil {
		return errorsx.Wrap(ErrMalformedGrid, "reason", "nil grid")
	}

	if g.Width <= 0 || g.Height <= 0 {
		return errorsx.Wrap(ErrMalformedGrid, "width", g.Width, "height", g.Height)
	}

	if len(g.values) != g.Width*g.Height || len(g.valid) != g.Width*g.Height {
		return errorsx.Wrap(ErrMalformedGrid, "reason", "sample count does not match dimensions", "width", g.Width, "height", g.Height)
	}

	return nil
}

// InBounds reports whether (x, y) addresses a cell in the grid.
func (g *ElevationGrid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// At returns the sample at (x, y). ok is false for no-data or out of bounds cells.
func (g *ElevationGrid) At(x, y int) (value float64, ok bool) {
	if !g.InBounds(x, y) {
		return 0, false
	}

	idx := y*g.Width + x
	if !g.valid[idx] {
		return 0, false
	}

	return g.values[idx], true
}

// Set stores a sample. NaN or infinite values mark the cell as no-data.
func (g *ElevationGrid) Set(x, y int, value float64) {
	if !g.InBounds(x, y) {
		return
	}

	idx := y*g.Width + x
	if math.IsNaN(value) || math.IsInf(value, 0) {
		g.values[idx] = 0
		g.valid[idx] = false
		return
	}

	g.values[idx] = value
	g.valid[idx] = true
}

func (g *ElevationGrid) SetNoData(x, y int) {
	g.Set(x, y, math.NaN())
}

// Size returns the grid dimensions as a tile size.
func (g *ElevationGrid) Size() TileSize {
	return TileSize{Width: g.Width, Height: g.Height}
}

// ValidRange returns the min and max of the valid samples. ok is false if there are no valid samples.
func (g *ElevationGrid) ValidRange() (vr ValueRange, ok bool) {
	for i, isValid := range g.valid {
		if !isValid {
			continue
		}

		value := g.values[i]
		if !ok {
			vr = ValueRange{Min: value, Max: value}
			ok = true
			continue
		}

		vr.Min = math.Min(vr.Min, value)
		vr.Max = math.Max(vr.Max, value)
	}

	return vr, ok
}
