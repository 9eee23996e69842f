package ownmap

import (
	"math"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewElevationGridFromValues(t *testing.T) {
	grid, err := NewElevationGridFromValues(2, 2, []float64{1, math.NaN(), math.Inf(-1), 4})
	require.Nil(t, err)

	value, ok := grid.At(0, 0)
	assert.True(t, ok)
	assert.Equal(t, 1.0, value)

	_, ok = grid.At(1, 0)
	assert.False(t, ok, "NaN should be no-data")

	_, ok = grid.At(0, 1)
	assert.False(t, ok, "infinity should be no-data")

	value, ok = grid.At(1, 1)
	assert.True(t, ok)
	assert.Equal(t, 4.0, value)

	_, ok = grid.At(2, 0)
	assert.False(t, ok, "out of bounds should be no-data")
}

func TestNewElevationGridFromValues_malformed(t *testing.T) {
	_, err := NewElevationGridFromValues(2, 2, []float64{1, 2, 3})
	require.NotNil(t, err)
	assert.Equal(t, ErrMalformedGrid, errorsx.Cause(err))

	_, err = NewElevationGridFromValues(0, 2, nil)
	require.NotNil(t, err)
	assert.Equal(t, ErrMalformedGrid, errorsx.Cause(err))
}

func TestNewElevationGridFromRows(t *testing.T) {
	grid, err := NewElevationGridFromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	require.Nil(t, err)
	assert.Equal(t, TileSize{Width: 3, Height: 2}, grid.Size())

	value, ok := grid.At(2, 1)
	assert.True(t, ok)
	assert.Equal(t, 6.0, value)

	_, err = NewElevationGridFromRows([][]float64{{1, 2}, {3}})
	require.NotNil(t, err)
	assert.Equal(t, ErrMalformedGrid, errorsx.Cause(err))

	_, err = NewElevationGridFromRows(nil)
	require.NotNil(t, err)
}

func TestElevationGrid_SetAndValidRange(t *testing.T) {
	grid := NewElevationGrid(3, 1)
	_, ok := grid.ValidRange()
	assert.False(t, ok)

	grid.Set(0, 0, 10)
	grid.Set(1, 0, -3)
	grid.Set(2, 0, 7)
	grid.SetNoData(2, 0)

	vr, ok := grid.ValidRange()
	require.True(t, ok)
	assert.Equal(t, ValueRange{Min: -3, Max: 10}, vr)
}

func TestElevationGrid_Validate(t *testing.T) {
	var nilGrid *ElevationGrid
	assert.NotNil(t, nilGrid.Validate())

	assert.NotNil(t, (&ElevationGrid{Width: 2, Height: 2}).Validate())
	assert.Nil(t, NewElevationGrid(2, 2).Validate())
}
