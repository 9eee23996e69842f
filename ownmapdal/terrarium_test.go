package ownmapdal

import (
	"image/color"
	"math"
	"testing"

	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerrariumToElevation(t *testing.T) {
	assert.Equal(t, 0.0, TerrariumToElevation(color.NRGBA{R: 128, G: 0, B: 0, A: 255}))
	assert.Equal(t, 1.5, TerrariumToElevation(color.NRGBA{R: 128, G: 1, B: 128, A: 255}))
	assert.Equal(t, -32768.0, TerrariumToElevation(color.NRGBA{A: 255}))
}

func TestElevationToTerrarium(t *testing.T) {
	for _, elevation := range []float64{-420.5, 0, 1.5, 2469, 8848.25} {
		c := ElevationToTerrarium(elevation)
		assert.Equal(t, uint8(255), c.A)
		assert.InDelta(t, elevation, TerrariumToElevation(c), 1.0/256)
	}

	// out of the representable range
	assert.Equal(t, color.NRGBA{A: 255}, ElevationToTerrarium(-40000))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 254, A: 255}, ElevationToTerrarium(40000))
}

func TestEncodeDecodeTerrariumTile(t *testing.T) {
	grid, err := ownmap.NewElevationGridFromRows([][]float64{
		{100, 200.5},
		{math.NaN(), -10},
	})
	require.Nil(t, err)

	data, err := EncodeTerrariumTile(grid)
	require.Nil(t, err)

	decoded, err := DecodeTerrariumTile(data)
	require.Nil(t, err)
	assert.Equal(t, grid.Size(), decoded.Size())

	value, ok := decoded.At(0, 0)
	assert.True(t, ok)
	assert.Equal(t, 100.0, value)

	value, ok = decoded.At(1, 0)
	assert.True(t, ok)
	assert.Equal(t, 200.5, value)

	_, ok = decoded.At(0, 1)
	assert.False(t, ok, "no-data should survive encoding")

	value, ok = decoded.At(1, 1)
	assert.True(t, ok)
	assert.Equal(t, -10.0, value)
}

func TestDecodeTerrariumTile_notPNG(t *testing.T) {
	_, err := DecodeTerrariumTile([]byte("not a png"))
	assert.Error(t, err)
}

func TestResampleGrid(t *testing.T) {
	grid, err := ownmap.NewElevationGridFromRows([][]float64{
		{0, 10},
		{20, 30},
	})
	require.Nil(t, err)

	t.Run("same size is unchanged", func(t *testing.T) {
		resampled, err := ResampleGrid(grid, ownmap.TileSize{Width: 2, Height: 2})
		require.Nil(t, err)
		assert.Same(t, grid, resampled)
	})

	t.Run("upsample", func(t *testing.T) {
		resampled, err := ResampleGrid(grid, ownmap.TileSize{Width: 4, Height: 4})
		require.Nil(t, err)
		assert.Equal(t, ownmap.TileSize{Width: 4, Height: 4}, resampled.Size())

		corner, ok := resampled.At(0, 0)
		require.True(t, ok)
		assert.Equal(t, 0.0, corner)

		corner, ok = resampled.At(3, 3)
		require.True(t, ok)
		assert.Equal(t, 30.0, corner)

		// (1,1) samples the source at (0.25, 0.25)
		inner, ok := resampled.At(1, 1)
		require.True(t, ok)
		assert.InDelta(t, 7.5, inner, 1e-9)
	})

	t.Run("downsample", func(t *testing.T) {
		resampled, err := ResampleGrid(grid, ownmap.TileSize{Width: 1, Height: 1})
		require.Nil(t, err)

		value, ok := resampled.At(0, 0)
		require.True(t, ok)
		assert.InDelta(t, 15.0, value, 1e-9)
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := ResampleGrid(grid, ownmap.TileSize{Width: 0, Height: 4})
		assert.Error(t, err)
	})
}

func TestResampleGrid_noData(t *testing.T) {
	grid, err := ownmap.NewElevationGridFromRows([][]float64{
		{math.NaN(), 10},
		{20, 30},
	})
	require.Nil(t, err)

	resampled, err := ResampleGrid(grid, ownmap.TileSize{Width: 4, Height: 4})
	require.Nil(t, err)

	// nearest sample to the no-data corner is the no-data sample itself
	_, ok := resampled.At(0, 0)
	assert.False(t, ok)

	// (2,2) samples the source at (0.75, 0.75), nearest to the valid (1,1) sample
	value, ok := resampled.At(2, 2)
	require.True(t, ok)
	assert.Equal(t, 30.0, value)

	value, ok = resampled.At(3, 3)
	require.True(t, ok)
	assert.Equal(t, 30.0, value)
}
