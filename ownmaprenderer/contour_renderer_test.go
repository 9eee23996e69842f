package ownmaprenderer

import (
	"image"
	"math"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contourRed = ownmap.RGBA{R: 1, A: 1}

func contourSlopeGrid(size ownmap.TileSize) *ownmap.ElevationGrid {
	grid := ownmap.NewElevationGrid(size.Width, size.Height)
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			grid.Set(x, y, float64(x*10))
		}
	}
	return grid
}

func countVisible(t *testing.T, img image.Image) int {
	var count int
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if decodeNRGBA(t, img, x, y).A > 0 {
				count++
			}
		}
	}
	return count
}

func TestContourLevels(t *testing.T) {
	levels, err := ContourLevels(ownmap.ValueRange{Min: 0, Max: 10}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 3, 6, 9}, levels)

	levels, err = ContourLevels(ownmap.ValueRange{Min: -10, Max: 10}, 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{-10, 0}, levels)

	for _, interval := range []float64{0, -5, math.NaN(), math.Inf(1), 0.0001} {
		_, err = ContourLevels(ownmap.ValueRange{Min: 0, Max: 1000}, interval)
		require.Error(t, err)
		assert.Equal(t, ErrInvalidInterval, errorsx.Cause(err))
	}

	_, err = ContourLevels(ownmap.ValueRange{Min: 5, Max: 5}, 1)
	require.Error(t, err)
	assert.Equal(t, ownmap.ErrInvalidValueRange, errorsx.Cause(err))
}

func TestContourSegments(t *testing.T) {
	t.Run("straight line", func(t *testing.T) {
		grid, err := ownmap.NewElevationGridFromRows([][]float64{
			{0, 10},
			{0, 10},
		})
		require.NoError(t, err)

		segments := ContourSegments(grid, 5)
		assert.Equal(t, []ContourSegment{
			{From: ContourPoint{X: 1, Y: 0.5}, To: ContourPoint{X: 1, Y: 1.5}},
		}, segments)
	})

	t.Run("saddle joined through the centre", func(t *testing.T) {
		grid, err := ownmap.NewElevationGridFromRows([][]float64{
			{10, 0},
			{0, 10},
		})
		require.NoError(t, err)

		segments := ContourSegments(grid, 5)
		assert.Equal(t, []ContourSegment{
			{From: ContourPoint{X: 1, Y: 0.5}, To: ContourPoint{X: 1.5, Y: 1}},
			{From: ContourPoint{X: 1, Y: 1.5}, To: ContourPoint{X: 0.5, Y: 1}},
		}, segments)
	})

	t.Run("no-data corner", func(t *testing.T) {
		grid, err := ownmap.NewElevationGridFromRows([][]float64{
			{0, 10},
			{0, math.NaN()},
		})
		require.NoError(t, err)

		assert.Empty(t, ContourSegments(grid, 5))
	})

	t.Run("level not crossed", func(t *testing.T) {
		grid, err := ownmap.NewElevationGridFromRows([][]float64{
			{0, 10},
			{0, 10},
		})
		require.NoError(t, err)

		assert.Empty(t, ContourSegments(grid, 50))
	})
}

func TestHillshadeRenderer_RenderContour(t *testing.T) {
	renderer := newTestRenderer(t)

	size := ownmap.TileSize{Width: 16, Height: 16}
	params := ownmap.ContourParameters{
		Color:    contourRed,
		Interval: 40,
		TileSize: size,
		Format:   FormatPNG,
	}

	reader, err := renderer.RenderContour(contourSlopeGrid(size), params, ownmap.ValueRange{Min: 0, Max: 160}, 1)
	require.NoError(t, err)

	img := decodePNG(t, reader)
	require.Equal(t, image.Rect(0, 0, 16, 16), img.Bounds())

	// the 40m line runs down the centre of column 4
	assert.NotZero(t, decodeNRGBA(t, img, 4, 8).A)
	assert.Zero(t, decodeNRGBA(t, img, 1, 8).A)

	assert.NotZero(t, countVisible(t, img))

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			c := decodeNRGBA(t, img, x, y)
			if c.A == 0 {
				continue
			}
			assert.Zero(t, c.G)
			assert.Zero(t, c.B)
		}
	}
}

func TestHillshadeRenderer_RenderContour_flat(t *testing.T) {
	renderer := newTestRenderer(t)

	size := ownmap.TileSize{Width: 8, Height: 8}
	grid := ownmap.NewElevationGrid(size.Width, size.Height)
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			grid.Set(x, y, 500)
		}
	}

	params := ownmap.ContourParameters{Color: contourRed, Interval: 100, TileSize: size}
	reader, err := renderer.RenderContour(grid, params, ownmap.ValueRange{Min: 0, Max: 1000}, 1)
	require.NoError(t, err)

	assert.Zero(t, countVisible(t, decodePNG(t, reader)))
}

func TestHillshadeRenderer_RenderContour_skipsNoData(t *testing.T) {
	renderer := newTestRenderer(t)

	size := ownmap.TileSize{Width: 16, Height: 16}
	grid := contourSlopeGrid(size)
	for y := 0; y < size.Height; y++ {
		for x := 1; x < size.Width; x += 2 {
			grid.SetNoData(x, y)
		}
	}

	params := ownmap.ContourParameters{Color: contourRed, Interval: 40, TileSize: size}
	reader, err := renderer.RenderContour(grid, params, ownmap.ValueRange{Min: 0, Max: 160}, 1)
	require.NoError(t, err)

	// every cell has a no-data corner
	assert.Zero(t, countVisible(t, decodePNG(t, reader)))
}

func TestHillshadeRenderer_RenderContour_invalid(t *testing.T) {
	renderer := newTestRenderer(t)

	size := ownmap.TileSize{Width: 4, Height: 4}
	grid := contourSlopeGrid(size)
	valueRange := ownmap.ValueRange{Min: 0, Max: 40}

	_, err := renderer.RenderContour(grid, ownmap.ContourParameters{Interval: 0, TileSize: size}, valueRange, 1)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidInterval, errorsx.Cause(err))

	_, err = renderer.RenderContour(grid, ownmap.ContourParameters{Interval: 5, TileSize: ownmap.TileSize{Width: 8, Height: 8}}, valueRange, 1)
	require.Error(t, err)
	assert.Equal(t, ownmap.ErrMalformedGrid, errorsx.Cause(err))

	_, err = renderer.RenderContour(grid, ownmap.ContourParameters{Interval: 5, TileSize: size, Format: "bmp"}, valueRange, 1)
	require.Error(t, err)
	assert.Equal(t, ErrUnsupportedFormat, errorsx.Cause(err))
}
