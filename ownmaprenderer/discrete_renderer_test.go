package ownmaprenderer

import (
	"image"
	"math"
	"testing"

	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHillshadeRenderer_RenderDiscrete(t *testing.T) {
	renderer := newTestRenderer(t)

	grid, err := ownmap.NewElevationGridFromRows([][]float64{
		{0, 10, 45, 55},
		{90, 100, 500, math.NaN()},
	})
	require.NoError(t, err)

	size := ownmap.TileSize{Width: 4, Height: 2}
	params := ownmap.DiscreteParameters{
		Colormap: "Greys_r",
		NClasses: 2,
		TileSize: size,
		Format:   FormatPNG,
	}

	reader, err := renderer.RenderDiscrete(grid, params, ownmap.ValueRange{Min: 0, Max: 100}, 1)
	require.NoError(t, err)

	img := decodePNG(t, reader)
	require.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())

	low := decodeNRGBA(t, img, 0, 0)
	high := decodeNRGBA(t, img, 0, 1)
	assert.NotEqual(t, low, high)

	assert.Equal(t, low, decodeNRGBA(t, img, 1, 0))
	assert.Equal(t, low, decodeNRGBA(t, img, 2, 0))
	assert.Equal(t, high, decodeNRGBA(t, img, 3, 0))
	assert.Equal(t, high, decodeNRGBA(t, img, 1, 1))

	// clipped to the top class
	assert.Equal(t, high, decodeNRGBA(t, img, 2, 1))

	assert.Equal(t, uint8(0), decodeNRGBA(t, img, 3, 1).A)
}

func TestHillshadeRenderer_RenderDiscrete_stretch(t *testing.T) {
	renderer := newTestRenderer(t)

	grid, err := ownmap.NewElevationGridFromRows([][]float64{{20, 30}})
	require.NoError(t, err)

	vmin, vmax := 25.0, 35.0
	params := ownmap.DiscreteParameters{
		Colormap: "Greys_r",
		NClasses: 2,
		VMin:     &vmin,
		VMax:     &vmax,
		TileSize: ownmap.TileSize{Width: 2, Height: 1},
	}

	reader, err := renderer.RenderDiscrete(grid, params, ownmap.ValueRange{Min: 0, Max: 100}, 1)
	require.NoError(t, err)

	img := decodePNG(t, reader)
	assert.NotEqual(t, decodeNRGBA(t, img, 0, 0), decodeNRGBA(t, img, 1, 0))

	params.NClasses = 0
	_, err = renderer.RenderDiscrete(grid, params, ownmap.ValueRange{Min: 0, Max: 100}, 1)
	require.Error(t, err)

	params.NClasses = 2
	inverted := 10.0
	params.VMax = &inverted
	_, err = renderer.RenderDiscrete(grid, params, ownmap.ValueRange{Min: 0, Max: 100}, 1)
	require.Error(t, err)
}

func TestHillshadeRenderer_RenderDiscrete_unknownColormapFallsBackToViridis(t *testing.T) {
	renderer := newTestRenderer(t)

	grid, err := ownmap.NewElevationGridFromRows([][]float64{{0, 50, 100}})
	require.NoError(t, err)

	params := ownmap.DiscreteParameters{
		Colormap: "not-a-colormap",
		NClasses: 3,
		TileSize: ownmap.TileSize{Width: 3, Height: 1},
	}
	valueRange := ownmap.ValueRange{Min: 0, Max: 100}

	unknownReader, err := renderer.RenderDiscrete(grid, params, valueRange, 1)
	require.NoError(t, err)

	params.Colormap = ownmap.DefaultDiscreteColormap
	viridisReader, err := renderer.RenderDiscrete(grid, params, valueRange, 1)
	require.NoError(t, err)

	params.Colormap = ownmap.DefaultHillshadeColormap
	greysReader, err := renderer.RenderDiscrete(grid, params, valueRange, 1)
	require.NoError(t, err)

	unknownImg := decodePNG(t, unknownReader)
	viridisImg := decodePNG(t, viridisReader)
	greysImg := decodePNG(t, greysReader)

	for x := 0; x < 3; x++ {
		assert.Equal(t, decodeNRGBA(t, viridisImg, x, 0), decodeNRGBA(t, unknownImg, x, 0))
	}
	assert.NotEqual(t, decodeNRGBA(t, greysImg, 0, 0), decodeNRGBA(t, unknownImg, 0, 0))
}
