package ownmaprenderer

import (
	"math"
	"testing"

	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/stretchr/testify/assert"
)

func TestResolutionForZoom(t *testing.T) {
	tests := []struct {
		zoom       int
		expectedDx float64
	}{
		{0, 156412},
		{1, 78206},
		{8, 610.984},
		{20, 0.149},
		{-1, 1},
		{21, 1},
		{math.MaxInt32, 1},
		{math.MinInt32, 1},
	}

	for _, tt := range tests {
		dx, dy := ResolutionForZoom(tt.zoom)
		assert.Equal(t, tt.expectedDx, dx, "zoom: %d", tt.zoom)
		assert.Equal(t, dx, dy, "zoom: %d", tt.zoom)
	}
}

func TestResolutionForZoom_decreasing(t *testing.T) {
	for zoom := 1; zoom < len(tileResolutions); zoom++ {
		prev, _ := ResolutionForZoom(zoom - 1)
		this, _ := ResolutionForZoom(zoom)
		assert.Less(t, this, prev)
	}
}

func TestResolutionForTile(t *testing.T) {
	dx, dy := ResolutionForTile(nil)
	assert.Equal(t, 1.0, dx)
	assert.Equal(t, 1.0, dy)

	dx, dy = ResolutionForTile(&ownmap.TileCoordinate{X: 1, Y: 2, Z: 3})
	assert.Equal(t, 19551.0, dx)
	assert.Equal(t, 19551.0, dy)

	dx, _ = ResolutionForTile(&ownmap.TileCoordinate{Z: 25})
	assert.Equal(t, 1.0, dx)
}
