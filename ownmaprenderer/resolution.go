package ownmaprenderer

import "github.com/jamesrr39/ownmap-hillshade/ownmap"

// tileResolutions is the ground sample distance (meters per pixel) of a 256px tile at each zoom level, starting at zoom 0.
var tileResolutions = [...]float64{
	156412, 78206, 39103, 19551, 9776, 4888, 2444, 1222,
	610.984, // adjusted
	305.492, 152.746, 76.373, 38.187, 19.093, 9.547, 4.773, 2.387,
	1.193, 0.596, 0.298, 0.149,
}

// ResolutionForZoom returns the ground distance covered by one pixel along x and y.
// Zoom levels outside the table fall back to a unit distance.
func ResolutionForZoom(zoom int) (dx, dy float64) {
	if zoom < 0 || zoom >= len(tileResolutions) {
		return 1, 1
	}

	res := tileResolutions[zoom]
	return res, res
}

// ResolutionForTile is as ResolutionForZoom, with a nil tile giving a unit distance.
func ResolutionForTile(tile *ownmap.TileCoordinate) (dx, dy float64) {
	if tile == nil {
		return 1, 1
	}

	return ResolutionForZoom(int(tile.Z))
}
