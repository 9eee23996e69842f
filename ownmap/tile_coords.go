package ownmap

import (
	"math"

	"github.com/paulmach/osm"
)

// TileForLatLon returns the XYZ tile containing a point at the given zoom level.
func TileForLatLon(lat, lon float64, zoomLevel ZoomLevel) TileCoordinate {
	n := math.Exp2(float64(zoomLevel))
	latRad := clampLat(lat) * math.Pi / 180.0

	x := int(math.Floor((lon + 180.0) / 360.0 * n))
	y := int(math.Floor((1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n))

	maxIndex := int(n) - 1
	return TileCoordinate{
		X: clampInt(x, 0, maxIndex),
		Y: clampInt(y, 0, maxIndex),
		Z: zoomLevel,
	}
}

// Bounds returns the lat/lon bounds covered by the tile.
func (tc TileCoordinate) Bounds() osm.Bounds {
	n := math.Exp2(float64(tc.Z))

	return osm.Bounds{
		MinLat: tileYToLat(tc.Y+1, n),
		MaxLat: tileYToLat(tc.Y, n),
		MinLon: float64(tc.X)/n*360 - 180,
		MaxLon: float64(tc.X+1)/n*360 - 180,
	}
}

// IsValid reports whether x and y are inside the tile grid for the zoom level.
func (tc TileCoordinate) IsValid() bool {
	if tc.Z < MinZoomLevel || tc.Z > MaxZoomLevel {
		return false
	}

	n := 1 << uint(tc.Z)
	return tc.X >= 0 && tc.Y >= 0 && tc.X < n && tc.Y < n
}

func tileYToLat(y int, n float64) float64 {
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y)/n)))
	return latRad * 180 / math.Pi
}

func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
