package ownmap

import (
	"math"

	"github.com/paulmach/osm"
)

// Overlaps checks whether an item is at least partially inside a container
func Overlaps(container osm.Bounds, item osm.Bounds) bool {
	if container.MinLat > item.MaxLat || container.MaxLat < item.MinLat {
		// wholly above or below
		return false
	}

	if container.MinLon > item.MaxLon || container.MaxLon < item.MinLon {
		// wholly to the left or right
		return false
	}

	return true
}

func IsTotallyInside(container osm.Bounds, item osm.Bounds) bool {
	return item.MaxLat <= container.MaxLat && item.MaxLon <= container.MaxLon && item.MinLat >= container.MinLat && item.MinLon >= container.MinLon
}

func GetWholeWorldBounds() osm.Bounds {
	return osm.Bounds{
		MaxLat: 90,
		MinLat: -90,
		MaxLon: 180,
		MinLon: -180,
	}
}

// Center returns the centre point of a bounds
func Center(bounds osm.Bounds) (lat, lon float64) {
	return (bounds.MinLat + bounds.MaxLat) / 2, (bounds.MinLon + bounds.MaxLon) / 2
}

// clampLat keeps a latitude inside the range Web Mercator can project
func clampLat(lat float64) float64 {
	const maxMercatorLat = 85.0511287798
	return math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
}
