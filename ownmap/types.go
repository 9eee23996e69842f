package ownmap

import (
	"errors"
	"image/color"
	"math"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/osm"
)

var (
	ErrInvalidValueRange = errors.New("invalid value range")
	ErrMalformedGrid     = errors.New("malformed elevation grid")
)

type ZoomLevel int

const (
	MinZoomLevel ZoomLevel = 0
	MaxZoomLevel ZoomLevel = 30
)

// TileCoordinate identifies an XYZ (slippy map) tile.
type TileCoordinate struct {
	X int       `json:"x"`
	Y int       `json:"y"`
	Z ZoomLevel `json:"z"`
}

// TileSize is the pixel size of a rendered tile.
type TileSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (ts TileSize) Validate() errorsx.Error {
	if ts.Width <= 0 || ts.Height <= 0 {
		return errorsx.Errorf("tile size must be positive, but got %dx%d", ts.Width, ts.Height)
	}

	return nil
}

// ValueRange is the min and max of the valid elevation values in a dataset.
type ValueRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Validate checks that the range is finite and that Min < Max.
// A range where Min == Max is degenerate and treated as invalid.
func (vr ValueRange) Validate() errorsx.Error {
	if math.IsNaN(vr.Min) || math.IsInf(vr.Min, 0) || math.IsNaN(vr.Max) || math.IsInf(vr.Max, 0) {
		return errorsx.Wrap(ErrInvalidValueRange, "reason", "non-finite", "min", vr.Min, "max", vr.Max)
	}

	if vr.Min > vr.Max {
		return errorsx.Wrap(ErrInvalidValueRange, "reason", "inverted", "min", vr.Min, "max", vr.Max)
	}

	if vr.Min == vr.Max {
		return errorsx.Wrap(ErrInvalidValueRange, "reason", "degenerate", "min", vr.Min, "max", vr.Max)
	}

	return nil
}

// RGBA is a floating point colour. Channels are nominally in [0,1] but are
// allowed to overshoot until the raster is quantized.
type RGBA struct {
	R, G, B, A float64
}

// Bounds is a lat/lon bounding box, stored in a form that can be marshalled to JSON.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLon"`
	MaxLon float64 `json:"maxLon"`
}

func (b *Bounds) ToOSMBounds() osm.Bounds {
	return osm.Bounds{
		MinLat: b.MinLat,
		MaxLat: b.MaxLat,
		MinLon: b.MinLon,
		MaxLon: b.MaxLon,
	}
}

// DatasetMetadata describes an elevation dataset held by a storage driver.
type DatasetMetadata struct {
	Name    string     `json:"name"`
	Range   ValueRange `json:"range"`
	Bounds  *Bounds    `json:"bounds,omitempty"`
	MinZoom ZoomLevel  `json:"minZoom"`
	MaxZoom ZoomLevel  `json:"maxZoom"`
}

// Footprint returns the bounds of the dataset, or the whole world if the dataset doesn't declare any bounds.
func (m *DatasetMetadata) Footprint() osm.Bounds {
	if m.Bounds == nil {
		return GetWholeWorldBounds()
	}

	return m.Bounds.ToOSMBounds()
}

// ToNRGBA clamps each channel to [0,1] and quantizes it to 8 bits, rounding to the nearest step.
func (c RGBA) ToNRGBA() color.NRGBA {
	return color.NRGBA{
		R: quantizeChannel(c.R),
		G: quantizeChannel(c.G),
		B: quantizeChannel(c.B),
		A: quantizeChannel(c.A),
	}
}

func quantizeChannel(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}
