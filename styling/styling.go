package styling

import (
	"math"
	"sort"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
)

// NoDataColor is the colour given to cells without a valid sample. It is fully transparent.
var NoDataColor = ownmap.RGBA{}

// Colormap maps a normalized scalar to a colour.
type Colormap interface {
	// At returns the colour for t. Values outside [0,1] take the colour at the nearest end of the map, NaN is NoDataColor.
	At(t float64) ownmap.RGBA
	GetColormapID() string
}

// ColormapSet is a registry of colormaps keyed by name, with a fallback for unknown names.
type ColormapSet struct {
	colormapsMap      map[string]Colormap // map[Colormap ID]Colormap
	defaultColormapID string
}

func NewColormapSet(colormaps []Colormap, defaultColormapID string) (*ColormapSet, errorsx.Error) {
	colormapSet := &ColormapSet{
		colormapsMap:      make(map[string]Colormap),
		defaultColormapID: defaultColormapID,
	}

	defaultIDFound := false

	for _, colormap := range colormaps {
		colormapID := colormap.GetColormapID()
		_, ok := colormapSet.colormapsMap[colormapID]
		if ok {
			return nil, errorsx.Errorf("duplicate colormap ID found: %q", colormapID)
		}

		colormapSet.colormapsMap[colormapID] = colormap

		if defaultColormapID == colormapID {
			defaultIDFound = true
		}
	}

	if !defaultIDFound {
		return nil, errorsx.Errorf("default ID %q not found in any supplied colormaps", defaultColormapID)
	}

	return colormapSet, nil
}

// GetColormapByID returns the colormap registered under id, or nil if there isn't one.
func (s *ColormapSet) GetColormapByID(id string) Colormap {
	return s.colormapsMap[id]
}

// Get resolves a colormap by name. Unknown names resolve to the default colormap.
func (s *ColormapSet) Get(name string) Colormap {
	colormap := s.GetColormapByID(name)
	if colormap == nil {
		return s.GetDefaultColormap()
	}

	return colormap
}

func (s *ColormapSet) GetDefaultColormap() Colormap {
	return s.colormapsMap[s.defaultColormapID]
}

// ColorAt maps a normalized value to a colour with the named colormap.
func (s *ColormapSet) ColorAt(t float64, name string) ownmap.RGBA {
	if math.IsNaN(t) {
		return NoDataColor
	}

	return s.Get(name).At(t)
}

func (s *ColormapSet) GetAllColormapIDs() []string {
	var colormapIDs []string

	for id := range s.colormapsMap {
		colormapIDs = append(colormapIDs, id)
	}

	sort.Strings(colormapIDs)

	return colormapIDs
}

type ColormapEntry struct {
	Value float64  `json:"value"`
	RGBA  [4]uint8 `json:"rgba"`
}

// Sample returns numValues evenly spaced entries of a colormap between stretchMin and stretchMax.
func (s *ColormapSet) Sample(name string, stretchMin, stretchMax float64, numValues int) ([]ColormapEntry, errorsx.Error) {
	if numValues < 1 {
		return nil, errorsx.Errorf("number of values must be at least 1, but got %d", numValues)
	}

	if math.IsNaN(stretchMin) || math.IsNaN(stretchMax) || math.IsInf(stretchMin, 0) || math.IsInf(stretchMax, 0) {
		return nil, errorsx.Errorf("stretch range must be finite, but got [%v, %v]", stretchMin, stretchMax)
	}

	if stretchMin > stretchMax {
		return nil, errorsx.Errorf("stretch range is inverted: [%v, %v]", stretchMin, stretchMax)
	}

	colormap := s.Get(name)

	entries := make([]ColormapEntry, numValues)
	for i := range entries {
		t := 0.0
		if numValues > 1 {
			t = float64(i) / float64(numValues-1)
		}

		c := colormap.At(t).ToNRGBA()
		entries[i] = ColormapEntry{
			Value: stretchMin + t*(stretchMax-stretchMin),
			RGBA:  [4]uint8{c.R, c.G, c.B, c.A},
		}
	}

	return entries, nil
}
