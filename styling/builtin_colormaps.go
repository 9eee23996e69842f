package styling

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/mazznoer/colorgrad"
)

const BUILTIN_DEFAULT_COLORMAP_ID = ownmap.DefaultHillshadeColormap

var presetGradients = map[string]func() colorgrad.Gradient{
	"viridis":  colorgrad.Viridis,
	"inferno":  colorgrad.Inferno,
	"magma":    colorgrad.Magma,
	"plasma":   colorgrad.Plasma,
	"cividis":  colorgrad.Cividis,
	"turbo":    colorgrad.Turbo,
	"rainbow":  colorgrad.Rainbow,
	"Spectral": colorgrad.Spectral,
	"RdYlGn":   colorgrad.RdYlGn,
	"RdYlBu":   colorgrad.RdYlBu,
	"RdBu":     colorgrad.RdBu,
	"BrBG":     colorgrad.BrBG,
	"PuOr":     colorgrad.PuOr,
	"PiYG":     colorgrad.PiYG,
	"Blues":    colorgrad.Blues,
	"Greens":   colorgrad.Greens,
	"Greys":    colorgrad.Greys,
	"Oranges":  colorgrad.Oranges,
	"Purples":  colorgrad.Purples,
	"Reds":     colorgrad.Reds,
	"YlGnBu":   colorgrad.YlGnBu,
	"YlOrRd":   colorgrad.YlOrRd,
}

// terrain stops, as in matplotlib's "terrain" colormap
func terrainGradient() (colorgrad.Gradient, error) {
	return colorgrad.NewGradient().
		HtmlColors("#333399", "#0099ff", "#00cc66", "#ffff99", "#805c54", "#ffffff").
		Domain(0, 0.15, 0.25, 0.5, 0.75, 1).
		Build()
}

// BuiltinColormaps returns every built-in colormap, plus its "_r" reversed variant.
func BuiltinColormaps() ([]Colormap, errorsx.Error) {
	var colormaps []Colormap
	for name, newGradient := range presetGradients {
		colormap := NewGradientColormap(name, newGradient())
		colormaps = append(colormaps, colormap, colormap.Reversed())
	}

	terrain, err := terrainGradient()
	if err != nil {
		return nil, errorsx.Wrap(err, "colormap", "terrain")
	}

	terrainColormap := NewGradientColormap("terrain", terrain)
	colormaps = append(colormaps, terrainColormap, terrainColormap.Reversed())

	return colormaps, nil
}

// NewBuiltinColormapSet returns a registry of the built-in colormaps, defaulting to reversed greys.
func NewBuiltinColormapSet() (*ColormapSet, errorsx.Error) {
	colormaps, err := BuiltinColormaps()
	if err != nil {
		return nil, err
	}

	return NewColormapSet(colormaps, BUILTIN_DEFAULT_COLORMAP_ID)
}
