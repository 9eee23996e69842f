package ownmaprenderer

import (
	"bytes"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/styling"
)

// RenderDiscrete colours each cell by the class its elevation falls in, without shading.
// Elevations are clipped to [VMin, VMax], which default to the dataset's range.
func (r *HillshadeRenderer) RenderDiscrete(grid *ownmap.ElevationGrid, params ownmap.DiscreteParameters, valueRange ownmap.ValueRange, compressionLevel int) (*bytes.Reader, errorsx.Error) {
	err := validateGridSize(grid, params.TileSize)
	if err != nil {
		return nil, err
	}

	if params.NClasses < 1 {
		return nil, errorsx.Errorf("number of classes must be at least 1, but got %d", params.NClasses)
	}

	encoder, err := NewEncoder(params.Format, compressionLevel)
	if err != nil {
		return nil, err
	}

	stretch := valueRange
	if params.VMin != nil {
		stretch.Min = *params.VMin
	}
	if params.VMax != nil {
		stretch.Max = *params.VMax
	}

	normalizer, err := NewNormalizer(stretch, true)
	if err != nil {
		return nil, err
	}

	colormap := styling.NewClassifiedColormap(r.discreteColormap(params.Colormap), params.NClasses)

	raster := NewRaster(grid.Width, grid.Height)
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			elevation, ok := grid.At(x, y)
			if !ok {
				raster.Set(x, y, styling.NoDataColor)
				continue
			}

			raster.Set(x, y, colormap.At(normalizer.Normalize(elevation)))
		}
	}

	return EncodeRaster(raster, encoder)
}

// discreteColormap resolves name, falling back to viridis rather than the set's hillshade default.
func (r *HillshadeRenderer) discreteColormap(name string) styling.Colormap {
	colormap := r.colormapSet.GetColormapByID(name)
	if colormap != nil {
		return colormap
	}

	return r.colormapSet.Get(ownmap.DefaultDiscreteColormap)
}
