package ownmaprenderer

import (
	"bytes"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmap/maprenderer"
	"github.com/jamesrr39/ownmap-hillshade/styling"
)

var _ maprenderer.MapRenderer = &HillshadeRenderer{}

// HillshadeRenderer renders elevation grids into encoded images. It holds no per-render state and is safe for concurrent use.
type HillshadeRenderer struct {
	colormapSet *styling.ColormapSet
}

func NewHillshadeRenderer(colormapSet *styling.ColormapSet) *HillshadeRenderer {
	return &HillshadeRenderer{colormapSet}
}

func (r *HillshadeRenderer) ColormapSet() *styling.ColormapSet {
	return r.colormapSet
}

// RenderHillshade shades and encodes one tile. tile may be nil, in which case a unit ground distance is used.
// Invalid inputs give an error wrapping one of the package's (or ownmap's) Err values, and no image.
func (r *HillshadeRenderer) RenderHillshade(grid *ownmap.ElevationGrid, tile *ownmap.TileCoordinate, params ownmap.RenderParameters, valueRange ownmap.ValueRange, compressionLevel int) (*bytes.Reader, errorsx.Error) {
	err := validateGridSize(grid, params.TileSize)
	if err != nil {
		return nil, err
	}

	encoder, err := NewEncoder(params.Format, compressionLevel)
	if err != nil {
		return nil, err
	}

	normalizer, err := NewNormalizer(valueRange, false)
	if err != nil {
		return nil, err
	}

	blendMode, err := ParseBlendMode(string(params.BlendMode))
	if err != nil {
		return nil, err
	}

	dx, dy := ResolutionForTile(tile)

	raster, err := Shade(grid, ShadeOptions{
		Light:                LightVector(params.AzimuthDeg, params.AltitudeDeg),
		Colormap:             r.colormapSet.Get(params.Colormap),
		BlendMode:            blendMode,
		VerticalExaggeration: params.VerticalExaggeration,
		Dx:                   dx,
		Dy:                   dy,
		Normalizer:           normalizer,
	})
	if err != nil {
		return nil, err
	}

	return EncodeRaster(raster, encoder)
}

// RenderEmptyTile encodes a fully transparent tile.
func (r *HillshadeRenderer) RenderEmptyTile(size ownmap.TileSize, format string, compressionLevel int) (*bytes.Reader, errorsx.Error) {
	err := size.Validate()
	if err != nil {
		return nil, err
	}

	encoder, err := NewEncoder(format, compressionLevel)
	if err != nil {
		return nil, err
	}

	raster := NewRaster(size.Width, size.Height)
	for i := range raster.Pix {
		raster.Pix[i] = styling.NoDataColor
	}

	return EncodeRaster(raster, encoder)
}

func validateGridSize(grid *ownmap.ElevationGrid, size ownmap.TileSize) errorsx.Error {
	err := grid.Validate()
	if err != nil {
		return err
	}

	if grid.Size() != size {
		return errorsx.Wrap(
			ownmap.ErrMalformedGrid,
			"reason", "grid size does not match tile size",
			"gridWidth", grid.Width, "gridHeight", grid.Height,
			"tileWidth", size.Width, "tileHeight", size.Height,
		)
	}

	return nil
}
