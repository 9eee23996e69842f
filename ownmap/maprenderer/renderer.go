package maprenderer

import (
	"bytes"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
)

type MapRenderer interface {
	RenderHillshade(grid *ownmap.ElevationGrid, tile *ownmap.TileCoordinate, params ownmap.RenderParameters, valueRange ownmap.ValueRange, compressionLevel int) (*bytes.Reader, errorsx.Error)
	RenderDiscrete(grid *ownmap.ElevationGrid, params ownmap.DiscreteParameters, valueRange ownmap.ValueRange, compressionLevel int) (*bytes.Reader, errorsx.Error)
	RenderContour(grid *ownmap.ElevationGrid, params ownmap.ContourParameters, valueRange ownmap.ValueRange, compressionLevel int) (*bytes.Reader, errorsx.Error)
	RenderEmptyTile(size ownmap.TileSize, format string, compressionLevel int) (*bytes.Reader, errorsx.Error)
}
