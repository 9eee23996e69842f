package webservices

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"

	"github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
	"github.com/jamesrr39/ownmap-hillshade/ownmaprenderer"
)

// statusCodeForRenderError maps invalid render inputs to 400 and everything else to 500.
func statusCodeForRenderError(err error) int {
	switch errorsx.Cause(err) {
	case ownmap.ErrInvalidValueRange,
		ownmaprenderer.ErrUnsupportedBlendMode,
		ownmaprenderer.ErrInvalidVerticalExaggeration,
		ownmaprenderer.ErrInvalidResolution,
		ownmaprenderer.ErrInvalidCompressionLevel,
		ownmaprenderer.ErrInvalidInterval,
		ownmaprenderer.ErrUnsupportedFormat:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// getDatasetMetadata looks up a dataset by name. The returned status code is only meaningful if the error is not nil.
func getDatasetMetadata(ctx context.Context, dbConnSet *ownmapdal.DBConnSet, datasetName string) (ownmapdal.DataSourceConn, *ownmap.DatasetMetadata, int, errorsx.Error) {
	conn := dbConnSet.GetConn(datasetName)
	if conn == nil {
		return nil, nil, http.StatusNotFound, errorsx.Errorf("dataset %q not found", datasetName)
	}

	span := tracing.StartSpan(ctx, "get metadata")
	metadata, err := conn.GetMetadata(ctx)
	span.End(ctx)
	if err != nil {
		return nil, nil, http.StatusInternalServerError, errorsx.Wrap(err, "dataset", datasetName)
	}

	return conn, metadata, 0, nil
}

// fetchTileGrid fetches the elevation grid for a tile. A nil grid with no error means the dataset has no data for the tile.
func fetchTileGrid(ctx context.Context, conn ownmapdal.DataSourceConn, metadata *ownmap.DatasetMetadata, tile ownmap.TileCoordinate, size ownmap.TileSize) (*ownmap.ElevationGrid, errorsx.Error) {
	if !ownmap.Overlaps(metadata.Footprint(), tile.Bounds()) {
		return nil, nil
	}

	span := tracing.StartSpan(ctx, "get tile data")
	grid, err := conn.GetTileData(ctx, tile, size)
	span.End(ctx)
	if err != nil {
		if errorsx.Cause(err) == ownmapdal.ErrNoDataAvailable {
			return nil, nil
		}
		return nil, errorsx.Wrap(err, "dataset", conn.Name(), "tile", tile)
	}

	return grid, nil
}

func writeImage(w http.ResponseWriter, logger *logpkg.Logger, img *bytes.Reader, format string) {
	w.Header().Set("Content-Type", ownmaprenderer.ContentTypeForFormat(format))

	_, err := io.Copy(w, img)
	if err != nil {
		switch err.(type) {
		case *net.OpError:
			// broken pipe (request cancelled). Do nothing
		default:
			errorsx.HTTPError(w, logger, errorsx.Wrap(err), http.StatusInternalServerError)
		}
		return
	}
}
