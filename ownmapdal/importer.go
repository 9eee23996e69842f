package ownmapdal

import (
	"context"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"golang.org/x/sync/errgroup"
)

// RawTile is a stored Terrarium PNG tile.
type RawTile struct {
	Coordinate ownmap.TileCoordinate
	Data       []byte
}

// TileSource is a dataset that can list and read back its stored tiles.
type TileSource interface {
	Name() string
	// GetMetadata returns ErrNoDataAvailable if the source doesn't have any metadata.
	GetMetadata(ctx context.Context) (*ownmap.DatasetMetadata, errorsx.Error)
	ListTiles(ctx context.Context) ([]ownmap.TileCoordinate, errorsx.Error)
	GetRawTile(ctx context.Context, tile ownmap.TileCoordinate) ([]byte, errorsx.Error)
}

// FinalStorage is a storage driver being written to by an import.
type FinalStorage interface {
	ImportTiles(tiles []*RawTile) errorsx.Error
	Commit(metadata *ownmap.DatasetMetadata) (DataSourceConn, errorsx.Error)
	Rollback() errorsx.Error
}

type ImportOptions struct {
	// Name overrides the dataset name from the source
	Name        string
	BatchSize   int
	Concurrency int
	// OnProgress, if set, is called after every batch
	OnProgress func(tilesDone, tilesTotal int)
}

func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		BatchSize:   256,
		Concurrency: 4,
	}
}

// Import copies every tile of source into finalStorage. If the source has no metadata, it is derived from the tiles.
// finalStorage is rolled back if the import fails.
func Import(ctx context.Context, logger *logpkg.Logger, source TileSource, finalStorage FinalStorage, opts ImportOptions) (DataSourceConn, errorsx.Error) {
	var successful bool

	defer func() {
		if !successful {
			err := finalStorage.Rollback()
			if err != nil {
				logger.Error("couldn't rollback. Error: %s\nStack trace:\n%s\n", err.Error(), err.Stack())
			}
		}
	}()

	if opts.BatchSize < 1 {
		return nil, errorsx.Errorf("BatchSize must be more than 0")
	}

	if opts.Concurrency < 1 {
		return nil, errorsx.Errorf("Concurrency must be more than 0")
	}

	tiles, err := source.ListTiles(ctx)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	if len(tiles) == 0 {
		return nil, errorsx.Wrap(ErrNoDataAvailable, "source", source.Name())
	}

	logger.Info("importing %d tiles from %q", len(tiles), source.Name())

	metadata, err := source.GetMetadata(ctx)
	if err != nil {
		if errorsx.Cause(err) != ErrNoDataAvailable {
			return nil, errorsx.Wrap(err)
		}

		logger.Info("no metadata found for %q, scanning tiles", source.Name())
		metadata, err = ScanMetadata(ctx, source, tiles, opts.Concurrency)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
	}

	if opts.Name != "" {
		metadata.Name = opts.Name
	}

	if metadata.Name == "" {
		metadata.Name = source.Name()
	}

	err = metadata.Range.Validate()
	if err != nil {
		return nil, errorsx.Wrap(err, "source", source.Name(), "reason", "dataset must have more than one distinct elevation value")
	}

	for start := 0; start < len(tiles); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(tiles) {
			end = len(tiles)
		}

		batch, err := readBatch(ctx, source, tiles[start:end], opts.Concurrency)
		if err != nil {
			return nil, err
		}

		err = finalStorage.ImportTiles(batch)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}

		logger.Debug("imported %d/%d tiles", end, len(tiles))
		if opts.OnProgress != nil {
			opts.OnProgress(end, len(tiles))
		}
	}

	dataSourceConn, err := finalStorage.Commit(metadata)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	successful = true

	logger.Info("import of %q finished", metadata.Name)

	return dataSourceConn, nil
}

func readBatch(ctx context.Context, source TileSource, coords []ownmap.TileCoordinate, concurrency int) ([]*RawTile, errorsx.Error) {
	batch := make([]*RawTile, len(coords))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for i, coord := range coords {
		i, coord := i, coord
		group.Go(func() error {
			data, err := source.GetRawTile(groupCtx, coord)
			if err != nil {
				return errorsx.Wrap(err, "tile", coord)
			}

			batch[i] = &RawTile{Coordinate: coord, Data: data}
			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return batch, nil
}

// ScanMetadata decodes every tile to find the value range, zoom levels and bounds of a dataset.
func ScanMetadata(ctx context.Context, source TileSource, coords []ownmap.TileCoordinate, concurrency int) (*ownmap.DatasetMetadata, errorsx.Error) {
	metadata := &ownmap.DatasetMetadata{
		Name:    source.Name(),
		MinZoom: ownmap.MaxZoomLevel,
		MaxZoom: ownmap.MinZoomLevel,
	}

	var (
		mu         sync.Mutex
		foundRange bool
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for _, coord := range coords {
		coord := coord
		group.Go(func() error {
			data, err := source.GetRawTile(groupCtx, coord)
			if err != nil {
				return errorsx.Wrap(err, "tile", coord)
			}

			grid, err := DecodeTerrariumTile(data)
			if err != nil {
				return errorsx.Wrap(err, "tile", coord)
			}

			tileRange, ok := grid.ValidRange()

			mu.Lock()
			defer mu.Unlock()

			if ok {
				if !foundRange {
					metadata.Range = tileRange
					foundRange = true
				} else {
					metadata.Range.Min = minFloat(metadata.Range.Min, tileRange.Min)
					metadata.Range.Max = maxFloat(metadata.Range.Max, tileRange.Max)
				}
			}

			if coord.Z < metadata.MinZoom {
				metadata.MinZoom = coord.Z
			}
			if coord.Z > metadata.MaxZoom {
				metadata.MaxZoom = coord.Z
			}

			extendBounds(metadata, coord)
			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	if !foundRange {
		return nil, errorsx.Wrap(ErrNoDataAvailable, "reason", "no valid elevation samples", "source", source.Name())
	}

	return metadata, nil
}

func extendBounds(metadata *ownmap.DatasetMetadata, coord ownmap.TileCoordinate) {
	tileBounds := coord.Bounds()
	if metadata.Bounds == nil {
		metadata.Bounds = &ownmap.Bounds{
			MinLat: tileBounds.MinLat,
			MaxLat: tileBounds.MaxLat,
			MinLon: tileBounds.MinLon,
			MaxLon: tileBounds.MaxLon,
		}
		return
	}

	metadata.Bounds.MinLat = minFloat(metadata.Bounds.MinLat, tileBounds.MinLat)
	metadata.Bounds.MaxLat = maxFloat(metadata.Bounds.MaxLat, tileBounds.MaxLat)
	metadata.Bounds.MinLon = minFloat(metadata.Bounds.MinLon, tileBounds.MinLon)
	metadata.Bounds.MaxLon = maxFloat(metadata.Bounds.MaxLon, tileBounds.MaxLon)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
