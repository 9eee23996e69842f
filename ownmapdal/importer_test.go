package ownmapdal

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmap/testmocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTileSource struct {
	name     string
	metadata *ownmap.DatasetMetadata
	tiles    map[ownmap.TileCoordinate][]byte
}

func (s *memTileSource) Name() string {
	return s.name
}

func (s *memTileSource) GetMetadata(ctx context.Context) (*ownmap.DatasetMetadata, errorsx.Error) {
	if s.metadata == nil {
		return nil, errorsx.Wrap(ErrNoDataAvailable)
	}
	return s.metadata, nil
}

func (s *memTileSource) ListTiles(ctx context.Context) ([]ownmap.TileCoordinate, errorsx.Error) {
	var coords []ownmap.TileCoordinate
	for coord := range s.tiles {
		coords = append(coords, coord)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Z != coords[j].Z {
			return coords[i].Z < coords[j].Z
		}
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		return coords[i].Y < coords[j].Y
	})
	return coords, nil
}

func (s *memTileSource) GetRawTile(ctx context.Context, tile ownmap.TileCoordinate) ([]byte, errorsx.Error) {
	data, ok := s.tiles[tile]
	if !ok {
		return nil, errorsx.Wrap(ErrNoDataAvailable)
	}
	return data, nil
}

type memFinalStorage struct {
	mu                sync.Mutex
	tiles             []*RawTile
	committedMetadata *ownmap.DatasetMetadata
	rolledBack        bool
	importErr         errorsx.Error
}

func (s *memFinalStorage) ImportTiles(tiles []*RawTile) errorsx.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.importErr != nil {
		return s.importErr
	}
	s.tiles = append(s.tiles, tiles...)
	return nil
}

func (s *memFinalStorage) Commit(metadata *ownmap.DatasetMetadata) (DataSourceConn, errorsx.Error) {
	s.committedMetadata = metadata
	return testmocks.NewStaticDataSourceConn(metadata, nil), nil
}

func (s *memFinalStorage) Rollback() errorsx.Error {
	s.rolledBack = true
	return nil
}

func newTestLogger() *logpkg.Logger {
	return logpkg.NewLogger(io.Discard, logpkg.LogLevelError)
}

func encodeTestTile(t *testing.T, rows [][]float64) []byte {
	grid, err := ownmap.NewElevationGridFromRows(rows)
	require.Nil(t, err)

	data, err := EncodeTerrariumTile(grid)
	require.Nil(t, err)

	return data
}

func newTestTileSource(t *testing.T) *memTileSource {
	return &memTileSource{
		name: "test-source",
		tiles: map[ownmap.TileCoordinate][]byte{
			{X: 0, Y: 0, Z: 1}: encodeTestTile(t, [][]float64{{10, 20}, {30, 40}}),
			{X: 1, Y: 0, Z: 1}: encodeTestTile(t, [][]float64{{-5, 0}, {0, 0}}),
			{X: 2, Y: 1, Z: 2}: encodeTestTile(t, [][]float64{{100, 0}, {0, 0}}),
		},
	}
}

func TestImport(t *testing.T) {
	source := newTestTileSource(t)
	source.metadata = &ownmap.DatasetMetadata{
		Range:   ownmap.ValueRange{Min: -5, Max: 100},
		MinZoom: 1,
		MaxZoom: 2,
	}

	finalStorage := new(memFinalStorage)

	var progressCalls [][2]int
	opts := DefaultImportOptions()
	opts.BatchSize = 2
	opts.OnProgress = func(tilesDone, tilesTotal int) {
		progressCalls = append(progressCalls, [2]int{tilesDone, tilesTotal})
	}

	conn, err := Import(context.Background(), newTestLogger(), source, finalStorage, opts)
	require.Nil(t, err)
	require.NotNil(t, conn)

	assert.Len(t, finalStorage.tiles, 3)
	assert.False(t, finalStorage.rolledBack)
	assert.Equal(t, [][2]int{{2, 3}, {3, 3}}, progressCalls)

	// the source name is used when the metadata doesn't have one
	assert.Equal(t, "test-source", finalStorage.committedMetadata.Name)
	assert.Equal(t, "test-source", conn.Name())

	for _, tile := range finalStorage.tiles {
		assert.Equal(t, source.tiles[tile.Coordinate], tile.Data)
	}
}

func TestImport_scansMissingMetadata(t *testing.T) {
	source := newTestTileSource(t)
	finalStorage := new(memFinalStorage)

	opts := DefaultImportOptions()
	opts.Name = "renamed"

	_, err := Import(context.Background(), newTestLogger(), source, finalStorage, opts)
	require.Nil(t, err)

	metadata := finalStorage.committedMetadata
	require.NotNil(t, metadata)
	assert.Equal(t, "renamed", metadata.Name)
	assert.Equal(t, ownmap.ValueRange{Min: -5, Max: 100}, metadata.Range)
	assert.Equal(t, ownmap.ZoomLevel(1), metadata.MinZoom)
	assert.Equal(t, ownmap.ZoomLevel(2), metadata.MaxZoom)

	// tiles 0/0 and 1/0 at zoom 1 cover the northern hemisphere
	require.NotNil(t, metadata.Bounds)
	assert.Equal(t, -180.0, metadata.Bounds.MinLon)
	assert.Equal(t, 180.0, metadata.Bounds.MaxLon)
	assert.InDelta(t, 0, metadata.Bounds.MinLat, 1e-9)
	assert.InDelta(t, 85.0511, metadata.Bounds.MaxLat, 1e-4)
}

func TestImport_rollsBackOnFailure(t *testing.T) {
	source := newTestTileSource(t)
	source.metadata = &ownmap.DatasetMetadata{Range: ownmap.ValueRange{Min: 0, Max: 1}}

	importErr := errors.New("disk full")
	finalStorage := &memFinalStorage{importErr: errorsx.Wrap(importErr)}

	_, err := Import(context.Background(), newTestLogger(), source, finalStorage, DefaultImportOptions())
	require.NotNil(t, err)
	assert.Equal(t, importErr, errorsx.Cause(err))
	assert.True(t, finalStorage.rolledBack)
	assert.Nil(t, finalStorage.committedMetadata)
}

func TestImport_emptySource(t *testing.T) {
	source := &memTileSource{name: "empty"}
	finalStorage := new(memFinalStorage)

	_, err := Import(context.Background(), newTestLogger(), source, finalStorage, DefaultImportOptions())
	require.NotNil(t, err)
	assert.Equal(t, ErrNoDataAvailable, errorsx.Cause(err))
	assert.True(t, finalStorage.rolledBack)
}

func TestImport_invalidOptions(t *testing.T) {
	opts := DefaultImportOptions()
	opts.BatchSize = 0

	_, err := Import(context.Background(), newTestLogger(), newTestTileSource(t), new(memFinalStorage), opts)
	assert.NotNil(t, err)
}

func TestScanMetadata_noValidSamples(t *testing.T) {
	grid := ownmap.NewElevationGrid(2, 2)
	data, err := EncodeTerrariumTile(grid)
	require.Nil(t, err)

	coord := ownmap.TileCoordinate{X: 0, Y: 0, Z: 0}
	source := &memTileSource{
		name:  "all-no-data",
		tiles: map[ownmap.TileCoordinate][]byte{coord: data},
	}

	_, err = ScanMetadata(context.Background(), source, []ownmap.TileCoordinate{coord}, 2)
	require.NotNil(t, err)
	assert.Equal(t, ErrNoDataAvailable, errorsx.Cause(err))
}

func TestImport_rejectsSingleValueDataset(t *testing.T) {
	source := &memTileSource{
		name: "flat",
		tiles: map[ownmap.TileCoordinate][]byte{
			{X: 0, Y: 0, Z: 1}: encodeTestTile(t, [][]float64{{7, 7}, {7, 7}}),
			{X: 1, Y: 0, Z: 1}: encodeTestTile(t, [][]float64{{7, 7}, {7, 7}}),
		},
	}
	finalStorage := new(memFinalStorage)

	_, err := Import(context.Background(), newTestLogger(), source, finalStorage, DefaultImportOptions())
	require.NotNil(t, err)
	assert.Equal(t, ownmap.ErrInvalidValueRange, errorsx.Cause(err))
	assert.True(t, finalStorage.rolledBack)
	assert.Nil(t, finalStorage.committedMetadata)
	assert.Empty(t, finalStorage.tiles)
}
