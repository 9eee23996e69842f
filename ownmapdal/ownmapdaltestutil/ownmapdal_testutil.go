package ownmapdaltestutil

import (
	"context"
	"sort"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	TestTileA = ownmap.TileCoordinate{X: 4, Y: 2, Z: 3}
	TestTileB = ownmap.TileCoordinate{X: 5, Y: 2, Z: 3}
)

// TestMetadata is the metadata committed by TestFinalStorage.
func TestMetadata() *ownmap.DatasetMetadata {
	return &ownmap.DatasetMetadata{
		Name:    "testdata",
		Range:   ownmap.ValueRange{Min: -12.5, Max: 1843},
		Bounds:  &ownmap.Bounds{MinLat: 40.97, MaxLat: 66.51, MinLon: 0, MaxLon: 90},
		MinZoom: 3,
		MaxZoom: 3,
	}
}

func testTileRows(tile ownmap.TileCoordinate) [][]float64 {
	switch tile {
	case TestTileA:
		return [][]float64{
			{-12.5, 0},
			{1000, 1843},
		}
	default:
		return [][]float64{
			{1, 2},
			{3, 4},
		}
	}
}

// TestRawTiles are the tiles imported by TestFinalStorage.
func TestRawTiles(t *testing.T) []*ownmapdal.RawTile {
	var rawTiles []*ownmapdal.RawTile
	for _, tile := range []ownmap.TileCoordinate{TestTileA, TestTileB} {
		grid, err := ownmap.NewElevationGridFromRows(testTileRows(tile))
		require.Nil(t, err)

		data, err := ownmapdal.EncodeTerrariumTile(grid)
		require.Nil(t, err)

		rawTiles = append(rawTiles, &ownmapdal.RawTile{Coordinate: tile, Data: data})
	}

	return rawTiles
}

// TestFinalStorage imports the test tiles into a storage driver, commits it, and checks the committed dataset can be read back.
func TestFinalStorage(t *testing.T, finalStorage ownmapdal.FinalStorage) ownmapdal.DataSourceConn {
	ctx := context.Background()
	rawTiles := TestRawTiles(t)

	// import in more than one batch
	for _, rawTile := range rawTiles {
		err := finalStorage.ImportTiles([]*ownmapdal.RawTile{rawTile})
		require.Nil(t, err)
	}

	conn, err := finalStorage.Commit(TestMetadata())
	require.Nil(t, err)
	require.NotNil(t, conn)

	assert.Equal(t, "testdata", conn.Name())

	metadata, err := conn.GetMetadata(ctx)
	require.Nil(t, err)
	assert.Equal(t, TestMetadata(), metadata)

	size := ownmap.TileSize{Width: 2, Height: 2}
	for _, tile := range []ownmap.TileCoordinate{TestTileA, TestTileB} {
		grid, err := conn.GetTileData(ctx, tile, size)
		require.Nil(t, err)
		require.Equal(t, size, grid.Size())

		for y, row := range testTileRows(tile) {
			for x, expected := range row {
				value, ok := grid.At(x, y)
				require.True(t, ok)
				assert.Equal(t, expected, value, "tile %v, sample (%d,%d)", tile, x, y)
			}
		}
	}

	_, err = conn.GetTileData(ctx, ownmap.TileCoordinate{X: 0, Y: 0, Z: 3}, size)
	require.NotNil(t, err)
	assert.Equal(t, ownmapdal.ErrNoDataAvailable, errorsx.Cause(err))

	tileSource, ok := conn.(ownmapdal.TileSource)
	if ok {
		tiles, err := tileSource.ListTiles(ctx)
		require.Nil(t, err)
		sort.Slice(tiles, func(i, j int) bool {
			return tiles[i].X < tiles[j].X
		})
		assert.Equal(t, []ownmap.TileCoordinate{TestTileA, TestTileB}, tiles)

		for _, rawTile := range rawTiles {
			data, err := tileSource.GetRawTile(ctx, rawTile.Coordinate)
			require.Nil(t, err)
			assert.Equal(t, rawTile.Data, data)
		}
	}

	return conn
}
