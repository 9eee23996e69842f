package terrariumdb

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal/ownmapdaltestutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalStorage(t *testing.T) {
	fs := gofs.NewOsFs()
	dirPath := filepath.Join(t.TempDir(), "testdata")

	finalStorage, err := NewFinalStorage(fs, dirPath)
	require.Nil(t, err)

	conn := ownmapdaltestutil.TestFinalStorage(t, finalStorage)
	require.Nil(t, conn.Close())

	_, statErr := os.Stat(filepath.Join(dirPath, MetadataFileName))
	assert.Nil(t, statErr)

	_, err = NewFinalStorage(fs, dirPath)
	assert.NotNil(t, err, "shouldn't overwrite an existing dataset")
}

func TestFinalStorage_Rollback(t *testing.T) {
	fs := gofs.NewOsFs()
	dirPath := filepath.Join(t.TempDir(), "testdata")

	finalStorage, err := NewFinalStorage(fs, dirPath)
	require.Nil(t, err)

	err = finalStorage.ImportTiles(ownmapdaltestutil.TestRawTiles(t))
	require.Nil(t, err)

	err = finalStorage.Rollback()
	require.Nil(t, err)

	_, statErr := os.Stat(dirPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewDBConn_scansMissingMetadata(t *testing.T) {
	fs := gofs.NewOsFs()
	dirPath := filepath.Join(t.TempDir(), "scanned")

	finalStorage, err := NewFinalStorage(fs, dirPath)
	require.Nil(t, err)

	err = finalStorage.ImportTiles(ownmapdaltestutil.TestRawTiles(t))
	require.Nil(t, err)

	db, err := NewTerrariumDB(fs, dirPath)
	require.Nil(t, err)
	assert.Equal(t, "scanned", db.Name())

	_, err = db.GetMetadata(context.Background())
	assert.NotNil(t, err)

	logger := logpkg.NewLogger(io.Discard, logpkg.LogLevelError)
	db, err = NewDBConn(context.Background(), logger, fs, dirPath, 2)
	require.Nil(t, err)

	metadata, err := db.GetMetadata(context.Background())
	require.Nil(t, err)
	assert.Equal(t, "scanned", metadata.Name)
	assert.Equal(t, ownmap.ValueRange{Min: -12.5, Max: 1843}, metadata.Range)
	assert.Equal(t, ownmap.ZoomLevel(3), metadata.MinZoom)
	assert.Equal(t, ownmap.ZoomLevel(3), metadata.MaxZoom)
}

func TestParseTilePath(t *testing.T) {
	tile, ok := ParseTilePath("3/5/2.png")
	assert.True(t, ok)
	assert.Equal(t, ownmap.TileCoordinate{X: 5, Y: 2, Z: 3}, tile)

	for _, relativePath := range []string{
		"metadata.json",
		"3/5/2.jpg",
		"3/5/a.png",
		"3/8/2.png",
		"x/3/5/2.png",
	} {
		_, ok := ParseTilePath(relativePath)
		assert.False(t, ok, relativePath)
	}
}

func TestTilePath(t *testing.T) {
	path := TilePath("/data/alps", ownmap.TileCoordinate{X: 5, Y: 2, Z: 3})
	assert.Equal(t, "/data/alps/3/5/2.png", path)
}
