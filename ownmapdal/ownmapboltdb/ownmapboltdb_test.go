package ownmapboltdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal/ownmapdaltestutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalStorage(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "testdata.db")

	finalStorage, err := NewFinalStorage(filePath)
	require.Nil(t, err)

	conn := ownmapdaltestutil.TestFinalStorage(t, finalStorage)
	require.Nil(t, conn.Close())

	_, err = NewFinalStorage(filePath)
	assert.NotNil(t, err, "shouldn't overwrite an existing dataset")
}

func TestFinalStorage_Rollback(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "testdata.db")

	finalStorage, err := NewFinalStorage(filePath)
	require.Nil(t, err)

	err = finalStorage.ImportTiles(ownmapdaltestutil.TestRawTiles(t))
	require.Nil(t, err)

	err = finalStorage.Rollback()
	require.Nil(t, err)

	_, statErr := os.Stat(filePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewDBConn_noMetadata(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "testdata.db")

	finalStorage, err := NewFinalStorage(filePath)
	require.Nil(t, err)
	require.Nil(t, finalStorage.db.Close())

	_, err = NewDBConn(filePath)
	assert.NotNil(t, err)
}

func TestTileKey(t *testing.T) {
	tile := ownmap.TileCoordinate{X: 5, Y: 2, Z: 3}
	key := TileKey(tile)
	assert.Equal(t, "3/5/2", string(key))

	parsed, err := ParseTileKey(key)
	require.Nil(t, err)
	assert.Equal(t, tile, parsed)

	_, err = ParseTileKey([]byte("not-a-key"))
	assert.NotNil(t, err)
}
