package dbconnloader

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal/ownmapdaltestutil"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal/terrariumdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logpkg.Logger {
	return logpkg.NewLogger(io.Discard, logpkg.LogLevelError)
}

// createTerrariumSource writes the test tiles, without a metadata file, into a new terrarium directory
func createTerrariumSource(t *testing.T, fs gofs.Fs) string {
	dirPath := filepath.Join(t.TempDir(), "source")

	finalStorage, err := terrariumdb.NewFinalStorage(fs, dirPath)
	require.Nil(t, err)

	err = finalStorage.ImportTiles(ownmapdaltestutil.TestRawTiles(t))
	require.Nil(t, err)

	return dirPath
}

func TestImportDataset(t *testing.T) {
	fs := gofs.NewOsFs()
	sourcePath := createTerrariumSource(t, fs)
	targetDir := t.TempDir()

	for _, dbFileType := range []ownmapdal.DBFileType{
		ownmapdal.DBFileTypeBolt,
		ownmapdal.DBFileTypeParquet,
		ownmapdal.DBFileTypeSqlite,
		ownmapdal.DBFileTypeTerrarium,
	} {
		t.Run(string(dbFileType), func(t *testing.T) {
			suffix, err := FileSuffix(dbFileType)
			require.Nil(t, err)

			targetPath := filepath.Join(targetDir, string(dbFileType)+suffix)

			opts := ownmapdal.DefaultImportOptions()
			opts.Name = "imported"

			conn, err := ImportDataset(context.Background(), newTestLogger(), fs, "terrarium://"+sourcePath, dbFileType, targetPath, opts)
			require.Nil(t, err)
			require.Nil(t, conn.Close())

			reopened, err := LoadDBConn(context.Background(), newTestLogger(), fs, string(dbFileType)+"://"+targetPath)
			require.Nil(t, err)
			defer reopened.Close()

			assert.Equal(t, "imported", reopened.Name())

			metadata, err := reopened.GetMetadata(context.Background())
			require.Nil(t, err)
			assert.Equal(t, ownmap.ValueRange{Min: -12.5, Max: 1843}, metadata.Range)

			grid, err := reopened.GetTileData(context.Background(), ownmapdaltestutil.TestTileA, ownmap.TileSize{Width: 2, Height: 2})
			require.Nil(t, err)

			value, ok := grid.At(1, 1)
			require.True(t, ok)
			assert.Equal(t, 1843.0, value)
		})
	}
}

func TestLoadDBConn_unknownType(t *testing.T) {
	_, err := LoadDBConn(context.Background(), newTestLogger(), gofs.NewOsFs(), "mbtiles:///data/alps.mbtiles")
	assert.NotNil(t, err)

	_, err = LoadDBConn(context.Background(), newTestLogger(), gofs.NewOsFs(), "/data/alps")
	assert.NotNil(t, err)
}

func TestFileSuffix_postgresql(t *testing.T) {
	_, err := FileSuffix(ownmapdal.DBFileTypePostgresql)
	assert.NotNil(t, err)
}

func TestDataDirConnString(t *testing.T) {
	fs := gofs.NewOsFs()
	dataDir := t.TempDir()

	require.NoError(t, fs.MkdirAll(filepath.Join(dataDir, "alps"), 0755))
	require.NoError(t, fs.MkdirAll(filepath.Join(dataDir, "andes"), 0755))
	require.NoError(t, fs.WriteFile(filepath.Join(dataDir, "andes", "tiles.parquet"), nil, 0644))
	require.NoError(t, fs.WriteFile(filepath.Join(dataDir, "pyrenees.db"), nil, 0644))
	require.NoError(t, fs.WriteFile(filepath.Join(dataDir, "atlas.sqlite"), nil, 0644))
	require.NoError(t, fs.WriteFile(filepath.Join(dataDir, "notes.txt"), nil, 0644))

	fileInfos, err := fs.ReadDir(dataDir)
	require.NoError(t, err)

	connStrings := make(map[string]string)
	for _, fileInfo := range fileInfos {
		connString, ok := DataDirConnString(fs, dataDir, fileInfo)
		if ok {
			connStrings[fileInfo.Name()] = connString
		}
	}

	assert.Equal(t, map[string]string{
		"alps":         "terrarium://" + filepath.Join(dataDir, "alps"),
		"andes":        "parquet://" + filepath.Join(dataDir, "andes"),
		"pyrenees.db":  "bolt://" + filepath.Join(dataDir, "pyrenees.db"),
		"atlas.sqlite": "sqlite://" + filepath.Join(dataDir, "atlas.sqlite"),
	}, connStrings)
}
