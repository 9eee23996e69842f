package terrariumdb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
)

const (
	MetadataFileName = "metadata.json"
	tileFileSuffix   = ".png"
)

var (
	_ ownmapdal.DataSourceConn = &TerrariumDB{}
	_ ownmapdal.TileSource     = &TerrariumDB{}
)

// TerrariumDB is a directory of Terrarium PNG tiles laid out as {z}/{x}/{y}.png, with an optional metadata.json.
type TerrariumDB struct {
	fs       gofs.Fs
	dirPath  string
	metadata *ownmap.DatasetMetadata
}

// NewTerrariumDB opens a tile directory. The metadata is nil if the directory doesn't have a metadata file.
func NewTerrariumDB(fs gofs.Fs, dirPath string) (*TerrariumDB, errorsx.Error) {
	metadataPath := filepath.Join(dirPath, MetadataFileName)

	var metadata *ownmap.DatasetMetadata
	metadataBytes, err := fs.ReadFile(metadataPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errorsx.Wrap(err, "filepath", metadataPath)
		}
	} else {
		metadata = new(ownmap.DatasetMetadata)
		err = json.Unmarshal(metadataBytes, metadata)
		if err != nil {
			return nil, errorsx.Wrap(err, "filepath", metadataPath)
		}

		if metadata.Name == "" {
			metadata.Name = filepath.Base(dirPath)
		}
	}

	return &TerrariumDB{fs, dirPath, metadata}, nil
}

// NewDBConn opens a tile directory for serving. Directories without a metadata file have it derived from their tiles.
func NewDBConn(ctx context.Context, logger *logpkg.Logger, fs gofs.Fs, dirPath string, concurrency int) (*TerrariumDB, errorsx.Error) {
	db, err := NewTerrariumDB(fs, dirPath)
	if err != nil {
		return nil, err
	}

	if db.metadata != nil {
		return db, nil
	}

	logger.Warn("no %s found in %q, scanning tiles for metadata", MetadataFileName, dirPath)

	tiles, err := db.ListTiles(ctx)
	if err != nil {
		return nil, err
	}

	db.metadata, err = ownmapdal.ScanMetadata(ctx, db, tiles, concurrency)
	if err != nil {
		return nil, errorsx.Wrap(err, "dirPath", dirPath)
	}

	return db, nil
}

func (db *TerrariumDB) Name() string {
	if db.metadata != nil {
		return db.metadata.Name
	}

	return filepath.Base(db.dirPath)
}

func (db *TerrariumDB) GetMetadata(ctx context.Context) (*ownmap.DatasetMetadata, errorsx.Error) {
	if db.metadata == nil {
		return nil, errorsx.Wrap(ownmapdal.ErrNoDataAvailable, "reason", "no metadata file", "dirPath", db.dirPath)
	}

	return db.metadata, nil
}

func (db *TerrariumDB) GetTileData(ctx context.Context, tile ownmap.TileCoordinate, size ownmap.TileSize) (*ownmap.ElevationGrid, errorsx.Error) {
	data, err := db.GetRawTile(ctx, tile)
	if err != nil {
		return nil, err
	}

	return ownmapdal.GridFromTerrariumTile(data, size)
}

func (db *TerrariumDB) GetRawTile(ctx context.Context, tile ownmap.TileCoordinate) ([]byte, errorsx.Error) {
	tilePath := TilePath(db.dirPath, tile)

	data, err := db.fs.ReadFile(tilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errorsx.Wrap(ownmapdal.ErrNoDataAvailable, "tile", tile)
		}
		return nil, errorsx.Wrap(err, "filepath", tilePath)
	}

	return data, nil
}

// ListTiles returns the coordinates of every tile file in the directory. Files that aren't named like tiles are skipped.
func (db *TerrariumDB) ListTiles(ctx context.Context) ([]ownmap.TileCoordinate, errorsx.Error) {
	var tiles []ownmap.TileCoordinate

	err := gofs.Walk(db.fs, db.dirPath, func(path string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if fileInfo.IsDir() {
			return nil
		}

		relativePath, err := filepath.Rel(db.dirPath, path)
		if err != nil {
			return err
		}

		tile, ok := ParseTilePath(relativePath)
		if !ok {
			return nil
		}

		tiles = append(tiles, tile)
		return nil
	}, gofs.WalkOptions{})
	if err != nil {
		return nil, errorsx.Wrap(err, "dirPath", db.dirPath)
	}

	return tiles, nil
}

func (db *TerrariumDB) Close() errorsx.Error {
	return nil
}

// TilePath is the path of a tile file in a tile directory.
func TilePath(dirPath string, tile ownmap.TileCoordinate) string {
	return filepath.Join(
		dirPath,
		strconv.Itoa(int(tile.Z)),
		strconv.Itoa(tile.X),
		fmt.Sprintf("%d%s", tile.Y, tileFileSuffix),
	)
}

// ParseTilePath parses a relative path of the form {z}/{x}/{y}.png.
func ParseTilePath(relativePath string) (ownmap.TileCoordinate, bool) {
	fragments := strings.Split(filepath.ToSlash(relativePath), "/")
	if len(fragments) != 3 || !strings.HasSuffix(fragments[2], tileFileSuffix) {
		return ownmap.TileCoordinate{}, false
	}

	z, err := strconv.Atoi(fragments[0])
	if err != nil {
		return ownmap.TileCoordinate{}, false
	}

	x, err := strconv.Atoi(fragments[1])
	if err != nil {
		return ownmap.TileCoordinate{}, false
	}

	y, err := strconv.Atoi(strings.TrimSuffix(fragments[2], tileFileSuffix))
	if err != nil {
		return ownmap.TileCoordinate{}, false
	}

	tile := ownmap.TileCoordinate{X: x, Y: y, Z: ownmap.ZoomLevel(z)}
	if !tile.IsValid() {
		return ownmap.TileCoordinate{}, false
	}

	return tile, true
}
