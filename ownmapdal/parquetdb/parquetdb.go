package parquetdb

import (
	"context"
	"encoding/json"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
	"github.com/xitongsys/parquet-go-source/local"
	parquetreader "github.com/xitongsys/parquet-go/reader"
)

const (
	MetadataFileName = "metadata.json"
	TilesFileName    = "tiles.parquet"
)

// tileRow is the schema of the tiles file. Data is a Terrarium PNG.
type tileRow struct {
	Z    int32  `parquet:"name=z, type=INT32"`
	X    int32  `parquet:"name=x, type=INT32"`
	Y    int32  `parquet:"name=y, type=INT32"`
	Data string `parquet:"name=data, type=BYTE_ARRAY"`
}

func (r tileRow) coordinate() ownmap.TileCoordinate {
	return ownmap.TileCoordinate{X: int(r.X), Y: int(r.Y), Z: ownmap.ZoomLevel(r.Z)}
}

var (
	_ ownmapdal.DataSourceConn = &ParquetDatasource{}
	_ ownmapdal.TileSource     = &ParquetDatasource{}
)

// ParquetDatasource is a directory holding a metadata file and a parquet file of tiles.
// The tiles file is read into memory when the datasource is opened.
type ParquetDatasource struct {
	dirPath  string
	metadata *ownmap.DatasetMetadata
	tiles    map[ownmap.TileCoordinate][]byte
}

func NewParquetDatasource(fs gofs.Fs, dirPath string) (*ParquetDatasource, errorsx.Error) {
	metadataPath := filepath.Join(dirPath, MetadataFileName)

	metadataBytes, err := fs.ReadFile(metadataPath)
	if err != nil {
		return nil, errorsx.Wrap(err, "filepath", metadataPath)
	}

	metadata := new(ownmap.DatasetMetadata)
	err = json.Unmarshal(metadataBytes, metadata)
	if err != nil {
		return nil, errorsx.Wrap(err, "filepath", metadataPath)
	}

	if metadata.Name == "" {
		metadata.Name = filepath.Base(dirPath)
	}

	tilesPath := filepath.Join(dirPath, TilesFileName)
	rows, rowsErr := readTileRows(tilesPath)
	if rowsErr != nil {
		return nil, errorsx.Wrap(rowsErr, "filepath", tilesPath)
	}

	tiles := make(map[ownmap.TileCoordinate][]byte, len(rows))
	for _, row := range rows {
		tiles[row.coordinate()] = []byte(row.Data)
	}

	return &ParquetDatasource{
		dirPath:  dirPath,
		metadata: metadata,
		tiles:    tiles,
	}, nil
}

func readTileRows(filePath string) ([]tileRow, errorsx.Error) {
	fileReader, err := local.NewLocalFileReader(filePath)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	defer fileReader.Close()

	pr, err := parquetreader.NewParquetReader(fileReader, new(tileRow), int64(runtime.NumCPU()))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	defer pr.ReadStop()

	rows := make([]tileRow, pr.GetNumRows())
	err = pr.Read(&rows)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return rows, nil
}

func (ds *ParquetDatasource) Name() string {
	return ds.metadata.Name
}

func (ds *ParquetDatasource) GetMetadata(ctx context.Context) (*ownmap.DatasetMetadata, errorsx.Error) {
	return ds.metadata, nil
}

func (ds *ParquetDatasource) GetTileData(ctx context.Context, tile ownmap.TileCoordinate, size ownmap.TileSize) (*ownmap.ElevationGrid, errorsx.Error) {
	data, err := ds.GetRawTile(ctx, tile)
	if err != nil {
		return nil, err
	}

	return ownmapdal.GridFromTerrariumTile(data, size)
}

func (ds *ParquetDatasource) GetRawTile(ctx context.Context, tile ownmap.TileCoordinate) ([]byte, errorsx.Error) {
	data, ok := ds.tiles[tile]
	if !ok {
		return nil, errorsx.Wrap(ownmapdal.ErrNoDataAvailable, "tile", tile)
	}

	return data, nil
}

func (ds *ParquetDatasource) ListTiles(ctx context.Context) ([]ownmap.TileCoordinate, errorsx.Error) {
	tiles := make([]ownmap.TileCoordinate, 0, len(ds.tiles))
	for tile := range ds.tiles {
		tiles = append(tiles, tile)
	}

	sort.Slice(tiles, func(i, j int) bool {
		a, b := tiles[i], tiles[j]
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})

	return tiles, nil
}

func (ds *ParquetDatasource) Close() errorsx.Error {
	return nil
}
