package ownmapsqldb

import (
	"context"
	"database/sql"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
	"github.com/jmoiron/sqlx"
)

var (
	_ ownmapdal.DataSourceConn = &SQLDataSource{}
	_ ownmapdal.TileSource     = &SQLDataSource{}
)

// metadataRow is the single row of the dataset_metadata table. The bounds columns are NULL for datasets without bounds.
type metadataRow struct {
	Name         string          `db:"name"`
	RangeMin     float64         `db:"range_min"`
	RangeMax     float64         `db:"range_max"`
	BoundsMinLat sql.NullFloat64 `db:"bounds_min_lat"`
	BoundsMaxLat sql.NullFloat64 `db:"bounds_max_lat"`
	BoundsMinLon sql.NullFloat64 `db:"bounds_min_lon"`
	BoundsMaxLon sql.NullFloat64 `db:"bounds_max_lon"`
	MinZoom      int             `db:"min_zoom"`
	MaxZoom      int             `db:"max_zoom"`
}

func (r *metadataRow) toMetadata() *ownmap.DatasetMetadata {
	metadata := &ownmap.DatasetMetadata{
		Name:    r.Name,
		Range:   ownmap.ValueRange{Min: r.RangeMin, Max: r.RangeMax},
		MinZoom: ownmap.ZoomLevel(r.MinZoom),
		MaxZoom: ownmap.ZoomLevel(r.MaxZoom),
	}

	if r.BoundsMinLat.Valid && r.BoundsMaxLat.Valid && r.BoundsMinLon.Valid && r.BoundsMaxLon.Valid {
		metadata.Bounds = &ownmap.Bounds{
			MinLat: r.BoundsMinLat.Float64,
			MaxLat: r.BoundsMaxLat.Float64,
			MinLon: r.BoundsMinLon.Float64,
			MaxLon: r.BoundsMaxLon.Float64,
		}
	}

	return metadata
}

func metadataRowFromMetadata(metadata *ownmap.DatasetMetadata) *metadataRow {
	row := &metadataRow{
		Name:     metadata.Name,
		RangeMin: metadata.Range.Min,
		RangeMax: metadata.Range.Max,
		MinZoom:  int(metadata.MinZoom),
		MaxZoom:  int(metadata.MaxZoom),
	}

	if metadata.Bounds != nil {
		row.BoundsMinLat = sql.NullFloat64{Float64: metadata.Bounds.MinLat, Valid: true}
		row.BoundsMaxLat = sql.NullFloat64{Float64: metadata.Bounds.MaxLat, Valid: true}
		row.BoundsMinLon = sql.NullFloat64{Float64: metadata.Bounds.MinLon, Valid: true}
		row.BoundsMaxLon = sql.NullFloat64{Float64: metadata.Bounds.MaxLon, Valid: true}
	}

	return row
}

type tileCoordinateRow struct {
	Z int `db:"z"`
	X int `db:"x"`
	Y int `db:"y"`
}

// SQLDataSource is a dataset held in a SQL database with the dataset_metadata and tiles tables.
// Queries are written with ? placeholders and rebound for the database's driver.
type SQLDataSource struct {
	db       *sqlx.DB
	metadata *ownmap.DatasetMetadata
}

func NewSQLDataSource(ctx context.Context, db *sqlx.DB) (*SQLDataSource, errorsx.Error) {
	row := new(metadataRow)
	err := db.GetContext(ctx, row, `
		SELECT
			name,
			range_min,
			range_max,
			bounds_min_lat,
			bounds_max_lat,
			bounds_min_lon,
			bounds_max_lon,
			min_zoom,
			max_zoom
		FROM dataset_metadata`)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errorsx.Wrap(ownmapdal.ErrNoDataAvailable, "reason", "no dataset_metadata row")
		}
		return nil, errorsx.Wrap(err)
	}

	return &SQLDataSource{
		db:       db,
		metadata: row.toMetadata(),
	}, nil
}

func (ds *SQLDataSource) Name() string {
	return ds.metadata.Name
}

func (ds *SQLDataSource) GetMetadata(ctx context.Context) (*ownmap.DatasetMetadata, errorsx.Error) {
	return ds.metadata, nil
}

func (ds *SQLDataSource) GetTileData(ctx context.Context, tile ownmap.TileCoordinate, size ownmap.TileSize) (*ownmap.ElevationGrid, errorsx.Error) {
	data, err := ds.GetRawTile(ctx, tile)
	if err != nil {
		return nil, err
	}

	return ownmapdal.GridFromTerrariumTile(data, size)
}

func (ds *SQLDataSource) GetRawTile(ctx context.Context, tile ownmap.TileCoordinate) ([]byte, errorsx.Error) {
	var data []byte
	err := ds.db.GetContext(
		ctx,
		&data,
		ds.db.Rebind(`SELECT data FROM tiles WHERE z = ? AND x = ? AND y = ?`),
		int(tile.Z), tile.X, tile.Y,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errorsx.Wrap(ownmapdal.ErrNoDataAvailable, "tile", tile)
		}
		return nil, errorsx.Wrap(err, "tile", tile)
	}

	return data, nil
}

func (ds *SQLDataSource) ListTiles(ctx context.Context) ([]ownmap.TileCoordinate, errorsx.Error) {
	var rows []*tileCoordinateRow
	err := ds.db.SelectContext(ctx, &rows, `SELECT z, x, y FROM tiles ORDER BY z, x, y`)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	tiles := make([]ownmap.TileCoordinate, len(rows))
	for i, row := range rows {
		tiles[i] = ownmap.TileCoordinate{X: row.X, Y: row.Y, Z: ownmap.ZoomLevel(row.Z)}
	}

	return tiles, nil
}

func (ds *SQLDataSource) Close() errorsx.Error {
	err := ds.db.Close()
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}
