package ownmapsqldb

import (
	"context"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
	"github.com/jmoiron/sqlx"
)

var _ ownmapdal.FinalStorage = &Importer{}

// Importer writes an import into a SQL database inside a single transaction.
type Importer struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

// NewImporter starts the import transaction. The schema must already have been created.
func NewImporter(db *sqlx.DB) (*Importer, errorsx.Error) {
	tx, err := db.Beginx()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return &Importer{db, tx}, nil
}

func (importer *Importer) ImportTiles(tiles []*ownmapdal.RawTile) errorsx.Error {
	stmt, err := importer.tx.Preparex(importer.tx.Rebind(`INSERT INTO tiles (z, x, y, data) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return errorsx.Wrap(err)
	}
	defer stmt.Close()

	for _, tile := range tiles {
		_, err = stmt.Exec(int(tile.Coordinate.Z), tile.Coordinate.X, tile.Coordinate.Y, tile.Data)
		if err != nil {
			return errorsx.Wrap(err, "tile", tile.Coordinate)
		}
	}

	return nil
}

func (importer *Importer) Rollback() errorsx.Error {
	err := importer.tx.Rollback()
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}

// Commit writes the metadata row, commits the transaction and opens the dataset for reading.
func (importer *Importer) Commit(metadata *ownmap.DatasetMetadata) (ownmapdal.DataSourceConn, errorsx.Error) {
	_, err := importer.tx.Exec(`DELETE FROM dataset_metadata`)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	_, err = importer.tx.NamedExec(`
	INSERT INTO dataset_metadata (
		name,
		range_min,
		range_max,
		bounds_min_lat,
		bounds_max_lat,
		bounds_min_lon,
		bounds_max_lon,
		min_zoom,
		max_zoom
	) VALUES (
		:name,
		:range_min,
		:range_max,
		:bounds_min_lat,
		:bounds_max_lat,
		:bounds_min_lon,
		:bounds_max_lon,
		:min_zoom,
		:max_zoom
	)`, metadataRowFromMetadata(metadata))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	err = importer.tx.Commit()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	ds, dsErr := NewSQLDataSource(context.Background(), importer.db)
	if dsErr != nil {
		return nil, dsErr
	}

	return ds, nil
}
