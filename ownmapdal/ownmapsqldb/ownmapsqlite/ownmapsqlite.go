package ownmapsqlite

import (
	"context"
	"os"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal/ownmapsqldb"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE tiles (
	z INTEGER NOT NULL,
	x INTEGER NOT NULL,
	y INTEGER NOT NULL,
	data BLOB NOT NULL, -- Terrarium PNG
	PRIMARY KEY (z, x, y)
);

CREATE TABLE dataset_metadata (
	name TEXT NOT NULL,
	range_min REAL NOT NULL,
	range_max REAL NOT NULL,
	bounds_min_lat REAL,
	bounds_max_lat REAL,
	bounds_min_lon REAL,
	bounds_max_lon REAL,
	min_zoom INTEGER NOT NULL,
	max_zoom INTEGER NOT NULL
)`

func NewDBConn(ctx context.Context, filePath string) (*ownmapsqldb.SQLDataSource, errorsx.Error) {
	_, err := os.Stat(filePath)
	if err != nil {
		return nil, errorsx.Wrap(err, "filePath", filePath)
	}

	db, err := sqlx.Open("sqlite3", filePath)
	if err != nil {
		return nil, errorsx.Wrap(err, "filePath", filePath)
	}

	conn, connErr := ownmapsqldb.NewSQLDataSource(ctx, db)
	if connErr != nil {
		db.Close()
		return nil, errorsx.Wrap(connErr, "filePath", filePath)
	}

	return conn, nil
}

var _ ownmapdal.FinalStorage = &FinalStorage{}

// FinalStorage writes an import into a new sqlite file. The file is removed on rollback.
type FinalStorage struct {
	*ownmapsqldb.Importer
	db       *sqlx.DB
	filePath string
}

func NewFinalStorage(filePath string) (*FinalStorage, errorsx.Error) {
	_, err := os.Stat(filePath)
	if err == nil {
		return nil, errorsx.Errorf("%q already exists", filePath)
	}

	db, err := sqlx.Open("sqlite3", filePath)
	if err != nil {
		return nil, errorsx.Wrap(err, "filePath", filePath)
	}

	// a single connection, so the schema and the import transaction see the same database
	db.SetMaxOpenConns(1)

	_, err = db.Exec(sqliteSchema)
	if err != nil {
		db.Close()
		return nil, errorsx.Wrap(err, "filePath", filePath)
	}

	importer, importerErr := ownmapsqldb.NewImporter(db)
	if importerErr != nil {
		db.Close()
		return nil, importerErr
	}

	return &FinalStorage{importer, db, filePath}, nil
}

func (s *FinalStorage) Rollback() errorsx.Error {
	rollbackErr := s.Importer.Rollback()

	err := s.db.Close()
	if err != nil {
		return errorsx.Wrap(err)
	}

	err = os.Remove(s.filePath)
	if err != nil && !os.IsNotExist(err) {
		return errorsx.Wrap(err)
	}

	if rollbackErr != nil {
		return rollbackErr
	}

	return nil
}
