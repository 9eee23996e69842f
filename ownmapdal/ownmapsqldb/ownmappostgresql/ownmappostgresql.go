package ownmappostgresql

import (
	"context"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal/ownmapsqldb"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const postgresqlSchema = `
CREATE TABLE tiles (
	z SMALLINT NOT NULL,
	x INTEGER NOT NULL,
	y INTEGER NOT NULL,
	data BYTEA NOT NULL, -- Terrarium PNG
	PRIMARY KEY (z, x, y)
);

CREATE TABLE dataset_metadata (
	name TEXT NOT NULL,
	range_min DOUBLE PRECISION NOT NULL,
	range_max DOUBLE PRECISION NOT NULL,
	bounds_min_lat DOUBLE PRECISION,
	bounds_max_lat DOUBLE PRECISION,
	bounds_min_lon DOUBLE PRECISION,
	bounds_max_lon DOUBLE PRECISION,
	min_zoom SMALLINT NOT NULL,
	max_zoom SMALLINT NOT NULL
)`

func open(connStr string) (*sqlx.DB, errorsx.Error) {
	db, err := sqlx.Open("postgres", "postgresql://"+connStr)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return db, nil
}

// NewFinalStorage creates the schema in an empty database and starts an import into it.
func NewFinalStorage(connStr string) (*ownmapsqldb.Importer, errorsx.Error) {
	db, err := open(connStr)
	if err != nil {
		return nil, err
	}

	_, execErr := db.Exec(postgresqlSchema)
	if execErr != nil {
		db.Close()
		return nil, errorsx.Wrap(execErr)
	}

	return ownmapsqldb.NewImporter(db)
}

func NewDBConn(ctx context.Context, connStr string) (*ownmapsqldb.SQLDataSource, errorsx.Error) {
	db, err := open(connStr)
	if err != nil {
		return nil, err
	}

	conn, err := ownmapsqldb.NewSQLDataSource(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return conn, nil
}
