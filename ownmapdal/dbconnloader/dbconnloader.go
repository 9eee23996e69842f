package dbconnloader

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal/ownmapboltdb"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal/ownmapsqldb/ownmappostgresql"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal/ownmapsqldb/ownmapsqlite"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal/parquetdb"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal/terrariumdb"
)

// DefaultScanConcurrency is the number of tiles decoded at once when a terrarium directory has no metadata file.
const DefaultScanConcurrency = 4

// LoadDBConn opens a dataset from a connection string of the form type://path.
func LoadDBConn(ctx context.Context, logger *logpkg.Logger, fs gofs.Fs, dbConfigString string) (ownmapdal.DataSourceConn, errorsx.Error) {
	dbConnConfig, err := ownmapdal.ParseDBConnFilePath(dbConfigString)
	if err != nil {
		return nil, errorsx.Wrap(err, "db file path", dbConfigString)
	}

	switch dbConnConfig.Type {
	case ownmapdal.DBFileTypeTerrarium:
		conn, err := terrariumdb.NewDBConn(ctx, logger, fs, dbConnConfig.ConnectionPath, DefaultScanConcurrency)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case ownmapdal.DBFileTypeBolt:
		conn, err := ownmapboltdb.NewDBConn(dbConnConfig.ConnectionPath)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case ownmapdal.DBFileTypeParquet:
		conn, err := parquetdb.NewParquetDatasource(fs, dbConnConfig.ConnectionPath)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case ownmapdal.DBFileTypePostgresql:
		conn, err := ownmappostgresql.NewDBConn(ctx, dbConnConfig.ConnectionPath)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case ownmapdal.DBFileTypeSqlite:
		conn, err := ownmapsqlite.NewDBConn(ctx, dbConnConfig.ConnectionPath)
		if err != nil {
			return nil, err
		}
		return conn, nil
	default:
		return nil, errorsx.Errorf("unrecognised db file type: %q", dbConnConfig.Type)
	}
}

// LoadTileSource opens a dataset that can be used as the source of an import.
func LoadTileSource(ctx context.Context, logger *logpkg.Logger, fs gofs.Fs, dbConfigString string) (ownmapdal.TileSource, ownmapdal.DataSourceConn, errorsx.Error) {
	conn, err := LoadDBConn(ctx, logger, fs, dbConfigString)
	if err != nil {
		return nil, nil, err
	}

	source, ok := conn.(ownmapdal.TileSource)
	if !ok {
		conn.Close()
		return nil, nil, errorsx.Errorf("%q can't be used as an import source", dbConfigString)
	}

	return source, conn, nil
}

// NewFinalStorage creates a new, empty dataset of the given type to import into.
func NewFinalStorage(fs gofs.Fs, dbFileType ownmapdal.DBFileType, connectionPath string) (ownmapdal.FinalStorage, errorsx.Error) {
	switch dbFileType {
	case ownmapdal.DBFileTypeTerrarium:
		storage, err := terrariumdb.NewFinalStorage(fs, connectionPath)
		if err != nil {
			return nil, err
		}
		return storage, nil
	case ownmapdal.DBFileTypeBolt:
		storage, err := ownmapboltdb.NewFinalStorage(connectionPath)
		if err != nil {
			return nil, err
		}
		return storage, nil
	case ownmapdal.DBFileTypeParquet:
		storage, err := parquetdb.NewImporter(fs, connectionPath)
		if err != nil {
			return nil, err
		}
		return storage, nil
	case ownmapdal.DBFileTypePostgresql:
		storage, err := ownmappostgresql.NewFinalStorage(connectionPath)
		if err != nil {
			return nil, err
		}
		return storage, nil
	case ownmapdal.DBFileTypeSqlite:
		storage, err := ownmapsqlite.NewFinalStorage(connectionPath)
		if err != nil {
			return nil, err
		}
		return storage, nil
	default:
		return nil, errorsx.Errorf("unrecognised db file type: %q", dbFileType)
	}
}

// FileSuffix is the suffix given to new datasets of a type created in the data directory.
// Postgresql datasets aren't files, so it returns an error for them.
func FileSuffix(dbFileType ownmapdal.DBFileType) (string, errorsx.Error) {
	switch dbFileType {
	case ownmapdal.DBFileTypeTerrarium, ownmapdal.DBFileTypeParquet:
		return "", nil
	case ownmapdal.DBFileTypeBolt:
		return ".db", nil
	case ownmapdal.DBFileTypeSqlite:
		return ".sqlite", nil
	default:
		return "", errorsx.Errorf("db file type %q can't be created in the data directory", dbFileType)
	}
}

// DataDirConnString works out the connection string of an entry in the data directory, from its suffix or, for directories, its contents.
// It returns false if the entry isn't a dataset.
func DataDirConnString(fs gofs.Fs, dirPath string, fileInfo os.FileInfo) (string, bool) {
	filePath := filepath.Join(dirPath, fileInfo.Name())

	var dbFileType ownmapdal.DBFileType
	switch {
	case fileInfo.IsDir():
		_, err := fs.Stat(filepath.Join(filePath, parquetdb.TilesFileName))
		if err == nil {
			dbFileType = ownmapdal.DBFileTypeParquet
		} else {
			dbFileType = ownmapdal.DBFileTypeTerrarium
		}
	case filepath.Ext(filePath) == ".db":
		dbFileType = ownmapdal.DBFileTypeBolt
	case filepath.Ext(filePath) == ".sqlite":
		dbFileType = ownmapdal.DBFileTypeSqlite
	default:
		return "", false
	}

	return string(dbFileType) + ownmapdal.ConnectionPathSeparator + filePath, true
}

// ImportDataset copies the dataset at sourceConfigString into a new dataset of targetType at targetPath.
func ImportDataset(ctx context.Context, logger *logpkg.Logger, fs gofs.Fs, sourceConfigString string, targetType ownmapdal.DBFileType, targetPath string, opts ownmapdal.ImportOptions) (ownmapdal.DataSourceConn, errorsx.Error) {
	source, sourceConn, err := LoadTileSource(ctx, logger, fs, sourceConfigString)
	if err != nil {
		return nil, err
	}
	defer sourceConn.Close()

	finalStorage, err := NewFinalStorage(fs, targetType, targetPath)
	if err != nil {
		return nil, err
	}

	return ownmapdal.Import(ctx, logger, source, finalStorage, opts)
}
