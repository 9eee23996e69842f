package ownmapdal

import (
	"errors"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
)

var (
	ErrNoDataAvailable = errors.New("no data available")
)

type DBFileType string

const (
	DBFileTypeTerrarium  DBFileType = "terrarium"
	DBFileTypeBolt       DBFileType = "bolt"
	DBFileTypeParquet    DBFileType = "parquet"
	DBFileTypePostgresql DBFileType = "postgresql"
	DBFileTypeSqlite     DBFileType = "sqlite"
)

type DBFileConnectionURL struct {
	Type           DBFileType
	ConnectionPath string
}

const ConnectionPathSeparator = "://"

func ParseDBConnFilePath(str string) (DBFileConnectionURL, errorsx.Error) {
	idx := strings.Index(str, ConnectionPathSeparator)
	if idx < 0 {
		return DBFileConnectionURL{}, errorsx.Errorf("couldn't find connection path separator %q in DB file path", ConnectionPathSeparator)
	}

	return DBFileConnectionURL{
		Type:           DBFileType(str[:idx]),
		ConnectionPath: str[idx+len(ConnectionPathSeparator):],
	}, nil
}
