package terrariumdb

import (
	"encoding/json"
	"path/filepath"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
)

var _ ownmapdal.FinalStorage = &FinalStorage{}

// FinalStorage writes imported tiles into a new tile directory.
type FinalStorage struct {
	fs      gofs.Fs
	dirPath string
}

func NewFinalStorage(fs gofs.Fs, dirPath string) (*FinalStorage, errorsx.Error) {
	_, err := fs.Stat(dirPath)
	if err == nil {
		return nil, errorsx.Errorf("%q already exists", dirPath)
	}

	err = fs.MkdirAll(dirPath, 0755)
	if err != nil {
		return nil, errorsx.Wrap(err, "dirPath", dirPath)
	}

	return &FinalStorage{fs, dirPath}, nil
}

func (s *FinalStorage) ImportTiles(tiles []*ownmapdal.RawTile) errorsx.Error {
	for _, tile := range tiles {
		tilePath := TilePath(s.dirPath, tile.Coordinate)

		err := s.fs.MkdirAll(filepath.Dir(tilePath), 0755)
		if err != nil {
			return errorsx.Wrap(err, "filepath", tilePath)
		}

		err = s.fs.WriteFile(tilePath, tile.Data, 0644)
		if err != nil {
			return errorsx.Wrap(err, "filepath", tilePath)
		}
	}

	return nil
}

func (s *FinalStorage) Commit(metadata *ownmap.DatasetMetadata) (ownmapdal.DataSourceConn, errorsx.Error) {
	metadataBytes, err := json.MarshalIndent(metadata, "", "\t")
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	metadataPath := filepath.Join(s.dirPath, MetadataFileName)
	err = s.fs.WriteFile(metadataPath, metadataBytes, 0644)
	if err != nil {
		return nil, errorsx.Wrap(err, "filepath", metadataPath)
	}

	db, dbErr := NewTerrariumDB(s.fs, s.dirPath)
	if dbErr != nil {
		return nil, dbErr
	}

	return db, nil
}

func (s *FinalStorage) Rollback() errorsx.Error {
	err := s.fs.RemoveAll(s.dirPath)
	if err != nil {
		return errorsx.Wrap(err, "dirPath", s.dirPath)
	}

	return nil
}
