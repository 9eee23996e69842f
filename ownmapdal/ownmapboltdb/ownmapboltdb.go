package ownmapboltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
)

var (
	MetadataBucketName = []byte("metadata")
	TilesBucketName    = []byte("tiles")

	metadataKey = []byte("metadata")
)

var (
	_ ownmapdal.DataSourceConn = &BoltDB{}
	_ ownmapdal.TileSource     = &BoltDB{}
)

// BoltDB is a dataset held in a single bolt file. Tiles are stored as Terrarium PNGs keyed by "z/x/y".
type BoltDB struct {
	db       *bolt.DB
	filePath string
	metadata *ownmap.DatasetMetadata
}

func NewDBConn(filePath string) (*BoltDB, errorsx.Error) {
	db, err := bolt.Open(filePath, 0600, &bolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, errorsx.Wrap(err, "filePath", filePath)
	}

	metadata := new(ownmap.DatasetMetadata)
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(MetadataBucketName)
		if bucket == nil {
			return errorsx.Errorf("bucket %q not found", MetadataBucketName)
		}

		metadataBytes := bucket.Get(metadataKey)
		if metadataBytes == nil {
			return errorsx.Wrap(ownmapdal.ErrNoDataAvailable, "reason", "no metadata")
		}

		return json.Unmarshal(metadataBytes, metadata)
	})
	if err != nil {
		db.Close()
		return nil, errorsx.Wrap(err, "filePath", filePath)
	}

	if metadata.Name == "" {
		metadata.Name = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}

	return &BoltDB{db, filePath, metadata}, nil
}

func (b *BoltDB) Name() string {
	return b.metadata.Name
}

func (b *BoltDB) GetMetadata(ctx context.Context) (*ownmap.DatasetMetadata, errorsx.Error) {
	return b.metadata, nil
}

func (b *BoltDB) GetTileData(ctx context.Context, tile ownmap.TileCoordinate, size ownmap.TileSize) (*ownmap.ElevationGrid, errorsx.Error) {
	data, err := b.GetRawTile(ctx, tile)
	if err != nil {
		return nil, err
	}

	return ownmapdal.GridFromTerrariumTile(data, size)
}

func (b *BoltDB) GetRawTile(ctx context.Context, tile ownmap.TileCoordinate) ([]byte, errorsx.Error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(TilesBucketName).Get(TileKey(tile))
		if value == nil {
			return errorsx.Wrap(ownmapdal.ErrNoDataAvailable, "tile", tile)
		}

		// bolt values are only valid for the life of the transaction
		data = make([]byte, len(value))
		copy(data, value)
		return nil
	})
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return data, nil
}

func (b *BoltDB) ListTiles(ctx context.Context) ([]ownmap.TileCoordinate, errorsx.Error) {
	var tiles []ownmap.TileCoordinate
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(TilesBucketName).ForEach(func(k, v []byte) error {
			tile, err := ParseTileKey(k)
			if err != nil {
				return err
			}

			tiles = append(tiles, tile)
			return nil
		})
	})
	if err != nil {
		return nil, errorsx.Wrap(err, "filePath", b.filePath)
	}

	return tiles, nil
}

// DB returns the underlying bolt database, for inspection.
func (b *BoltDB) DB() *bolt.DB {
	return b.db
}

func (b *BoltDB) Close() errorsx.Error {
	err := b.db.Close()
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}

func TileKey(tile ownmap.TileCoordinate) []byte {
	return []byte(fmt.Sprintf("%d/%d/%d", tile.Z, tile.X, tile.Y))
}

func ParseTileKey(key []byte) (ownmap.TileCoordinate, errorsx.Error) {
	var tile ownmap.TileCoordinate
	var z int
	_, err := fmt.Sscanf(string(key), "%d/%d/%d", &z, &tile.X, &tile.Y)
	if err != nil {
		return ownmap.TileCoordinate{}, errorsx.Wrap(err, "key", string(key))
	}

	tile.Z = ownmap.ZoomLevel(z)
	return tile, nil
}

var _ ownmapdal.FinalStorage = &FinalStorage{}

// FinalStorage writes an import into a new bolt file.
type FinalStorage struct {
	db       *bolt.DB
	filePath string
}

func NewFinalStorage(filePath string) (*FinalStorage, errorsx.Error) {
	_, err := os.Stat(filePath)
	if err == nil {
		return nil, errorsx.Errorf("%q already exists", filePath)
	}

	db, err := bolt.Open(filePath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errorsx.Wrap(err, "filePath", filePath)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucketName := range [][]byte{MetadataBucketName, TilesBucketName} {
			_, err := tx.CreateBucketIfNotExists(bucketName)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errorsx.Wrap(err, "filePath", filePath)
	}

	return &FinalStorage{db, filePath}, nil
}

func (s *FinalStorage) ImportTiles(tiles []*ownmapdal.RawTile) errorsx.Error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(TilesBucketName)
		for _, tile := range tiles {
			err := bucket.Put(TileKey(tile.Coordinate), tile.Data)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}

func (s *FinalStorage) Commit(metadata *ownmap.DatasetMetadata) (ownmapdal.DataSourceConn, errorsx.Error) {
	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(MetadataBucketName).Put(metadataKey, metadataBytes)
	})
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	err = s.db.Close()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	conn, connErr := NewDBConn(s.filePath)
	if connErr != nil {
		return nil, connErr
	}

	return conn, nil
}

func (s *FinalStorage) Rollback() errorsx.Error {
	// closing an already closed db is a no-op
	err := s.db.Close()
	if err != nil {
		return errorsx.Wrap(err)
	}

	err = os.Remove(s.filePath)
	if err != nil && !os.IsNotExist(err) {
		return errorsx.Wrap(err)
	}

	return nil
}
