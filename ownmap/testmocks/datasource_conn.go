package testmocks

import (
	"context"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
)

type MockDataSourceConn struct {
	NameFunc        func() string
	GetMetadataFunc func(ctx context.Context) (*ownmap.DatasetMetadata, errorsx.Error)
	GetTileDataFunc func(ctx context.Context, tile ownmap.TileCoordinate, size ownmap.TileSize) (*ownmap.ElevationGrid, errorsx.Error)
	CloseFunc       func() errorsx.Error
}

func (c *MockDataSourceConn) Name() string {
	return c.NameFunc()
}

func (c *MockDataSourceConn) GetMetadata(ctx context.Context) (*ownmap.DatasetMetadata, errorsx.Error) {
	return c.GetMetadataFunc(ctx)
}

func (c *MockDataSourceConn) GetTileData(ctx context.Context, tile ownmap.TileCoordinate, size ownmap.TileSize) (*ownmap.ElevationGrid, errorsx.Error) {
	return c.GetTileDataFunc(ctx, tile, size)
}

func (c *MockDataSourceConn) Close() errorsx.Error {
	if c.CloseFunc == nil {
		return nil
	}
	return c.CloseFunc()
}

// NewStaticDataSourceConn returns a mock with fixed metadata, whose tiles are all returned by getTileData.
func NewStaticDataSourceConn(metadata *ownmap.DatasetMetadata, getTileData func(tile ownmap.TileCoordinate, size ownmap.TileSize) (*ownmap.ElevationGrid, errorsx.Error)) *MockDataSourceConn {
	return &MockDataSourceConn{
		NameFunc: func() string {
			return metadata.Name
		},
		GetMetadataFunc: func(ctx context.Context) (*ownmap.DatasetMetadata, errorsx.Error) {
			return metadata, nil
		},
		GetTileDataFunc: func(ctx context.Context, tile ownmap.TileCoordinate, size ownmap.TileSize) (*ownmap.ElevationGrid, errorsx.Error) {
			return getTileData(tile, size)
		},
	}
}
