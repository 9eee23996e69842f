package ownmapdal

import (
	"context"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/paulmach/osm"
)

// DataSourceConn is a connection to one elevation dataset.
type DataSourceConn interface {
	// Info methods
	Name() string
	GetMetadata(ctx context.Context) (*ownmap.DatasetMetadata, errorsx.Error)

	// Data fetch methods

	// GetTileData returns the elevation grid for a tile, sampled to size. It returns ErrNoDataAvailable if the dataset has no data for the tile.
	GetTileData(ctx context.Context, tile ownmap.TileCoordinate, size ownmap.TileSize) (*ownmap.ElevationGrid, errorsx.Error)

	Close() errorsx.Error
}

type DBConnSet struct {
	logger *logpkg.Logger
	conns  []DataSourceConn
	mu     *sync.RWMutex
}

func NewDBConnSet(logger *logpkg.Logger, conns []DataSourceConn) *DBConnSet {
	return &DBConnSet{logger, conns, new(sync.RWMutex)}
}

func (dbcs *DBConnSet) GetConns() []DataSourceConn {
	dbcs.mu.RLock()
	defer dbcs.mu.RUnlock()
	return dbcs.conns
}

// GetConn returns the connection for a dataset name, or nil if there isn't one.
func (dbcs *DBConnSet) GetConn(name string) DataSourceConn {
	for _, conn := range dbcs.GetConns() {
		if conn.Name() == name {
			return conn
		}
	}

	return nil
}

func (dbcs *DBConnSet) AddDBConn(conn DataSourceConn) {
	dbcs.mu.Lock()
	defer dbcs.mu.Unlock()
	dbcs.conns = append(dbcs.conns, conn)
}

// Close closes every connection, returning the first error found.
func (dbcs *DBConnSet) Close() errorsx.Error {
	var firstErr errorsx.Error
	for _, conn := range dbcs.GetConns() {
		err := conn.Close()
		if err != nil && firstErr == nil {
			firstErr = errorsx.Wrap(err, "dataset", conn.Name())
		}
	}

	return firstErr
}

type MatchLevel int

const (
	MatchLevelNone MatchLevel = iota
	MatchLevelPartial
	MatchLevelFull
)

var matchLevelNames = []string{"None", "Partial", "Full"}

func (m MatchLevel) String() string {
	return matchLevelNames[m]
}

type ChosenConnForBounds struct {
	MatchLevel MatchLevel
	DataSourceConn
}

func getMatchLevel(ctx context.Context, conn DataSourceConn, bounds osm.Bounds) (MatchLevel, errorsx.Error) {
	metadata, err := conn.GetMetadata(ctx)
	if err != nil {
		return 0, errorsx.Wrap(err)
	}

	dataSourceBounds := metadata.Footprint()

	atLeastPartialMatch := ownmap.Overlaps(dataSourceBounds, bounds)
	if !atLeastPartialMatch {
		return MatchLevelNone, nil
	}

	isFullMatch := ownmap.IsTotallyInside(dataSourceBounds, bounds)
	if isFullMatch {
		return MatchLevelFull, nil
	}

	return MatchLevelPartial, nil
}

// GetConnsForBounds selects the connections that have data for a given bounds
func (dbcs *DBConnSet) GetConnsForBounds(ctx context.Context, bounds osm.Bounds) ([]*ChosenConnForBounds, errorsx.Error) {
	var chosen []*ChosenConnForBounds

	for _, conn := range dbcs.GetConns() {
		matchLevel, err := getMatchLevel(ctx, conn, bounds)
		if err != nil {
			return nil, err
		}

		dbcs.logger.Debug("matchlevel: %s, dataset: %v", matchLevel, conn.Name())

		if matchLevel == MatchLevelNone {
			continue
		}

		chosen = append(chosen, &ChosenConnForBounds{
			DataSourceConn: conn,
			MatchLevel:     matchLevel,
		})
	}

	return chosen, nil
}
