package ownmapboltviz

import (
	"encoding/base64"
	"testing"

	"github.com/jamesrr39/goutil/bolt-tools/boltviz"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTemplateMap(t *testing.T) {
	templateMap := GetTemplateMap()

	grid, err := ownmap.NewElevationGridFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)

	tileBytes, err := ownmapdal.EncodeTerrariumTile(grid)
	require.NoError(t, err)

	tilePair := boltviz.KVPairDisplay{
		Key:           []byte("3/1/2"),
		Value:         tileBytes,
		PathFragments: []string{base64.StdEncoding.EncodeToString([]byte("tiles"))},
	}

	assert.Equal(t, "3/1/2", templateMap.PrintKey(tilePair))
	assert.Contains(t, templateMap.PrintValue(tilePair), "terrarium tile, 3x2 px")

	metadataPair := boltviz.KVPairDisplay{
		Key:           []byte("metadata"),
		Value:         []byte(`{"name":"test"}`),
		PathFragments: []string{base64.StdEncoding.EncodeToString([]byte("metadata"))},
	}
	assert.Equal(t, `{"name":"test"}`, templateMap.PrintValue(metadataPair))

	assert.Equal(t, "(unknown)", templateMap.PrintValue(boltviz.KVPairDisplay{}))
}
