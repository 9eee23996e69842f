package ownmapboltviz

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/jamesrr39/goutil/bolt-tools/boltviz"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal/ownmapboltdb"
)

// GetTemplateMap describes the keys and values of an ownmapboltdb file for the boltviz viewer.
func GetTemplateMap() boltviz.TemplateMap {
	return boltviz.TemplateMap{
		PrintKey: func(pair boltviz.KVPairDisplay) string {
			return string(pair.Key)
		},
		PrintValue: func(pair boltviz.KVPairDisplay) string {
			if len(pair.PathFragments) != 1 {
				return "(unknown)"
			}

			bucketName, err := base64.StdEncoding.DecodeString(pair.PathFragments[0])
			if err != nil {
				return "error: " + err.Error()
			}

			switch string(bucketName) {
			case string(ownmapboltdb.TilesBucketName):
				return describeTile(pair.Value)
			case string(ownmapboltdb.MetadataBucketName):
				return string(pair.Value)
			default:
				return fmt.Sprintf("unrecognised bucket name: %q", string(bucketName))
			}
		},
	}
}

func describeTile(value []byte) string {
	if len(value) == 0 {
		return "(empty)"
	}

	config, err := png.DecodeConfig(bytes.NewReader(value))
	if err != nil {
		return fmt.Sprintf("error decoding tile: %q", err)
	}

	return fmt.Sprintf("terrarium tile, %dx%d px (%d bytes)", config.Width, config.Height, len(value))
}
