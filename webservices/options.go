package webservices

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
)

const (
	defaultAzimuthDeg           = 315
	defaultAltitudeDeg          = 45
	defaultVerticalExaggeration = 1
	defaultBlendMode            = ownmap.BlendModeSoft
	defaultContourInterval      = 5
)

// queryJSON decodes a query parameter as a JSON value. It reports false if the parameter is absent.
func queryJSON(query url.Values, key string, dest interface{}) (bool, errorsx.Error) {
	value := query.Get(key)
	if value == "" {
		return false, nil
	}

	err := json.Unmarshal([]byte(value), dest)
	if err != nil {
		return false, errorsx.Wrap(err, "parameter", key, "value", value)
	}

	return true, nil
}

func queryFloat(query url.Values, key string, defaultValue float64) (float64, errorsx.Error) {
	value := defaultValue
	_, err := queryJSON(query, key, &value)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errorsx.Errorf("parameter %q must be a finite number", key)
	}

	return value, nil
}

func queryOptionalFloat(query url.Values, key string) (*float64, errorsx.Error) {
	value := new(float64)
	found, err := queryJSON(query, key, value)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	return value, nil
}

func queryInt(query url.Values, key string, defaultValue int) (int, errorsx.Error) {
	value := defaultValue
	_, err := queryJSON(query, key, &value)
	if err != nil {
		return 0, err
	}

	return value, nil
}

// queryString reads a string parameter. A JSON-quoted value such as "viridis" is decoded,
// anything else is taken as it is.
func queryString(query url.Values, key, defaultValue string) string {
	value := query.Get(key)
	if value == "" {
		return defaultValue
	}

	var decoded string
	err := json.Unmarshal([]byte(value), &decoded)
	if err != nil {
		return value
	}

	if decoded == "" {
		return defaultValue
	}

	return decoded
}

// queryTileSize decodes a tile size given as [width, height].
func queryTileSize(query url.Values, defaultValue ownmap.TileSize) (ownmap.TileSize, errorsx.Error) {
	var dimensions []int
	found, err := queryJSON(query, "tile_size", &dimensions)
	if err != nil {
		return ownmap.TileSize{}, err
	}

	if !found {
		return defaultValue, nil
	}

	if len(dimensions) != 2 {
		return ownmap.TileSize{}, errorsx.Errorf("tile_size must be [width, height], but got %v", dimensions)
	}

	size := ownmap.TileSize{Width: dimensions[0], Height: dimensions[1]}
	err = size.Validate()
	if err != nil {
		return ownmap.TileSize{}, err
	}

	return size, nil
}

func parseHillshadeParameters(query url.Values, settings *ownmap.Settings) (ownmap.RenderParameters, errorsx.Error) {
	var err errorsx.Error
	params := ownmap.RenderParameters{
		Colormap:  queryString(query, "colormap", settings.HillshadeColormap),
		BlendMode: ownmap.BlendMode(queryString(query, "blend_mode", string(defaultBlendMode))),
		Format:    queryString(query, "format", settings.DefaultImageFormat),
	}

	params.AzimuthDeg, err = queryFloat(query, "azimuth_degree", defaultAzimuthDeg)
	if err != nil {
		return params, err
	}

	params.AltitudeDeg, err = queryFloat(query, "altitude_degree", defaultAltitudeDeg)
	if err != nil {
		return params, err
	}

	params.VerticalExaggeration, err = queryFloat(query, "vertical_exaggeration", defaultVerticalExaggeration)
	if err != nil {
		return params, err
	}

	params.TileSize, err = queryTileSize(query, settings.DefaultTileSize)
	if err != nil {
		return params, err
	}

	return params, nil
}

func parseDiscreteParameters(query url.Values, settings *ownmap.Settings) (ownmap.DiscreteParameters, errorsx.Error) {
	var err errorsx.Error
	params := ownmap.DiscreteParameters{
		Colormap: queryString(query, "colormap", settings.DiscreteColormap),
		Format:   queryString(query, "format", settings.DefaultImageFormat),
	}

	params.NClasses, err = queryInt(query, "n_classes", settings.DiscreteClasses)
	if err != nil {
		return params, err
	}

	if params.NClasses < 1 {
		return params, errorsx.Errorf("n_classes must be at least 1, but got %d", params.NClasses)
	}

	params.VMin, err = queryOptionalFloat(query, "vmin")
	if err != nil {
		return params, err
	}

	params.VMax, err = queryOptionalFloat(query, "vmax")
	if err != nil {
		return params, err
	}

	params.TileSize, err = queryTileSize(query, settings.DefaultTileSize)
	if err != nil {
		return params, err
	}

	return params, nil
}

func parseContourParameters(query url.Values, settings *ownmap.Settings) (ownmap.ContourParameters, errorsx.Error) {
	var err errorsx.Error
	params := ownmap.ContourParameters{
		Color:  ownmap.RGBA{A: 1},
		Format: queryString(query, "format", settings.DefaultImageFormat),
	}

	params.Color, err = queryColor(query, "color", params.Color)
	if err != nil {
		return params, err
	}

	params.Interval, err = queryFloat(query, "interval", defaultContourInterval)
	if err != nil {
		return params, err
	}

	if params.Interval <= 0 {
		return params, errorsx.Errorf("interval must be more than 0, but got %v", params.Interval)
	}

	params.TileSize, err = queryTileSize(query, settings.DefaultTileSize)
	if err != nil {
		return params, err
	}

	return params, nil
}

// queryColor decodes an opaque colour given as [r, g, b], with each channel from 0 to 1.
func queryColor(query url.Values, key string, defaultValue ownmap.RGBA) (ownmap.RGBA, errorsx.Error) {
	var channels []float64
	found, err := queryJSON(query, key, &channels)
	if err != nil {
		return ownmap.RGBA{}, err
	}

	if !found {
		return defaultValue, nil
	}

	if len(channels) != 3 {
		return ownmap.RGBA{}, errorsx.Errorf("%s must be [r, g, b], but got %v", key, channels)
	}

	for _, channel := range channels {
		if channel < 0 || channel > 1 {
			return ownmap.RGBA{}, errorsx.Errorf("%s channels must be between 0 and 1, but got %v", key, channels)
		}
	}

	return ownmap.RGBA{R: channels[0], G: channels[1], B: channels[2], A: 1}, nil
}

// parseTileCoordinate parses the z, x and y path parameters of a tile request.
func parseTileCoordinate(zStr, xStr, yStr string) (ownmap.TileCoordinate, errorsx.Error) {
	ints, err := stringsToInts(zStr, xStr, yStr)
	if err != nil {
		return ownmap.TileCoordinate{}, errorsx.Wrap(err)
	}

	tile := ownmap.TileCoordinate{X: ints[1], Y: ints[2], Z: ownmap.ZoomLevel(ints[0])}
	if !tile.IsValid() {
		return ownmap.TileCoordinate{}, errorsx.Errorf("invalid tile coordinate: %d/%d/%d", ints[0], ints[1], ints[2])
	}

	return tile, nil
}

func stringsToInts(s ...string) ([]int, error) {
	var ints []int
	for _, str := range s {
		i, err := strconv.Atoi(str)
		if err != nil {
			return nil, err
		}
		ints = append(ints, i)
	}

	return ints, nil
}
