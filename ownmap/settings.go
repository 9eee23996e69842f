package ownmap

import (
	"encoding/json"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
)

const (
	DefaultHillshadeColormap = "Greys_r"
	DefaultDiscreteColormap  = "viridis"
)

// Settings holds the server-wide defaults used when a request doesn't specify them.
type Settings struct {
	DefaultTileSize      TileSize `json:"defaultTileSize"`
	PNGCompressLevel     int      `json:"pngCompressLevel"`
	DefaultImageFormat   string   `json:"defaultImageFormat"`
	MaxConcurrentRenders uint     `json:"maxConcurrentRenders"`
	HillshadeColormap    string   `json:"hillshadeColormap"`
	DiscreteColormap     string   `json:"discreteColormap"`
	DiscreteClasses      int      `json:"discreteClasses"`
}

func DefaultSettings() *Settings {
	return &Settings{
		DefaultTileSize:      TileSize{Width: 256, Height: 256},
		PNGCompressLevel:     1,
		DefaultImageFormat:   "png",
		MaxConcurrentRenders: 4,
		HillshadeColormap:    DefaultHillshadeColormap,
		DiscreteColormap:     DefaultDiscreteColormap,
		DiscreteClasses:      16,
	}
}

// LoadSettings reads a JSON settings file. Fields missing from the file keep their default values.
func LoadSettings(fs gofs.Fs, path string) (*Settings, errorsx.Error) {
	settings := DefaultSettings()

	b, err := fs.ReadFile(path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	err = json.Unmarshal(b, settings)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	validationErr := settings.Validate()
	if validationErr != nil {
		return nil, errorsx.Wrap(validationErr, "path", path)
	}

	return settings, nil
}

func (s *Settings) Validate() errorsx.Error {
	err := s.DefaultTileSize.Validate()
	if err != nil {
		return errorsx.Wrap(err)
	}

	if s.PNGCompressLevel < 0 || s.PNGCompressLevel > 9 {
		return errorsx.Errorf("png compress level must be between 0 and 9, but got %d", s.PNGCompressLevel)
	}

	switch s.DefaultImageFormat {
	case "png", "webp":
	default:
		return errorsx.Errorf("unsupported default image format: %q", s.DefaultImageFormat)
	}

	if s.MaxConcurrentRenders == 0 {
		return errorsx.Errorf("max concurrent renders must be at least 1")
	}

	if s.DiscreteClasses < 1 {
		return errorsx.Errorf("discrete classes must be at least 1, but got %d", s.DiscreteClasses)
	}

	return nil
}
