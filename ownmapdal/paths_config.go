package ownmapdal

import (
	"path/filepath"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/userextra"
)

type PathsConfig struct {
	DataDir   string
	TracesDir string
	TempDir   string
}

const defaultBaseDir = "~/.local/share/github.com/jamesrr39/ownmap-hillshade"

// NewPathsConfig lays out the data, traces and temp directories under baseDir. An empty baseDir means the user's default data directory.
func NewPathsConfig(baseDir string) (*PathsConfig, errorsx.Error) {
	if baseDir == "" {
		baseDir = defaultBaseDir
	}

	baseDir, err := userextra.ExpandUser(baseDir)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return &PathsConfig{
		DataDir:   filepath.Join(baseDir, "data"),
		TracesDir: filepath.Join(baseDir, "traces"),
		TempDir:   filepath.Join(baseDir, "tmp"),
	}, nil
}

func (pc *PathsConfig) EnsurePaths(fs gofs.Fs) errorsx.Error {
	for _, dirPath := range []string{pc.DataDir, pc.TracesDir, pc.TempDir} {
		err := fs.MkdirAll(dirPath, 0755)
		if err != nil {
			return errorsx.Wrap(err, "path", dirPath)
		}
	}

	return nil
}
