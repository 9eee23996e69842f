package webservices

import (
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmap/testmocks"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
	"github.com/jamesrr39/ownmap-hillshade/ownmaprenderer"
	"github.com/jamesrr39/ownmap-hillshade/styling"
	"github.com/jamesrr39/semaphore"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logpkg.Logger {
	return logpkg.NewLogger(io.Discard, logpkg.LogLevelError)
}

func testMetadata() *ownmap.DatasetMetadata {
	return &ownmap.DatasetMetadata{
		Name:    "alps",
		Range:   ownmap.ValueRange{Min: 0, Max: 1000},
		Bounds:  &ownmap.Bounds{MinLat: 0, MaxLat: 10, MinLon: 0, MaxLon: 10},
		MinZoom: 3,
		MaxZoom: 10,
	}
}

// slopeGrid returns a grid rising from west to east.
func slopeGrid(size ownmap.TileSize) *ownmap.ElevationGrid {
	grid := ownmap.NewElevationGrid(size.Width, size.Height)
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			grid.Set(x, y, float64(x*10))
		}
	}
	return grid
}

type testEnv struct {
	dbConnSet   *ownmapdal.DBConnSet
	colormapSet *styling.ColormapSet
	renderer    *ownmaprenderer.HillshadeRenderer
	settings    *ownmap.Settings
	sema        *semaphore.Semaphore
	tileCalls   []ownmap.TileCoordinate
}

func newTestEnv(t *testing.T) *testEnv {
	colormapSet, err := styling.NewBuiltinColormapSet()
	require.NoError(t, err)

	settings := ownmap.DefaultSettings()
	settings.DefaultTileSize = ownmap.TileSize{Width: 8, Height: 8}

	env := &testEnv{
		colormapSet: colormapSet,
		renderer:    ownmaprenderer.NewHillshadeRenderer(colormapSet),
		settings:    settings,
		sema:        semaphore.NewSemaphore(2),
	}

	conn := testmocks.NewStaticDataSourceConn(testMetadata(), func(tile ownmap.TileCoordinate, size ownmap.TileSize) (*ownmap.ElevationGrid, errorsx.Error) {
		env.tileCalls = append(env.tileCalls, tile)
		return slopeGrid(size), nil
	})

	env.dbConnSet = ownmapdal.NewDBConnSet(newTestLogger(), []ownmapdal.DataSourceConn{conn})

	return env
}

func serve(handler http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(method, target, body)

	tracing.Middleware(tracing.NewTracer(io.Discard))(handler).ServeHTTP(w, r)

	return w
}

func decodeResponsePNG(t *testing.T, w *httptest.ResponseRecorder) image.Image {
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img, err := png.Decode(w.Body)
	require.NoError(t, err)

	return img
}
