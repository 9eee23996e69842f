package webservices

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmap/maprenderer"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
	"github.com/jamesrr39/semaphore"
	"github.com/pkg/profile"
)

type HillshadeService struct {
	logger        *logpkg.Logger
	dbConnSet     *ownmapdal.DBConnSet
	sema          *semaphore.Semaphore
	renderer      maprenderer.MapRenderer
	settings      *ownmap.Settings
	shouldProfile bool
	chi.Router
}

func NewHillshadeService(logger *logpkg.Logger, dbConnSet *ownmapdal.DBConnSet, renderer maprenderer.MapRenderer, settings *ownmap.Settings, sema *semaphore.Semaphore, shouldProfile bool) *HillshadeService {
	hs := &HillshadeService{logger, dbConnSet, sema, renderer, settings, shouldProfile, chi.NewRouter()}

	hs.Get("/{dataset}/preview.png", hs.handleGetPreview)
	hs.Get("/{dataset}/{z}/{x}/{y}.png", hs.handleGetTile)

	return hs
}

func (hs *HillshadeService) handleGetTile(w http.ResponseWriter, r *http.Request) {
	if hs.shouldProfile {
		defer profile.Start().Stop()
	}

	ctx := r.Context()
	datasetName := chi.URLParam(r, "dataset")

	tile, err := parseTileCoordinate(chi.URLParam(r, "z"), chi.URLParam(r, "x"), chi.URLParam(r, "y"))
	if err != nil {
		errorsx.HTTPError(w, hs.logger, err, http.StatusBadRequest)
		return
	}

	params, err := parseHillshadeParameters(r.URL.Query(), hs.settings)
	if err != nil {
		errorsx.HTTPError(w, hs.logger, err, http.StatusBadRequest)
		return
	}

	conn, metadata, statusCode, err := getDatasetMetadata(ctx, hs.dbConnSet, datasetName)
	if err != nil {
		errorsx.HTTPError(w, hs.logger, err, statusCode)
		return
	}

	hs.logger.Debug("serving hillshade tile %d/%d/%d for %q", tile.Z, tile.X, tile.Y, datasetName)

	grid, err := fetchTileGrid(ctx, conn, metadata, tile, params.TileSize)
	if err != nil {
		errorsx.HTTPError(w, hs.logger, err, http.StatusInternalServerError)
		return
	}

	hs.render(w, r, grid, &tile, params, metadata.Range)
}

// handleGetPreview renders the lowest zoom tile covering the centre of the dataset, shaded with a unit ground distance.
func (hs *HillshadeService) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	datasetName := chi.URLParam(r, "dataset")

	params, err := parseHillshadeParameters(r.URL.Query(), hs.settings)
	if err != nil {
		errorsx.HTTPError(w, hs.logger, err, http.StatusBadRequest)
		return
	}

	conn, metadata, statusCode, err := getDatasetMetadata(ctx, hs.dbConnSet, datasetName)
	if err != nil {
		errorsx.HTTPError(w, hs.logger, err, statusCode)
		return
	}

	lat, lon := ownmap.Center(metadata.Footprint())
	tile := ownmap.TileForLatLon(lat, lon, metadata.MinZoom)

	grid, err := fetchTileGrid(ctx, conn, metadata, tile, params.TileSize)
	if err != nil {
		errorsx.HTTPError(w, hs.logger, err, http.StatusInternalServerError)
		return
	}

	hs.render(w, r, grid, nil, params, metadata.Range)
}

// render writes the shaded tile, or an empty tile if grid is nil.
func (hs *HillshadeService) render(w http.ResponseWriter, r *http.Request, grid *ownmap.ElevationGrid, tile *ownmap.TileCoordinate, params ownmap.RenderParameters, valueRange ownmap.ValueRange) {
	ctx := r.Context()

	hs.sema.Add()
	defer hs.sema.Done()

	span := tracing.StartSpan(ctx, "render hillshade")
	var (
		img *bytes.Reader
		err errorsx.Error
	)
	if grid == nil {
		img, err = hs.renderer.RenderEmptyTile(params.TileSize, params.Format, hs.settings.PNGCompressLevel)
	} else {
		img, err = hs.renderer.RenderHillshade(grid, tile, params, valueRange, hs.settings.PNGCompressLevel)
	}
	span.End(ctx)
	if err != nil {
		errorsx.HTTPError(w, hs.logger, err, statusCodeForRenderError(err))
		return
	}

	writeImage(w, hs.logger, img, params.Format)
}
