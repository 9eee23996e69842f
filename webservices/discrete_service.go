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
)

// DiscreteService serves tiles where the elevation is quantised into classes, each with its own colour.
type DiscreteService struct {
	logger    *logpkg.Logger
	dbConnSet *ownmapdal.DBConnSet
	sema      *semaphore.Semaphore
	renderer  maprenderer.MapRenderer
	settings  *ownmap.Settings
	chi.Router
}

func NewDiscreteService(logger *logpkg.Logger, dbConnSet *ownmapdal.DBConnSet, renderer maprenderer.MapRenderer, settings *ownmap.Settings, sema *semaphore.Semaphore) *DiscreteService {
	ds := &DiscreteService{logger, dbConnSet, sema, renderer, settings, chi.NewRouter()}

	ds.Get("/{dataset}/{z}/{x}/{y}.png", ds.handleGetTile)

	return ds
}

func (ds *DiscreteService) handleGetTile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	datasetName := chi.URLParam(r, "dataset")

	tile, err := parseTileCoordinate(chi.URLParam(r, "z"), chi.URLParam(r, "x"), chi.URLParam(r, "y"))
	if err != nil {
		errorsx.HTTPError(w, ds.logger, err, http.StatusBadRequest)
		return
	}

	params, err := parseDiscreteParameters(r.URL.Query(), ds.settings)
	if err != nil {
		errorsx.HTTPError(w, ds.logger, err, http.StatusBadRequest)
		return
	}

	conn, metadata, statusCode, err := getDatasetMetadata(ctx, ds.dbConnSet, datasetName)
	if err != nil {
		errorsx.HTTPError(w, ds.logger, err, statusCode)
		return
	}

	grid, err := fetchTileGrid(ctx, conn, metadata, tile, params.TileSize)
	if err != nil {
		errorsx.HTTPError(w, ds.logger, err, http.StatusInternalServerError)
		return
	}

	ds.sema.Add()
	defer ds.sema.Done()

	span := tracing.StartSpan(ctx, "render discrete")
	var img *bytes.Reader
	if grid == nil {
		img, err = ds.renderer.RenderEmptyTile(params.TileSize, params.Format, ds.settings.PNGCompressLevel)
	} else {
		img, err = ds.renderer.RenderDiscrete(grid, params, metadata.Range, ds.settings.PNGCompressLevel)
	}
	span.End(ctx)
	if err != nil {
		errorsx.HTTPError(w, ds.logger, err, statusCodeForRenderError(err))
		return
	}

	writeImage(w, ds.logger, img, params.Format)
}
