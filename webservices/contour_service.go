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

// ContourService serves transparent tiles with contour lines, for layering over a hillshade.
type ContourService struct {
	logger    *logpkg.Logger
	dbConnSet *ownmapdal.DBConnSet
	sema      *semaphore.Semaphore
	renderer  maprenderer.MapRenderer
	settings  *ownmap.Settings
	chi.Router
}

func NewContourService(logger *logpkg.Logger, dbConnSet *ownmapdal.DBConnSet, renderer maprenderer.MapRenderer, settings *ownmap.Settings, sema *semaphore.Semaphore) *ContourService {
	cs := &ContourService{logger, dbConnSet, sema, renderer, settings, chi.NewRouter()}

	cs.Get("/{dataset}/{z}/{x}/{y}.png", cs.handleGetTile)

	return cs
}

func (cs *ContourService) handleGetTile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	datasetName := chi.URLParam(r, "dataset")

	tile, err := parseTileCoordinate(chi.URLParam(r, "z"), chi.URLParam(r, "x"), chi.URLParam(r, "y"))
	if err != nil {
		errorsx.HTTPError(w, cs.logger, err, http.StatusBadRequest)
		return
	}

	params, err := parseContourParameters(r.URL.Query(), cs.settings)
	if err != nil {
		errorsx.HTTPError(w, cs.logger, err, http.StatusBadRequest)
		return
	}

	conn, metadata, statusCode, err := getDatasetMetadata(ctx, cs.dbConnSet, datasetName)
	if err != nil {
		errorsx.HTTPError(w, cs.logger, err, statusCode)
		return
	}

	cs.logger.Debug("serving contour tile %d/%d/%d for %q", tile.Z, tile.X, tile.Y, datasetName)

	grid, err := fetchTileGrid(ctx, conn, metadata, tile, params.TileSize)
	if err != nil {
		errorsx.HTTPError(w, cs.logger, err, http.StatusInternalServerError)
		return
	}

	cs.sema.Add()
	defer cs.sema.Done()

	span := tracing.StartSpan(ctx, "render contour")
	var img *bytes.Reader
	if grid == nil {
		img, err = cs.renderer.RenderEmptyTile(params.TileSize, params.Format, cs.settings.PNGCompressLevel)
	} else {
		img, err = cs.renderer.RenderContour(grid, params, metadata.Range, cs.settings.PNGCompressLevel)
	}
	span.End(ctx)
	if err != nil {
		errorsx.HTTPError(w, cs.logger, err, statusCodeForRenderError(err))
		return
	}

	writeImage(w, cs.logger, img, params.Format)
}
