package webservices

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-hillshade/styling"
)

const defaultColormapNumValues = 255

type ColormapService struct {
	logger      *logpkg.Logger
	colormapSet *styling.ColormapSet
	chi.Router
}

func NewColormapService(logger *logpkg.Logger, colormapSet *styling.ColormapSet) *ColormapService {
	cs := &ColormapService{logger, colormapSet, chi.NewRouter()}

	cs.Get("/", cs.handleGet)

	return cs
}

type colormapResponse struct {
	Colormap string                  `json:"colormap"`
	Values   []styling.ColormapEntry `json:"colormap_values"`
}

func (cs *ColormapService) handleGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	name := query.Get("colormap")
	if name != "" && cs.colormapSet.GetColormapByID(name) == nil {
		errorsx.HTTPError(w, cs.logger, errorsx.Errorf("unknown colormap %q", name), http.StatusBadRequest)
		return
	}

	colormap := cs.colormapSet.Get(name)

	stretchRange := []float64{0, 1}
	_, err := queryJSON(query, "stretch_range", &stretchRange)
	if err != nil {
		errorsx.HTTPError(w, cs.logger, err, http.StatusBadRequest)
		return
	}

	if len(stretchRange) != 2 {
		errorsx.HTTPError(w, cs.logger, errorsx.Errorf("stretch_range must be [min, max], but got %v", stretchRange), http.StatusBadRequest)
		return
	}

	numValues, err := queryInt(query, "num_values", defaultColormapNumValues)
	if err != nil {
		errorsx.HTTPError(w, cs.logger, err, http.StatusBadRequest)
		return
	}

	values, err := cs.colormapSet.Sample(colormap.GetColormapID(), stretchRange[0], stretchRange[1], numValues)
	if err != nil {
		errorsx.HTTPError(w, cs.logger, err, http.StatusBadRequest)
		return
	}

	render.JSON(w, r, colormapResponse{colormap.GetColormapID(), values})
}
