package webservices

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
	"github.com/jamesrr39/ownmap-hillshade/styling"
)

func NewInfoService(logger *logpkg.Logger, dbConnSet *ownmapdal.DBConnSet, colormapSet *styling.ColormapSet, settings *ownmap.Settings) *InfoService {
	ws := &InfoService{logger, dbConnSet, colormapSet, settings, chi.NewRouter()}
	ws.Get("/", ws.handleGet)

	return ws
}

type InfoService struct {
	logger      *logpkg.Logger
	dbConnSet   *ownmapdal.DBConnSet
	colormapSet *styling.ColormapSet
	settings    *ownmap.Settings
	chi.Router
}

type colormapsType struct {
	DefaultColormapID         string   `json:"defaultColormapId"`
	DefaultDiscreteColormapID string   `json:"defaultDiscreteColormapId"`
	ColormapIDs               []string `json:"colormapIds"`
}

type infoType struct {
	Colormaps       colormapsType             `json:"colormaps"`
	DefaultTileSize ownmap.TileSize           `json:"defaultTileSize"`
	Datasets        []*ownmap.DatasetMetadata `json:"datasets"`
}

func (ws *InfoService) handleGet(w http.ResponseWriter, r *http.Request) {
	datasets := []*ownmap.DatasetMetadata{}

	for _, conn := range ws.dbConnSet.GetConns() {
		metadata, err := conn.GetMetadata(r.Context())
		if err != nil {
			errorsx.HTTPError(w, ws.logger, err, http.StatusInternalServerError)
			return
		}

		datasets = append(datasets, metadata)
	}

	// make deterministic
	sort.Slice(datasets, func(a, b int) bool {
		return datasets[a].Name < datasets[b].Name
	})

	colormaps := colormapsType{
		ws.colormapSet.Get(ws.settings.HillshadeColormap).GetColormapID(),
		ws.colormapSet.Get(ws.settings.DiscreteColormap).GetColormapID(),
		ws.colormapSet.GetAllColormapIDs(),
	}

	render.JSON(w, r, infoType{colormaps, ws.settings.DefaultTileSize, datasets})
}
