package webservices

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/bolt-tools/boltviz"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-hillshade/ownmapboltviz"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal/dbconnloader"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal/ownmapboltdb"
)

const (
	dbPath = "db"
)

type AdminService struct {
	logger            *logpkg.Logger
	fs                gofs.Fs
	pathsConfig       *ownmapdal.PathsConfig
	dbConnSet         *ownmapdal.DBConnSet
	importQueue       *ownmapdal.ImportQueue
	routerURLBasePath string
	chi.Router
}

func NewAdminService(
	logger *logpkg.Logger,
	fs gofs.Fs,
	pathsConfig *ownmapdal.PathsConfig,
	dbConnSet *ownmapdal.DBConnSet,
	importQueue *ownmapdal.ImportQueue,
	routerURLBasePath string,
) *AdminService {

	as := &AdminService{logger, fs, pathsConfig, dbConnSet, importQueue, routerURLBasePath, chi.NewRouter()}

	as.Router.Get(fmt.Sprintf("/%s/{dbName}/*", dbPath), as.handleDBVisualisation)
	as.Router.Get("/", as.handleGet)
	as.Router.Get("/importQueue", as.handleGetImportQueue)
	as.Router.Post("/import", as.handlePostImport)

	return as
}

func (as *AdminService) handleDBVisualisation(w http.ResponseWriter, r *http.Request) {
	dbName := chi.URLParam(r, "dbName")

	dbConn := as.dbConnSet.GetConn(dbName)
	if dbConn == nil {
		errorsx.HTTPError(w, as.logger, errorsx.Errorf("couldn't find db %q", dbName), http.StatusNotFound)
		return
	}

	switch t := dbConn.(type) {
	case *ownmapboltdb.BoltDB:
		handleFunc, err := boltviz.NewHandlerFunc(t.DB(), ownmapboltviz.GetTemplateMap(), dbName)
		if err != nil {
			errorsx.HTTPError(w, as.logger, err, http.StatusInternalServerError)
			return
		}

		// strip prefix of route
		replacePath := fmt.Sprintf("/%s/%s/%s", as.routerURLBasePath, dbPath, dbName)
		r.URL.Path = strings.Replace(r.URL.Path, replacePath, "", 1)

		handleFunc(w, r)
	default:
		errorsx.HTTPError(w, as.logger, errorsx.Errorf("db %q is of type %T, which can't be visualised", dbName, dbConn), http.StatusBadRequest)
	}
}

type importRequest struct {
	// Source is a connection string of the form type://path
	Source     string               `json:"source"`
	Name       string               `json:"name"`
	TargetType ownmapdal.DBFileType `json:"targetType"`
}

func (as *AdminService) handlePostImport(w http.ResponseWriter, r *http.Request) {
	req := new(importRequest)
	err := json.NewDecoder(r.Body).Decode(req)
	if err != nil {
		errorsx.HTTPError(w, as.logger, errorsx.Wrap(err), http.StatusBadRequest)
		return
	}

	_, parseErr := ownmapdal.ParseDBConnFilePath(req.Source)
	if parseErr != nil {
		errorsx.HTTPError(w, as.logger, parseErr, http.StatusBadRequest)
		return
	}

	suffix, suffixErr := dbconnloader.FileSuffix(req.TargetType)
	if suffixErr != nil {
		errorsx.HTTPError(w, as.logger, suffixErr, http.StatusBadRequest)
		return
	}

	processFunc := func(targetPath string, onProgress func(tilesDone, tilesTotal int)) (ownmapdal.DataSourceConn, errorsx.Error) {
		opts := ownmapdal.DefaultImportOptions()
		opts.Name = req.Name
		opts.OnProgress = onProgress

		return dbconnloader.ImportDataset(context.Background(), as.logger, as.fs, req.Source, req.TargetType, targetPath, opts)
	}

	item, queueErr := as.importQueue.AddItemToQueue(req.Name, suffix, processFunc, as.dbConnSet.AddDBConn)
	if queueErr != nil {
		errorsx.HTTPError(w, as.logger, queueErr, http.StatusBadRequest)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, item)
}

func (as *AdminService) handleGetImportQueue(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, as.importQueue.GetItems())
}

type adminDBLink struct {
	Name         string
	Visualisable bool
}

func (as *AdminService) handleGet(w http.ResponseWriter, r *http.Request) {
	var dbLinks []adminDBLink
	for _, dbConn := range as.dbConnSet.GetConns() {
		_, isBolt := dbConn.(*ownmapboltdb.BoltDB)
		dbLinks = append(dbLinks, adminDBLink{dbConn.Name(), isBolt})
	}

	data := map[string]interface{}{
		"DBLinks":           dbLinks,
		"RouterURLBasePath": as.routerURLBasePath,
		"DataDirImportPath": as.pathsConfig.DataDir,
		"ImportQueueStatus": as.importQueue.GetItems(),
	}

	err := adminTmpl.Execute(w, data)
	if err != nil {
		errorsx.HTTPError(w, as.logger, errorsx.Wrap(err), http.StatusInternalServerError)
		return
	}
}

var adminTmpl *template.Template

func init() {
	var err error
	adminTmpl, err = template.New("admin/index.html").Parse(adminTemplate)
	if err != nil {
		panic(err)
	}
}

const adminTemplate = `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>ownmap-hillshade admin</title>
	<style type="text/css">
	section { margin: 1em 0; padding: 0.5em 1em; border-left: 4px solid #999; }
	table { border-collapse: collapse; }
	td, th { padding: 0.2em 0.8em; text-align: left; }
	</style>
</head>
<body>
	<h1>Admin</h1>
	<section>
		<h2>Datasets</h2>
		<ul>
		{{range .DBLinks}}
			<li>{{if .Visualisable}}<a href="db/{{.Name}}/">{{.Name}}</a>{{else}}{{.Name}}{{end}}</li>
		{{else}}
			<li>No datasets loaded</li>
		{{end}}
		</ul>
	</section>

	<section>
		<h2>Imports</h2>
		<table>
			<tr><th>Name</th><th>Target</th><th>Status</th><th>Progress</th><th>Running for</th><th>Error</th></tr>
			{{range .ImportQueueStatus}}
			<tr>
				<td>{{.Name}}</td>
				<td>{{.TargetPath}}</td>
				<td>{{.Status}}</td>
				<td>{{printf "%.1f%%" .ProgressPercent}}</td>
				<td>{{.TimeInProgress}}</td>
				<td>{{.Error}}</td>
			</tr>
			{{end}}
		</table>
		<p><small>Reload the page to see progress</small></p>
	</section>

	<section>
		<h2>New import</h2>
		<p>The new dataset is written to {{.DataDirImportPath}}</p>
		<form id="import-form">
			<p><label>Source <input type="text" name="source" placeholder="terrarium:///data/tiles" /></label></p>
			<p><label>Name <input type="text" name="name" /></label></p>
			<p>
				<label>Storage type
					<select name="targetType">
						<option value="bolt">bolt</option>
						<option value="parquet">parquet</option>
						<option value="sqlite">sqlite</option>
						<option value="terrarium">terrarium</option>
					</select>
				</label>
			</p>
			<button type="submit">Import</button>
		</form>
	</section>

	<script>
	document.getElementById("import-form").addEventListener("submit", async (event) => {
		event.preventDefault();
		const form = event.target;
		const resp = await fetch("/{{.RouterURLBasePath}}/import", {
			method: "POST",
			body: JSON.stringify({
				source: form.elements.source.value,
				name: form.elements.name.value,
				targetType: form.elements.targetType.value,
			}),
		});
		if (!resp.ok) {
			alert("couldn't queue the import: " + await resp.text());
			return;
		}
		window.location.reload();
	});
	</script>
</body>
</html>
`
