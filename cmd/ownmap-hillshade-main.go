package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/goutil/open"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal/dbconnloader"
	"github.com/jamesrr39/ownmap-hillshade/ownmaprenderer"
	"github.com/jamesrr39/ownmap-hillshade/styling"
	"github.com/jamesrr39/ownmap-hillshade/webservices"
	"github.com/jamesrr39/semaphore"
	"github.com/pkg/profile"
	"gopkg.in/alecthomas/kingpin.v2"
)

const (
	MAX_SERVER_RUNNING_ATTEMPTS = 50
	DEFAULT_PORT                = 9000
)

var logger *logpkg.Logger

func main() {
	if len(os.Args) == 1 {
		logger = logpkg.NewLogger(os.Stderr, logpkg.LogLevelInfo)
		// start in desktop "double-click" visual mode
		err := setupDesktopMode()
		if err != nil {
			log.Fatalf("failed to start server: %q\n%s\n", err.Error(), err.Stack())
		}
		return
	}

	verbose := kingpin.Flag("v", "verbose logging").Bool()

	setupServe()
	setupRender()
	setupImport()

	kingpin.CommandLine.PreAction(func(ctx *kingpin.ParseContext) error {
		logLevel := logpkg.LogLevelInfo
		if *verbose {
			logLevel = logpkg.LogLevelDebug
		}
		logger = logpkg.NewLogger(os.Stderr, logLevel)
		return nil
	})

	kingpin.Parse()
}

// withStack turns an errorsx.Error into an error printed with its stack trace, for kingpin to report.
func withStack(err errorsx.Error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("error: %q\nStack trace:\n%s", err.Error(), err.Stack())
}

func loadSettings(fs gofs.Fs, settingsFilePath string) (*ownmap.Settings, errorsx.Error) {
	if settingsFilePath == "" {
		return ownmap.DefaultSettings(), nil
	}

	return ownmap.LoadSettings(fs, settingsFilePath)
}

// loadDBConnsFromDir opens every dataset in the data directory. Entries that fail to open are logged and skipped.
func loadDBConnsFromDir(ctx context.Context, fs gofs.Fs, dataDir string) ([]ownmapdal.DataSourceConn, errorsx.Error) {
	fileInfos, err := fs.ReadDir(dataDir)
	if err != nil {
		return nil, errorsx.Wrap(err, "dataDir", dataDir)
	}

	var conns []ownmapdal.DataSourceConn
	for _, fileInfo := range fileInfos {
		connString, ok := dbconnloader.DataDirConnString(fs, dataDir, fileInfo)
		if !ok {
			logger.Debug("skipping %q in the data directory", fileInfo.Name())
			continue
		}

		conn, err := dbconnloader.LoadDBConn(ctx, logger, fs, connString)
		if err != nil {
			logger.Error("failed to load %q. Error: %q\nStack: %s", connString, err.Error(), err.Stack())
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

func loadDBConns(ctx context.Context, fs gofs.Fs, pathsConfig *ownmapdal.PathsConfig, connStrings []string) (*ownmapdal.DBConnSet, errorsx.Error) {
	conns, err := loadDBConnsFromDir(ctx, fs, pathsConfig.DataDir)
	if err != nil {
		return nil, err
	}

	for _, connString := range connStrings {
		conn, err := dbconnloader.LoadDBConn(ctx, logger, fs, connString)
		if err != nil {
			return nil, err
		}

		conns = append(conns, conn)
	}

	return ownmapdal.NewDBConnSet(logger, conns), nil
}

func setupDesktopMode() errorsx.Error {
	ctx := context.Background()
	fs := gofs.NewOsFs()

	pathsConfig, err := ownmapdal.NewPathsConfig("")
	if err != nil {
		return err
	}

	err = pathsConfig.EnsurePaths(fs)
	if err != nil {
		return err
	}

	dbConnSet, err := loadDBConns(ctx, fs, pathsConfig, nil)
	if err != nil {
		return err
	}
	defer dbConnSet.Close()

	router, err := createServer(fs, dbConnSet, ownmap.DefaultSettings(), pathsConfig, false)
	if err != nil {
		return err
	}

	server := httpextra.NewServerWithTimeouts()
	server.Addr = fmt.Sprintf("localhost:%d", DEFAULT_PORT)
	server.Handler = router

	errChan := make(chan errorsx.Error)

	go func() {
		err := server.ListenAndServe()
		if err != nil {
			errChan <- errorsx.Wrap(err)
		}
	}()

	go func() {
		errChan <- waitForServer(server.Addr)
	}()

	err = <-errChan
	if err != nil {
		return err
	}

	openErr := open.OpenURL(fmt.Sprintf("http://%s/%s/", server.Addr, adminPath))
	if openErr != nil {
		return errorsx.Wrap(openErr)
	}

	// serve until the server fails
	return <-errChan
}

// waitForServer polls the info endpoint until the server answers.
func waitForServer(addr string) errorsx.Error {
	client := http.Client{
		Timeout: time.Second * 10,
	}

	for i := 0; i < MAX_SERVER_RUNNING_ATTEMPTS; i++ {
		resp, err := client.Get(fmt.Sprintf("http://%s/api/info", addr))
		if err != nil {
			// retry after wait
			time.Sleep(time.Millisecond * 500)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return errorsx.Errorf("expected response code %d from /api/info call, but got %d", http.StatusOK, resp.StatusCode)
		}

		return nil
	}

	return errorsx.Errorf("server did not start after %d attempts", MAX_SERVER_RUNNING_ATTEMPTS)
}

var addrHelp = fmt.Sprintf(
	`address to serve on. Ex: ':%d' listen on port %d to traffic from anywhere. 'localhost:%d' listen on port %d to traffic from localhost`,
	DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT,
)

var dbFileHelp = fmt.Sprintf("dataset to serve. It should be the type, followed by the separator (%s), followed by the path or URL. For example: %s%smy/tiles/dir",
	ownmapdal.ConnectionPathSeparator,
	string(ownmapdal.DBFileTypeTerrarium),
	ownmapdal.ConnectionPathSeparator,
)

func setupServe() {
	cmd := kingpin.Command("serve", "serve webserver")
	addr := cmd.Flag("addr", addrHelp).Default(fmt.Sprintf(":%d", DEFAULT_PORT)).String()
	dbConnStrings := cmd.Arg("db-file", dbFileHelp).Strings()
	baseDir := cmd.Flag("base-dir", "directory holding the data, traces and tmp directories. Datasets in the data directory are served too").String()
	settingsFilePath := cmd.Flag("settings", "path to a JSON settings file").String()
	maxConcurrentRenders := cmd.Flag("max-concurrent-renders", "maximum amount of tiles rendered at once (overrides the settings file)").Uint()
	shouldProfile := cmd.Flag("profile", "profile the request performance").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		return withStack(runServe(*addr, *dbConnStrings, *baseDir, *settingsFilePath, *maxConcurrentRenders, *shouldProfile))
	})
}

func runServe(addr string, dbConnStrings []string, baseDir, settingsFilePath string, maxConcurrentRenders uint, shouldProfile bool) errorsx.Error {
	ctx := context.Background()
	fs := gofs.NewOsFs()

	settings, err := loadSettings(fs, settingsFilePath)
	if err != nil {
		return err
	}

	if maxConcurrentRenders != 0 {
		settings.MaxConcurrentRenders = maxConcurrentRenders
	}

	pathsConfig, err := ownmapdal.NewPathsConfig(baseDir)
	if err != nil {
		return err
	}

	err = pathsConfig.EnsurePaths(fs)
	if err != nil {
		return err
	}

	dbConnSet, err := loadDBConns(ctx, fs, pathsConfig, dbConnStrings)
	if err != nil {
		return err
	}
	defer dbConnSet.Close()

	router, err := createServer(fs, dbConnSet, settings, pathsConfig, shouldProfile)
	if err != nil {
		return err
	}

	server := httpextra.NewServerWithTimeouts()
	server.Addr = addr
	server.Handler = router

	logger.Info("about to start serving %d dataset(s) on %q", len(dbConnSet.GetConns()), addr)

	listenErr := server.ListenAndServe()
	if listenErr != nil {
		return errorsx.Wrap(listenErr)
	}

	return nil
}

func setupRender() {
	cmd := kingpin.Command("render", "render one hillshade tile to a file")
	dbConnString := cmd.Arg("db-file", dbFileHelp).Required().String()
	z := cmd.Arg("z", "zoom level").Required().Int()
	x := cmd.Arg("x", "tile x").Required().Int()
	y := cmd.Arg("y", "tile y").Required().Int()
	outFilePath := cmd.Arg("out", "file to write the image to").Required().String()
	settingsFilePath := cmd.Flag("settings", "path to a JSON settings file").String()
	colormap := cmd.Flag("colormap", "colormap to colour the elevation with").String()
	azimuth := cmd.Flag("azimuth", "azimuth of the light source, in degrees clockwise from north").Default("315").Float64()
	altitude := cmd.Flag("altitude", "altitude of the light source, in degrees above the horizon").Default("45").Float64()
	verticalExaggeration := cmd.Flag("vertical-exaggeration", "factor to scale the elevation by").Default("1").Float64()
	blendMode := cmd.Flag("blend-mode", "how the shading is applied to the colour (soft, overlay, hsv)").Default(string(ownmap.BlendModeSoft)).String()
	format := cmd.Flag("format", "image format (png, webp)").String()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		run := func() errorsx.Error {
			fs := gofs.NewOsFs()

			settings, err := loadSettings(fs, *settingsFilePath)
			if err != nil {
				return err
			}

			tile := ownmap.TileCoordinate{X: *x, Y: *y, Z: ownmap.ZoomLevel(*z)}
			if !tile.IsValid() {
				return errorsx.Errorf("invalid tile coordinate: %d/%d/%d", *z, *x, *y)
			}

			params := ownmap.RenderParameters{
				Colormap:             *colormap,
				AzimuthDeg:           *azimuth,
				AltitudeDeg:          *altitude,
				VerticalExaggeration: *verticalExaggeration,
				BlendMode:            ownmap.BlendMode(*blendMode),
				TileSize:             settings.DefaultTileSize,
				Format:               *format,
			}
			if params.Colormap == "" {
				params.Colormap = settings.HillshadeColormap
			}
			if params.Format == "" {
				params.Format = settings.DefaultImageFormat
			}

			img, err := renderTile(context.Background(), fs, *dbConnString, tile, params, settings)
			if err != nil {
				return err
			}

			file, createErr := fs.Create(*outFilePath)
			if createErr != nil {
				return errorsx.Wrap(createErr)
			}
			defer file.Close()

			_, copyErr := io.Copy(file, img)
			if copyErr != nil {
				return errorsx.Wrap(copyErr)
			}

			logger.Info("wrote %d/%d/%d to %q", tile.Z, tile.X, tile.Y, *outFilePath)
			return nil
		}

		return withStack(run())
	})
}

func renderTile(ctx context.Context, fs gofs.Fs, dbConnString string, tile ownmap.TileCoordinate, params ownmap.RenderParameters, settings *ownmap.Settings) (*bytes.Reader, errorsx.Error) {
	colormapSet, err := styling.NewBuiltinColormapSet()
	if err != nil {
		return nil, err
	}

	renderer := ownmaprenderer.NewHillshadeRenderer(colormapSet)

	conn, err := dbconnloader.LoadDBConn(ctx, logger, fs, dbConnString)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	metadata, err := conn.GetMetadata(ctx)
	if err != nil {
		return nil, err
	}

	grid, err := conn.GetTileData(ctx, tile, params.TileSize)
	if err != nil {
		if errorsx.Cause(err) != ownmapdal.ErrNoDataAvailable {
			return nil, err
		}

		logger.Warn("no data for tile %d/%d/%d in %q, rendering empty tile", tile.Z, tile.X, tile.Y, conn.Name())
		return renderer.RenderEmptyTile(params.TileSize, params.Format, settings.PNGCompressLevel)
	}

	return renderer.RenderHillshade(grid, &tile, params, metadata.Range, settings.PNGCompressLevel)
}

var importTargetHelp = fmt.Sprintf("dataset to create. It should be the type, followed by the separator (%s), followed by the path or URL. For example: %s%smy/db/file.db",
	ownmapdal.ConnectionPathSeparator,
	string(ownmapdal.DBFileTypeBolt),
	ownmapdal.ConnectionPathSeparator,
)

func setupImport() {
	cmd := kingpin.Command("import", "copy a dataset into a new dataset, of any type")
	sourceConnString := cmd.Arg("source", "dataset to import from, for example terrarium://my/tiles/dir").Required().String()
	targetConnString := cmd.Arg("target", importTargetHelp).Required().String()
	name := cmd.Flag("name", "name of the new dataset (defaults to the source's name)").String()
	batchSize := cmd.Flag("batch-size", "amount of tiles written to the new dataset at once").Default("256").Int()
	concurrency := cmd.Flag("concurrency", "amount of tiles read from the source at once").Default("4").Int()
	shouldProfile := cmd.Flag("profile", "profile the import performance").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		run := func() errorsx.Error {
			if *shouldProfile {
				defer profile.Start(profile.CPUProfile).Stop()
			}

			fs := gofs.NewOsFs()

			targetConfig, err := ownmapdal.ParseDBConnFilePath(*targetConnString)
			if err != nil {
				return errorsx.Wrap(err, "target", *targetConnString)
			}

			startTime := time.Now()

			opts := ownmapdal.DefaultImportOptions()
			opts.Name = *name
			opts.BatchSize = *batchSize
			opts.Concurrency = *concurrency
			opts.OnProgress = newProgressLogger(time.Second * 5)

			conn, err := dbconnloader.ImportDataset(context.Background(), logger, fs, *sourceConnString, targetConfig.Type, targetConfig.ConnectionPath, opts)
			if err != nil {
				return err
			}
			defer conn.Close()

			logger.Info("imported %q in %s", conn.Name(), time.Since(startTime))
			return nil
		}

		return withStack(run())
	})
}

// newProgressLogger logs import progress at most once per interval, and always when the import is finished.
func newProgressLogger(interval time.Duration) func(tilesDone, tilesTotal int) {
	var lastLogged time.Time
	return func(tilesDone, tilesTotal int) {
		if tilesDone != tilesTotal && time.Since(lastLogged) < interval {
			return
		}
		lastLogged = time.Now()

		if tilesTotal == 0 {
			logger.Info("no tiles to import")
			return
		}

		logger.Info("imported tiles so far: %d/%d (%0.02f%%)", tilesDone, tilesTotal, float64(tilesDone)*100/float64(tilesTotal))
	}
}

func isLocalhost(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func createLocalhostMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if !isLocalhost(r.RemoteAddr) {
				http.Error(w, "connections only allowed from the same computer the server is running on", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}

const (
	adminPath = "admin"
)

func createServer(fs gofs.Fs, dbConnSet *ownmapdal.DBConnSet, settings *ownmap.Settings, pathsConfig *ownmapdal.PathsConfig, shouldProfile bool) (chi.Router, errorsx.Error) {
	colormapSet, err := styling.NewBuiltinColormapSet()
	if err != nil {
		return nil, err
	}

	renderer := ownmaprenderer.NewHillshadeRenderer(colormapSet)
	sema := semaphore.NewSemaphore(settings.MaxConcurrentRenders)
	importQueue := ownmapdal.NewImportQueue(logger, fs, pathsConfig)

	traceFilePath := filepath.Join(pathsConfig.TracesDir, fmt.Sprintf("trace_%s.pbf", time.Now().Format("2006-01-02__03_04_05")))
	logger.Info("tracing at %q", traceFilePath)

	traceFile, createErr := fs.Create(traceFilePath)
	if createErr != nil {
		return nil, errorsx.Wrap(createErr)
	}

	tracer := tracing.NewTracer(traceFile)

	router := chi.NewRouter()
	router.Use(middleware.DefaultLogger)
	router.Use(tracing.Middleware(tracer))
	router.Route("/api/", func(r chi.Router) {
		r.Mount("/info", webservices.NewInfoService(logger, dbConnSet, colormapSet, settings))
		r.Mount("/colormap", webservices.NewColormapService(logger, colormapSet))
		r.Mount("/hillshade/", webservices.NewHillshadeService(logger, dbConnSet, renderer, settings, sema, shouldProfile))
		r.Mount("/discrete/", webservices.NewDiscreteService(logger, dbConnSet, renderer, settings, sema))
		r.Mount("/contour/", webservices.NewContourService(logger, dbConnSet, renderer, settings, sema))
	})
	router.Route(fmt.Sprintf("/%s/", adminPath), func(r chi.Router) {
		r.Use(createLocalhostMiddleware())
		r.Mount("/", webservices.NewAdminService(logger, fs, pathsConfig, dbConnSet, importQueue, adminPath))
	})

	return router, nil
}
