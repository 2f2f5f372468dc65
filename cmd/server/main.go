// Package main provides the ocean navigator data and tile server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"go.ngs.io/ocean-navigator/internal/adapter/dataset"
	"go.ngs.io/ocean-navigator/internal/adapter/store/bathymetry"
	"go.ngs.io/ocean-navigator/internal/adapter/tiles"
	"go.ngs.io/ocean-navigator/internal/config"
	httpHandler "go.ngs.io/ocean-navigator/internal/http"
	"go.ngs.io/ocean-navigator/internal/logger"
	"go.ngs.io/ocean-navigator/internal/metrics"
	"go.ngs.io/ocean-navigator/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("ocean-navigator version %s\n", version)
		return
	}

	cfg := config.FromEnv()
	log := logger.Build(logger.Config{Level: cfg.LogLevel, Console: cfg.LogConsole, Component: "server"}, os.Stdout)

	if err := run(cfg, &log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, log *zerolog.Logger) error {
	log.Info().
		Str("port", cfg.Port).
		Str("dataset_config", cfg.DatasetConfig).
		Str("tile_cache", cfg.TileCacheDir).
		Msg("starting ocean navigator server")

	provider := metrics.Init(version)
	m := metrics.New(provider.Registerer())

	registry, err := dataset.LoadRegistry(cfg.DatasetConfig)
	if err != nil {
		return err
	}
	log.Info().Int("datasets", len(registry.List())).Msg("dataset registry loaded")

	// Initialize bathymetry store (optional).
	var bathyStore bathymetry.Store
	if cfg.GEBCOPath != "" {
		bathyStore = bathymetry.NewLocalStore(cfg.GEBCOPath)
		defer func() { _ = bathyStore.Close() }()
		log.Info().Str("gebco_path", cfg.GEBCOPath).Msg("bathymetry store initialized")
	} else {
		log.Info().Msg("bathymetry store disabled (no data path configured)")
	}

	layers := tiles.DefaultLayers(tiles.Defaults{
		ArchiveDir:    cfg.TileArchiveDir,
		BlankDir:      cfg.TileBlankDir,
		VectorMinZoom: cfg.TileVectorMinZoom,
		RasterMaxZoom: cfg.TileRasterMaxZoom,
	})
	tileLog := log.With().Str("subsystem", "tiles").Logger()
	tileManager, err := tiles.NewManager(cfg.TileCacheDir, layers, nil,
		tiles.WithMetrics(m),
		tiles.WithLogger(tileLog),
		tiles.WithFetchTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return err
	}
	defer func() { _ = tileManager.Close() }()

	// Initialize use cases.
	sampler := usecase.NewSampler(cfg.PathPoints, bathyStore, m, log)
	areaUC, err := usecase.NewAreaUseCase(registry, dataset.NetCDFOpener, cfg.AreaCacheSize, m)
	if err != nil {
		return err
	}
	handler := httpHandler.NewHandler(httpHandler.Services{
		Catalog: usecase.NewCatalogUseCase(registry, dataset.NetCDFOpener),
		Sample:  usecase.NewSampleUseCase(registry, dataset.NetCDFOpener, sampler),
		Area:    areaUC,
		Tiles:   tileManager,
	}, log)

	// Setup router.
	router := httpHandler.SetupRouter(handler, httpHandler.RouterConfig{
		AllowedOrigins: cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        provider.Handler(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Strs("layers", tileManager.Layers()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Ocean Navigator Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  ocean-navigator [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  LOG_LEVEL               debug, info, warn or error (default: info)")
	fmt.Println("  LOG_CONSOLE             Human readable log output (default: false)")
	fmt.Println("  DATASET_CONFIG          JSON dataset registry (default: ./data/datasets.json)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  REQUEST_TIMEOUT         Per-request deadline (default: 60s)")
	fmt.Println("  PATH_POINTS             Samples along a path (default: 100)")
	fmt.Println("  AREA_CACHE_SIZE         Cached area rasters (default: 128)")
	fmt.Println("  BATHYMETRY_GEBCO_PATH   Path to GEBCO NetCDF file (optional, can be GCS FUSE mount)")
	fmt.Println("  TILE_CACHE_DIR          Tile cache directory (default: ./data/tilecache)")
	fmt.Println("  TILE_ARCHIVE_DIR        Directory of MBTiles archives (default: ./data/tiles)")
	fmt.Println("  TILE_BLANK_DIR          Directory of blank tile overrides (optional)")
	fmt.Println("  TILE_VECTOR_MIN_ZOOM    First zoom with vector data (default: 7)")
	fmt.Println("  TILE_RASTER_MAX_ZOOM    Last zoom with raster data (default: 7)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET  /health                                Health check")
	fmt.Println("  GET  /metrics                               Prometheus metrics")
	fmt.Println("  GET  /v1/datasets                           List datasets")
	fmt.Println("  GET  /v1/datasets/:dataset/timestamps       Time axis")
	fmt.Println("  GET  /v1/datasets/:dataset/depths           Depth axis")
	fmt.Println("  POST /v1/sample                             Point, path or polygon query")
	fmt.Println("  POST /v1/area                               Interpolated raster")
	fmt.Println("  GET  /v1/tiles/:layer/:z/:x/:y              Basemap tiles")
	fmt.Println()
}
