// Package config reads server settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything cmd/server needs to wire the engine.
type Config struct {
	Port           string
	LogLevel       string
	LogConsole     bool
	DatasetConfig  string // JSON dataset registry.
	CORSOrigins    []string
	RequestTimeout time.Duration

	PathPoints    int
	AreaCacheSize int
	GEBCOPath     string

	TileCacheDir      string
	TileArchiveDir    string
	TileBlankDir      string
	TileVectorMinZoom int
	TileRasterMaxZoom int
}

// FromEnv loads the configuration, falling back to defaults for unset or
// unparsable values.
func FromEnv() Config {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogConsole:     getbool("LOG_CONSOLE", false),
		DatasetConfig:  getEnv("DATASET_CONFIG", "./data/datasets.json"),
		CORSOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		RequestTimeout: getduration("REQUEST_TIMEOUT", 60*time.Second),

		PathPoints:    getint("PATH_POINTS", 100),
		AreaCacheSize: getint("AREA_CACHE_SIZE", 128),
		GEBCOPath:     getEnv("BATHYMETRY_GEBCO_PATH", ""),

		TileCacheDir:      getEnv("TILE_CACHE_DIR", "./data/tilecache"),
		TileArchiveDir:    getEnv("TILE_ARCHIVE_DIR", "./data/tiles"),
		TileBlankDir:      getEnv("TILE_BLANK_DIR", ""),
		TileVectorMinZoom: getint("TILE_VECTOR_MIN_ZOOM", 7),
		TileRasterMaxZoom: getint("TILE_RASTER_MAX_ZOOM", 7),
	}
	if cfg.PathPoints < 2 {
		cfg.PathPoints = 2
	}
	if cfg.AreaCacheSize < 1 {
		cfg.AreaCacheSize = 1
	}
	return cfg
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
