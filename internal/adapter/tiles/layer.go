// Package tiles serves map tiles from a disk cache fed by MBTiles archives.
package tiles

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
)

// Layer names as they appear in tile URLs.
const (
	LayerLand       = "land"
	LayerBathShapes = "bath_shapes"
	LayerBath       = "bath"
	LayerTopo       = "topo"
)

const (
	contentTypeVector = "application/x-protobuf"
	contentTypePNG    = "image/png"
	tileSize          = 256
	maxZoom           = 30
)

// LayerConfig configures one tile layer. Zooms outside [MinZoom, MaxZoom]
// are served the blank payload without touching the archive.
type LayerConfig struct {
	Name        string
	Archive     string // MBTiles file.
	MinZoom     int
	MaxZoom     int
	BlankPath   string // Optional file holding the blank payload.
	ContentType string
	Blank       []byte // Used when BlankPath is empty.

	// CompressedExt names the cached gzip sibling {y}{ext}. Empty means ".gz".
	CompressedExt string
}

// Defaults holds the knobs of DefaultLayers.
type Defaults struct {
	ArchiveDir    string
	BlankDir      string
	VectorMinZoom int
	RasterMaxZoom int
}

// DefaultLayers returns the four basemap layers. Vector layers have no data
// below VectorMinZoom; raster layers stop at RasterMaxZoom.
func DefaultLayers(d Defaults) []LayerConfig {
	blank := func(name string) string {
		if d.BlankDir == "" {
			return ""
		}
		return filepath.Join(d.BlankDir, name)
	}
	return []LayerConfig{
		{
			Name:        LayerLand,
			Archive:     filepath.Join(d.ArchiveDir, "landVectors.mbtiles"),
			MinZoom:     d.VectorMinZoom,
			MaxZoom:     maxZoom,
			BlankPath:   blank("blank.mbt"),
			ContentType: contentTypeVector,
			Blank:       []byte{},

			CompressedExt: ".pbf",
		},
		{
			Name:        LayerBathShapes,
			Archive:     filepath.Join(d.ArchiveDir, "bathymetryVectors.mbtiles"),
			MinZoom:     d.VectorMinZoom,
			MaxZoom:     maxZoom,
			BlankPath:   blank("blank.mbt"),
			ContentType: contentTypeVector,
			Blank:       []byte{},

			CompressedExt: ".pbf",
		},
		{
			Name:        LayerBath,
			Archive:     filepath.Join(d.ArchiveDir, "bathymetryRaster.mbtiles"),
			MinZoom:     0,
			MaxZoom:     d.RasterMaxZoom,
			BlankPath:   blank("blank.png"),
			ContentType: contentTypePNG,
			Blank:       solidPNG(color.Transparent),
		},
		{
			Name:        LayerTopo,
			Archive:     filepath.Join(d.ArchiveDir, "topography.mbtiles"),
			MinZoom:     0,
			MaxZoom:     d.RasterMaxZoom,
			BlankPath:   blank("black.png"),
			ContentType: contentTypePNG,
			Blank:       solidPNG(color.Black),
		},
	}
}

// blankPayload returns the configured blank bytes. A configured BlankPath
// that does not exist falls back to the built-in payload.
func (c LayerConfig) blankPayload() ([]byte, error) {
	if c.BlankPath != "" {
		data, err := os.ReadFile(c.BlankPath)
		switch {
		case err == nil:
			return data, nil
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read blank tile for %s: %w", c.Name, err)
		}
	}
	if c.Blank == nil {
		return []byte{}, nil
	}
	return c.Blank, nil
}

func (c LayerConfig) compressedExt() string {
	if c.CompressedExt == "" {
		return ".gz"
	}
	return c.CompressedExt
}

func solidPNG(c color.Color) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, tileSize, tileSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
