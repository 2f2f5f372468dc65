package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"go.ngs.io/ocean-navigator/internal/adapter/tiles"
	"go.ngs.io/ocean-navigator/internal/domain"
	"go.ngs.io/ocean-navigator/internal/logger"
	"go.ngs.io/ocean-navigator/internal/usecase"
)

// Catalog lists datasets and their axes.
type Catalog interface {
	List() []usecase.DatasetSummary
	Axes(ctx context.Context, id string) (*usecase.AxesResponse, error)
}

// Sampler runs geometry queries.
type Sampler interface {
	Execute(ctx context.Context, req usecase.SampleRequest) (*usecase.SampleResponse, error)
}

// Resampler runs area interpolation queries.
type Resampler interface {
	Execute(ctx context.Context, req usecase.AreaRequest) (*usecase.AreaResponse, error)
}

// TileSource serves map tiles.
type TileSource interface {
	GetTile(ctx context.Context, layer string, zoom, x, y int) (tiles.Tile, error)
}

// Services are the use cases exposed over HTTP. A nil entry disables its
// routes.
type Services struct {
	Catalog Catalog
	Sample  Sampler
	Area    Resampler
	Tiles   TileSource
}

// Handler handles HTTP requests for dataset queries and tiles.
type Handler struct {
	svc Services
	log *zerolog.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(svc Services, log *zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// ListDatasets handles GET /v1/datasets.
func (h *Handler) ListDatasets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"datasets": h.svc.Catalog.List()})
}

// GetTimestamps handles GET /v1/datasets/:dataset/timestamps.
func (h *Handler) GetTimestamps(c *gin.Context) {
	axes, err := h.svc.Catalog.Axes(c.Request.Context(), c.Param("dataset"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dataset": axes.Dataset, "timestamps": axes.Timestamps})
}

// GetDepths handles GET /v1/datasets/:dataset/depths.
func (h *Handler) GetDepths(c *gin.Context) {
	axes, err := h.svc.Catalog.Axes(c.Request.Context(), c.Param("dataset"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dataset": axes.Dataset, "depths": axes.Depths})
}

// geometryBody is a GeoJSON-style geometry.
type geometryBody struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// timeBody accepts an index, a date string or {"starttime", "endtime"}.
type timeBody struct {
	Single string
	Start  string
	End    string
}

func (t *timeBody) UnmarshalJSON(data []byte) error {
	var rng struct {
		Start scalar `json:"starttime"`
		End   scalar `json:"endtime"`
	}
	if len(data) > 0 && data[0] == '{' {
		if err := json.Unmarshal(data, &rng); err != nil {
			return err
		}
		t.Start, t.End = string(rng.Start), string(rng.End)
		return nil
	}
	var s scalar
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t.Single = string(s)
	return nil
}

// scalar is a JSON string or number kept as text.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = scalar(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = scalar(n.String())
	return nil
}

// scaleBody is [min, max] or "auto". Auto leaves Range nil.
type scaleBody struct{ Range *[2]float64 }

func (s *scaleBody) UnmarshalJSON(data []byte) error {
	var word string
	if err := json.Unmarshal(data, &word); err == nil {
		if !strings.EqualFold(word, "auto") {
			return fmt.Errorf("scale must be [min, max] or \"auto\"")
		}
		s.Range = nil
		return nil
	}
	return json.Unmarshal(data, &s.Range)
}

// stringList is a JSON string or array of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = stringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("variable must be a string or list of strings")
	}
	*l = many
	return nil
}

type sampleBody struct {
	Dataset  string       `json:"dataset"`
	Variable stringList   `json:"variable"`
	Time     timeBody     `json:"time"`
	Depth    scalar       `json:"depth"`
	Geometry geometryBody `json:"geometry"`
	Scale    scaleBody    `json:"scale"`
}

// PostSample handles POST /v1/sample.
func (h *Handler) PostSample(c *gin.Context) {
	var body sampleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	g, err := domain.ParseGeometry(body.Geometry.Type, body.Geometry.Coordinates)
	if err != nil {
		h.writeError(c, err)
		return
	}

	req := usecase.SampleRequest{
		Dataset:   body.Dataset,
		Variables: body.Variable,
		Time:      body.Time.Single,
		StartTime: body.Time.Start,
		EndTime:   body.Time.End,
		Depth:     string(body.Depth),
		Geometry:  g,
		Scale:     body.Scale.Range,
	}
	resp, err := h.svc.Sample.Execute(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type areaBody struct {
	Dataset  string     `json:"dataset"`
	Variable stringList `json:"variable"`
	Time     scalar     `json:"time"`
	Depth    scalar     `json:"depth"`
	Extent   [4]float64 `json:"extent"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	Scale    scaleBody  `json:"scale"`
	Interp   struct {
		Radius     float64 `json:"radius"` // meters
		Neighbours int     `json:"neighbours"`
		Kernel     string  `json:"kernel"`
	} `json:"interp"`
}

// PostArea handles POST /v1/area.
func (h *Handler) PostArea(c *gin.Context) {
	var body areaBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	req := usecase.AreaRequest{
		Dataset:    body.Dataset,
		Variables:  body.Variable,
		Time:       string(body.Time),
		Depth:      string(body.Depth),
		Extent:     body.Extent,
		Width:      body.Width,
		Height:     body.Height,
		RadiusM:    body.Interp.Radius,
		Neighbours: body.Interp.Neighbours,
		Kernel:     body.Interp.Kernel,
		Scale:      body.Scale.Range,
	}
	resp, err := h.svc.Area.Execute(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetTile handles GET /v1/tiles/:layer/:zoom/:x/:y. The y segment may carry
// a .pbf or .png extension.
func (h *Handler) GetTile(c *gin.Context) {
	zoom, errZ := strconv.Atoi(c.Param("zoom"))
	x, errX := strconv.Atoi(c.Param("x"))
	yStr := c.Param("y")
	if i := strings.IndexByte(yStr, '.'); i >= 0 {
		yStr = yStr[:i]
	}
	y, errY := strconv.Atoi(yStr)
	if err := errors.Join(errZ, errX, errY); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid tile coordinates: %v", err)})
		return
	}

	tile, err := h.svc.Tiles.GetTile(c.Request.Context(), c.Param("layer"), zoom, x, y)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("X-Tile-Source", tile.Source)
	c.Data(http.StatusOK, tile.ContentType, tile.Data)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError maps domain errors onto HTTP statuses.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrEmptySeries):
		status, msg = http.StatusNotFound, "no data"
	case errors.Is(err, domain.ErrUnknownDataset),
		errors.Is(err, domain.ErrUnknownVariable),
		errors.Is(err, domain.ErrUnknownLayer):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrTimeResolution),
		errors.Is(err, domain.ErrDepthResolution),
		errors.Is(err, domain.ErrInvalidTileKey):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrDatasetOpen):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), h.log).Error().Err(err).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	c.JSON(status, gin.H{"error": msg})
}
