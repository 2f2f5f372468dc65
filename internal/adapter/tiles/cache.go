package tiles

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"go.ngs.io/ocean-navigator/internal/domain"
	"go.ngs.io/ocean-navigator/internal/metrics"
)

// Tile is a served payload and where it came from.
type Tile struct {
	Data        []byte
	ContentType string
	Source      string // metrics.SourceHit, SourceArchive or SourceBlank.
}

type layer struct {
	cfg     LayerConfig
	archive Archive
	blank   []byte
}

// Manager resolves tile keys: disk cache, then archive, then blank. Cached
// files live at {root}/{layer}/{z}/{x}/{y} and are never evicted.
type Manager struct {
	root    string
	layers  map[string]*layer
	group   singleflight.Group
	metrics *metrics.Metrics
	log     zerolog.Logger

	fetchTimeout time.Duration
}

// DefaultFetchTimeout bounds one archive lookup and cache write.
const DefaultFetchTimeout = 30 * time.Second

// Option configures a Manager.
type Option func(*Manager)

// WithMetrics records tile requests and archive latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithLogger sets the logger for archive failures.
func WithLogger(l zerolog.Logger) Option {
	return func(mgr *Manager) { mgr.log = l }
}

// WithFetchTimeout bounds the shared archive fetch of a cache miss.
func WithFetchTimeout(d time.Duration) Option {
	return func(mgr *Manager) {
		if d > 0 {
			mgr.fetchTimeout = d
		}
	}
}

// NewManager builds a manager over layers. Each layer gets an MBTiles
// archive unless archives supplies one under the layer name.
func NewManager(root string, layers []LayerConfig, archives map[string]Archive, opts ...Option) (*Manager, error) {
	if root == "" {
		return nil, errors.New("tile cache root is required")
	}
	m := &Manager{
		root:   root,
		layers: make(map[string]*layer, len(layers)),
		log:    zerolog.Nop(),

		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, cfg := range layers {
		blank, err := cfg.blankPayload()
		if err != nil {
			return nil, err
		}
		a, ok := archives[cfg.Name]
		if !ok {
			a = NewMBTiles(cfg.Archive)
		}
		m.layers[cfg.Name] = &layer{cfg: cfg, archive: a, blank: blank}
	}
	return m, nil
}

// Layers returns the configured layer names.
func (m *Manager) Layers() []string {
	out := make([]string, 0, len(m.layers))
	for name := range m.layers {
		out = append(out, name)
	}
	return out
}

type fetched struct {
	data   []byte
	source string
}

// GetTile returns the payload for (layer, zoom, x, y). A key missing from the
// archive is served blank; an unreadable archive is an error.
func (m *Manager) GetTile(ctx context.Context, layerName string, zoom, x, y int) (Tile, error) {
	l, ok := m.layers[layerName]
	if !ok {
		return Tile{}, fmt.Errorf("%w: %q", domain.ErrUnknownLayer, layerName)
	}
	key := domain.TileKey{Zoom: zoom, X: x, Y: y}
	if err := key.Validate(); err != nil {
		return Tile{}, err
	}
	if zoom < l.cfg.MinZoom || zoom > l.cfg.MaxZoom {
		return m.serve(l, l.blank, metrics.SourceBlank), nil
	}

	path := m.cachePath(layerName, key)
	if data, err := os.ReadFile(path); err == nil { //nolint:gosec // G304: path is built from validated integers.
		return m.serve(l, data, metrics.SourceHit), nil
	}

	ch := m.group.DoChan(path, func() (any, error) {
		if data, err := os.ReadFile(path); err == nil { //nolint:gosec // G304: see above.
			return fetched{data, metrics.SourceHit}, nil
		}
		// The fetch is shared by every waiter on path, so it outlives the
		// caller that started it.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.fetchTimeout)
		defer cancel()
		return m.fetch(fctx, l, key, path)
	})
	select {
	case <-ctx.Done():
		return Tile{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Tile{}, res.Err
		}
		f := res.Val.(fetched) //nolint:errcheck // the shared fetch only returns fetched values.
		return m.serve(l, f.data, f.source), nil
	}
}

func (m *Manager) serve(l *layer, data []byte, source string) Tile {
	m.metrics.ObserveTile(l.cfg.Name, source)
	return Tile{Data: data, ContentType: l.cfg.ContentType, Source: source}
}

// fetch runs the miss path: archive lookup, decompress, persist.
func (m *Manager) fetch(ctx context.Context, l *layer, key domain.TileKey, path string) (fetched, error) {
	start := time.Now()
	raw, err := l.archive.Lookup(ctx, key)
	m.metrics.ObserveArchiveLookup(time.Since(start).Seconds())
	switch {
	case errors.Is(err, domain.ErrTileNotFound):
		return fetched{l.blank, metrics.SourceBlank}, nil
	case err != nil:
		m.log.Error().Err(err).Str("layer", l.cfg.Name).Str("tile", key.String()).Msg("tile archive lookup failed")
		return fetched{}, err
	}

	data, err := Decompress(raw)
	if err != nil {
		return fetched{}, fmt.Errorf("%w: %s %s: %w", domain.ErrArchiveCorrupt, l.cfg.Name, key, err)
	}
	if err := ctx.Err(); err != nil {
		return fetched{}, err
	}
	if err := m.persist(path, l.cfg.compressedExt(), raw, data); err != nil {
		// The tile is still served; the next request retries the write.
		m.log.Warn().Err(err).Str("path", path).Msg("failed to persist tile")
	}
	return fetched{data, metrics.SourceArchive}, nil
}

// persist writes the compressed sibling path+ext (when the archive held gzip)
// and then the decompressed tile, each atomically.
func (m *Manager) persist(path, ext string, raw, data []byte) error {
	//nolint:gosec // G301: cache directories are shared with the web tier.
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if IsGzip(raw) {
		if err := writeAtomic(path+ext, raw); err != nil {
			return err
		}
	}
	return writeAtomic(path, data)
}

func (m *Manager) cachePath(layerName string, key domain.TileKey) string {
	return filepath.Join(m.root, layerName, strconv.Itoa(key.Zoom), strconv.Itoa(key.X), strconv.Itoa(key.Y))
}

// writeAtomic writes data to a temp file in the target directory and renames
// it into place. The temp file is removed on any failure.
func writeAtomic(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	//nolint:gosec // G302: tiles are public.
	if err = os.Chmod(tmp, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Close releases every archive.
func (m *Manager) Close() error {
	var errs []error
	for _, l := range m.layers {
		if err := l.archive.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
