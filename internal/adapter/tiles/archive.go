package tiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"

	_ "github.com/mattn/go-sqlite3" // Registers the sqlite3 driver.

	"go.ngs.io/ocean-navigator/internal/domain"
)

// Archive looks tiles up in a structured tile store.
type Archive interface {
	// Lookup returns the stored bytes for key. A missing row yields
	// domain.ErrTileNotFound; an unreadable store yields domain.ErrArchiveCorrupt.
	Lookup(ctx context.Context, key domain.TileKey) ([]byte, error)
	Close() error
}

const lookupQuery = `SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?`

// MBTiles is a read-only MBTiles archive. The database is opened on the
// first lookup.
type MBTiles struct {
	path string

	once sync.Once
	db   *sql.DB
	err  error
}

// NewMBTiles returns an archive for the file at path.
func NewMBTiles(path string) *MBTiles {
	return &MBTiles{path: path}
}

func (m *MBTiles) open() (*sql.DB, error) {
	m.once.Do(func() {
		if _, err := os.Stat(m.path); err != nil {
			m.err = fmt.Errorf("%w: %w", domain.ErrArchiveCorrupt, err)
			return
		}
		dsn := "file:" + (&url.URL{Path: m.path}).EscapedPath() + "?mode=ro&immutable=1"
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			m.err = fmt.Errorf("%w: %s: %w", domain.ErrArchiveCorrupt, m.path, err)
			return
		}
		m.db = db
	})
	return m.db, m.err
}

// Lookup implements Archive.
func (m *MBTiles) Lookup(ctx context.Context, key domain.TileKey) ([]byte, error) {
	db, err := m.open()
	if err != nil {
		return nil, err
	}
	var data []byte
	err = db.QueryRowContext(ctx, lookupQuery, key.Zoom, key.X, key.ArchiveRow()).Scan(&data)
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: %s", domain.ErrTileNotFound, key)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrArchiveCorrupt, m.path, err)
	}
}

// Close implements Archive. Lookups after Close fail.
func (m *MBTiles) Close() error {
	m.once.Do(func() { m.err = fmt.Errorf("%w: %s: archive closed", domain.ErrArchiveCorrupt, m.path) })
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}
