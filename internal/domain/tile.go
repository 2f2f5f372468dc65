package domain

import "fmt"

// TileKey addresses a tile in the XYZ tile pyramid (y grows southwards).
type TileKey struct {
	Zoom int
	X    int
	Y    int
}

// Validate checks zoom >= 0 and 0 <= x, y < 2^zoom.
func (k TileKey) Validate() error {
	if k.Zoom < 0 || k.Zoom > 30 {
		return fmt.Errorf("%w: zoom %d", ErrInvalidTileKey, k.Zoom)
	}
	n := 1 << k.Zoom
	if k.X < 0 || k.X >= n || k.Y < 0 || k.Y >= n {
		return fmt.Errorf("%w: %d/%d outside %dx%d at zoom %d", ErrInvalidTileKey, k.X, k.Y, n, n, k.Zoom)
	}
	return nil
}

// ArchiveRow returns the MBTiles tile_row for this key. MBTiles rows use the
// TMS scheme, which counts from the south edge, so the pyramid y is flipped:
// row = 2^zoom - 1 - y. This transform must be kept exactly.
func (k TileKey) ArchiveRow() int {
	return (1 << k.Zoom) - 1 - k.Y
}

func (k TileKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Zoom, k.X, k.Y)
}
