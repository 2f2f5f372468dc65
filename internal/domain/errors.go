package domain

import "errors"

// Sentinel errors shared by the extraction and tile engines. Callers wrap them
// with context using fmt.Errorf("...: %w", err) and test them with errors.Is.
var (
	// ErrDatasetOpen means the backing NetCDF resource could not be read.
	ErrDatasetOpen = errors.New("dataset open failed")

	// ErrUnknownDataset means the dataset id is not present in the registry.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrTimeResolution means a time input was unparsable or outside the axis.
	ErrTimeResolution = errors.New("time resolution failed")

	// ErrDepthResolution means a depth input could not be parsed.
	ErrDepthResolution = errors.New("depth resolution failed")

	// ErrEmptySeries means the geometry/time/depth combination produced no data.
	ErrEmptySeries = errors.New("no data for requested geometry")

	// ErrInvalidRequest is returned for malformed query input.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidTileKey means zoom/x/y is outside the tile pyramid.
	ErrInvalidTileKey = errors.New("invalid tile key")

	// ErrTileNotFound means the archive has no row for a tile key.
	ErrTileNotFound = errors.New("tile not found in archive")

	// ErrArchiveCorrupt means the tile archive itself could not be queried.
	ErrArchiveCorrupt = errors.New("tile archive unreadable")

	// ErrUnknownVariable means the dataset has no variable of the requested name.
	ErrUnknownVariable = errors.New("unknown variable")

	// ErrUnknownLayer means the tile layer is not configured.
	ErrUnknownLayer = errors.New("unknown tile layer")
)
