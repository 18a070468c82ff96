package geometry

import "errors"

var (
	// ErrDegenerateBoundingBox is returned when a box does not satisfy tl.x < br.x and tl.y < br.y.
	ErrDegenerateBoundingBox = errors.New("degenerate bounding box")
	// ErrOutOfBoundsCrop is returned when a crop rectangle falls outside its raster or resolves to nothing.
	ErrOutOfBoundsCrop = errors.New("crop out of bounds")
	// ErrInvalidRegionSpec is returned for percentages outside [0,1] or with start >= end.
	ErrInvalidRegionSpec = errors.New("invalid region spec")
	// ErrEmptyRaster is returned when an operation receives a raster with no pixels.
	ErrEmptyRaster = errors.New("empty raster")
)
