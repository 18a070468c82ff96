package dto

import (
	"image"

	"omrscan/internal/layout"

	"gocv.io/x/gocv"
)

// ExtractedRegion is an owned copy of one region of the normalized page.
// Bounds is where the copy was taken from, in normalized page pixels.
type ExtractedRegion struct {
	Index  int
	Spec   layout.RegionSpec
	Bounds image.Rectangle
	Mat    gocv.Mat
}

// Close releases the region's pixels.
func (r *ExtractedRegion) Close() error {
	return r.Mat.Close()
}

// CloseRegions releases every region in the slice.
func CloseRegions(regions []ExtractedRegion) {
	for i := range regions {
		regions[i].Close()
	}
}
