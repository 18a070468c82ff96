package dto

import "gocv.io/x/gocv"

// SheetResult is the outcome of running one page through the pipeline.
// Err is set instead of Regions when the page could not be processed.
type SheetResult struct {
	Name       string
	PageIndex  int
	Detection  *DetectionResult
	Normalized *gocv.Mat
	Regions    []ExtractedRegion
	Err        error
}

// PageSize returns the normalized page dimensions, or zeros when there is none.
func (r *SheetResult) PageSize() (width, height int) {
	if r.Normalized == nil {
		return 0, 0
	}
	return r.Normalized.Cols(), r.Normalized.Rows()
}

// Close releases the normalized page and all region pixels held by the result.
func (r *SheetResult) Close() {
	if r.Normalized != nil {
		r.Normalized.Close()
		r.Normalized = nil
	}
	CloseRegions(r.Regions)
	r.Regions = nil
}
