package partition

import (
	"fmt"
	"image"

	"omrscan/internal/dto"
	"omrscan/internal/geometry"
	"omrscan/internal/layout"

	"gocv.io/x/gocv"
)

// Extract copies the part of page described by r. The rectangle is resolved against
// the page's own size, so it works on any normalized page regardless of scan DPI.
func Extract(page gocv.Mat, r geometry.PercentRect) (gocv.Mat, error) {
	mat, _, err := crop(page, r)
	return mat, err
}

func crop(page gocv.Mat, r geometry.PercentRect) (gocv.Mat, image.Rectangle, error) {
	if page.Empty() {
		return gocv.NewMat(), image.Rectangle{}, geometry.ErrEmptyRaster
	}
	rect, err := r.Pixels(page.Cols(), page.Rows())
	if err != nil {
		return gocv.NewMat(), image.Rectangle{}, err
	}

	view := page.Region(rect)
	defer view.Close()
	return view.Clone(), rect, nil
}

// Partition extracts every region of l from page, in layout order. Grid cells are
// cut straight from the page using their composed page-relative rectangle.
// On error nothing is returned and all partial crops are released.
func Partition(page gocv.Mat, l *layout.Layout) ([]dto.ExtractedRegion, error) {
	return extract(page, l, nil)
}

func extract(page gocv.Mat, l *layout.Layout, kinds map[layout.Kind]bool) ([]dto.ExtractedRegion, error) {
	regions := make([]dto.ExtractedRegion, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		spec := l.Spec(i)
		if kinds != nil && !kinds[spec.Kind] {
			continue
		}
		mat, bounds, err := crop(page, l.Absolute(i))
		if err != nil {
			dto.CloseRegions(regions)
			return nil, fmt.Errorf("region %q: %w", spec.Name, err)
		}
		regions = append(regions, dto.ExtractedRegion{Index: i, Spec: spec, Bounds: bounds, Mat: mat})
	}
	return regions, nil
}

// Partitioner extracts a fixed layout, optionally keeping only some kinds of region.
type Partitioner struct {
	layout *layout.Layout
	kinds  map[layout.Kind]bool
}

// NewPartitioner returns a partitioner for l. With no kinds every region is extracted.
func NewPartitioner(l *layout.Layout, kinds ...layout.Kind) *Partitioner {
	p := &Partitioner{layout: l}
	if len(kinds) > 0 {
		p.kinds = make(map[layout.Kind]bool, len(kinds))
		for _, k := range kinds {
			p.kinds[k] = true
		}
	}
	return p
}

// Layout returns the region tree the partitioner cuts.
func (p *Partitioner) Layout() *layout.Layout {
	return p.layout
}

// Partition extracts the partitioner's layout from page, dropping unwanted kinds.
func (p *Partitioner) Partition(page gocv.Mat) ([]dto.ExtractedRegion, error) {
	return extract(page, p.layout, p.kinds)
}
