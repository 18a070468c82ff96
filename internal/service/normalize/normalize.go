package normalize

import (
	"errors"
	"fmt"
	"image"

	"omrscan/internal/geometry"

	"gocv.io/x/gocv"
)

// DefaultScale brings a ~300 DPI scan down to the canonical ~100 DPI frame.
const DefaultScale = 1.0 / 3.0

// ErrInvalidScale is returned for scale factors outside (0, 1].
var ErrInvalidScale = errors.New("invalid scale factor")

// Normalize crops page to box and resizes the crop by scale with linear interpolation.
// The returned Mat owns its pixels; closing page does not affect it.
func Normalize(page gocv.Mat, box geometry.BoundingBox, scale float64) (gocv.Mat, error) {
	if scale <= 0 || scale > 1 {
		return gocv.NewMat(), fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}
	if page.Empty() {
		return gocv.NewMat(), geometry.ErrEmptyRaster
	}
	if err := box.Validate(); err != nil {
		return gocv.NewMat(), err
	}

	rect := box.Rect()
	bounds := image.Rect(0, 0, page.Cols(), page.Rows())
	if !rect.In(bounds) {
		return gocv.NewMat(), fmt.Errorf("%w: box %v outside page %dx%d", geometry.ErrOutOfBoundsCrop, rect, page.Cols(), page.Rows())
	}

	crop := page.Region(rect)
	defer crop.Close()

	// Truncated; OpenCV's own fx/fy sizing rounds, so this can be one pixel smaller.
	width := int(float64(rect.Dx()) * scale)
	height := int(float64(rect.Dy()) * scale)
	if width < 1 || height < 1 {
		return gocv.NewMat(), fmt.Errorf("%w: %v scaled by %v has no pixels", geometry.ErrOutOfBoundsCrop, rect, scale)
	}

	if scale == 1 {
		return crop.Clone(), nil
	}

	out := gocv.NewMat()
	gocv.Resize(crop, &out, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	return out, nil
}
