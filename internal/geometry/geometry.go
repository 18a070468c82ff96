package geometry

import (
	"fmt"
	"image"
	"math"
)

// Point is an integer pixel coordinate. x grows rightward, y grows downward.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Image converts the point to an image.Point.
func (p Point) Image() image.Point {
	return image.Pt(p.X, p.Y)
}

// BoundingBox is the axis-aligned page box spanned by the two fiducials.
type BoundingBox struct {
	TopLeft     Point `json:"top_left"`
	BottomRight Point `json:"bottom_right"`
}

// Validate reports ErrDegenerateBoundingBox unless the box has positive width and height.
func (b BoundingBox) Validate() error {
	if b.TopLeft.X >= b.BottomRight.X || b.TopLeft.Y >= b.BottomRight.Y {
		return fmt.Errorf("%w: top-left %s, bottom-right %s", ErrDegenerateBoundingBox, b.TopLeft, b.BottomRight)
	}
	return nil
}

func (b BoundingBox) Width() int  { return b.BottomRight.X - b.TopLeft.X }
func (b BoundingBox) Height() int { return b.BottomRight.Y - b.TopLeft.Y }

// Rect returns the half-open pixel rectangle [tl.x, br.x) x [tl.y, br.y).
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.TopLeft.X, b.TopLeft.Y, b.BottomRight.X, b.BottomRight.Y)
}

// PercentRect describes a rectangle as fractions of its parent raster.
type PercentRect struct {
	XStart float64 `json:"x_start" yaml:"x_start"`
	XEnd   float64 `json:"x_end" yaml:"x_end"`
	YStart float64 `json:"y_start" yaml:"y_start"`
	YEnd   float64 `json:"y_end" yaml:"y_end"`
}

// Full covers the whole parent.
var Full = PercentRect{XStart: 0, XEnd: 1, YStart: 0, YEnd: 1}

// Validate checks that every fraction lies in [0,1] and that each start precedes its end.
func (r PercentRect) Validate() error {
	for _, v := range []float64{r.XStart, r.XEnd, r.YStart, r.YEnd} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: %s has a fraction outside [0,1]", ErrInvalidRegionSpec, r)
		}
	}
	if r.XStart >= r.XEnd || r.YStart >= r.YEnd {
		return fmt.Errorf("%w: %s has start >= end", ErrInvalidRegionSpec, r)
	}
	return nil
}

// Pixels resolves the rectangle against a width x height raster.
// Bounds are floor(dim * fraction) on both ends.
func (r PercentRect) Pixels(width, height int) (image.Rectangle, error) {
	if err := r.Validate(); err != nil {
		return image.Rectangle{}, err
	}
	if width <= 0 || height <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: empty raster %dx%d", ErrOutOfBoundsCrop, width, height)
	}

	rect := image.Rect(
		int(math.Floor(float64(width)*r.XStart)),
		int(math.Floor(float64(height)*r.YStart)),
		int(math.Floor(float64(width)*r.XEnd)),
		int(math.Floor(float64(height)*r.YEnd)),
	)
	if rect.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w: %s resolves to an empty rectangle on %dx%d", ErrOutOfBoundsCrop, r, width, height)
	}
	if !rect.In(image.Rect(0, 0, width, height)) {
		return image.Rectangle{}, fmt.Errorf("%w: %v outside %dx%d", ErrOutOfBoundsCrop, rect, width, height)
	}
	return rect, nil
}

// Within maps r, expressed relative to parent, into the frame parent is expressed in.
func (r PercentRect) Within(parent PercentRect) PercentRect {
	w := parent.XEnd - parent.XStart
	h := parent.YEnd - parent.YStart
	return PercentRect{
		XStart: parent.XStart + r.XStart*w,
		XEnd:   parent.XStart + r.XEnd*w,
		YStart: parent.YStart + r.YStart*h,
		YEnd:   parent.YStart + r.YEnd*h,
	}
}

func (r PercentRect) String() string {
	return fmt.Sprintf("x[%.4f,%.4f] y[%.4f,%.4f]", r.XStart, r.XEnd, r.YStart, r.YEnd)
}
