package geometry

import "image"

// Moments holds the spatial moments of a closed polygon up to first order.
type Moments struct {
	M00 float64
	M10 float64
	M01 float64
}

// ContourMoments computes polygon moments over the contour's vertices with Green's theorem,
// matching what OpenCV reports for a point contour.
func ContourMoments(points []image.Point) Moments {
	n := len(points)
	if n < 3 {
		return Moments{}
	}

	var a00, a10, a01 float64
	prev := points[n-1]
	for _, p := range points {
		xp, yp := float64(prev.X), float64(prev.Y)
		x, y := float64(p.X), float64(p.Y)

		cross := xp*y - x*yp
		a00 += cross
		a10 += cross * (xp + x)
		a01 += cross * (yp + y)
		prev = p
	}

	m := Moments{M00: a00 / 2, M10: a10 / 6, M01: a01 / 6}
	if m.M00 < 0 {
		m.M00, m.M10, m.M01 = -m.M00, -m.M10, -m.M01
	}
	return m
}

// Centroid returns the truncated centroid. ok is false for zero-area contours.
func (m Moments) Centroid() (Point, bool) {
	if m.M00 == 0 {
		return Point{}, false
	}
	return Point{X: int(m.M10 / m.M00), Y: int(m.M01 / m.M00)}, true
}
