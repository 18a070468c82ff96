package raster

import (
	"fmt"
	"image"
	"image/color"

	"omrscan/internal/geometry"

	"gocv.io/x/gocv"
)

// Decode turns an encoded scan (JPEG, PNG, TIFF, BMP...) into a BGR Mat.
func Decode(data []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to decode image: %w: %w", geometry.ErrEmptyRaster, err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("decoded image is empty: %w", geometry.ErrEmptyRaster)
	}
	return mat, nil
}

// FromImage converts a decoded image.Image into a BGR Mat.
func FromImage(img image.Image) (gocv.Mat, error) {
	if img == nil || img.Bounds().Empty() {
		return gocv.NewMat(), geometry.ErrEmptyRaster
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to convert image: %w", err)
	}
	return mat, nil
}

// EncodePNG encodes a Mat losslessly so extracted bubbles keep their exact pixels.
func EncodePNG(mat gocv.Mat) ([]byte, error) {
	if mat.Empty() {
		return nil, geometry.ErrEmptyRaster
	}
	buf, err := gocv.IMEncode(".png", mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// TriangleSize is the half-width of a printed fiducial on a 300 DPI calibration sheet.
const TriangleSize = 30

// Triangle returns the vertices of an upward fiducial whose centroid is c.
func Triangle(c geometry.Point, size int) []image.Point {
	return []image.Point{
		{X: c.X - size, Y: c.Y + 2*size/3},
		{X: c.X + size, Y: c.Y + 2*size/3},
		{X: c.X, Y: c.Y - 4*size/3},
	}
}

// CalibrationSheet draws a white width x height page with a solid fiducial centred on
// each of the given points. Used to check detector thresholds against a known layout.
func CalibrationSheet(width, height int, fiducials ...geometry.Point) gocv.Mat {
	sheet := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), height, width, gocv.MatTypeCV8UC3)
	if len(fiducials) == 0 {
		return sheet
	}

	shapes := make([][]image.Point, 0, len(fiducials))
	for _, f := range fiducials {
		shapes = append(shapes, Triangle(f, TriangleSize))
	}
	pv := gocv.NewPointsVectorFromPoints(shapes)
	defer pv.Close()

	gocv.FillPoly(&sheet, pv, color.RGBA{0, 0, 0, 0})
	return sheet
}
