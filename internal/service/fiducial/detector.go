package fiducial

import (
	"fmt"
	"image"

	"omrscan/internal/dto"
	"omrscan/internal/geometry"

	"gocv.io/x/gocv"
)

// Detector locates the page box on a raw scan.
type Detector interface {
	Detect(page gocv.Mat) (*dto.DetectionResult, error)
}

// TriangleDetector finds the two printed triangles and derives the page box from them.
type TriangleDetector struct {
	cfg    Config
	scorer Scorer
}

// NewTriangleDetector validates cfg and builds a detector. A nil scorer means SumScorer.
func NewTriangleDetector(cfg Config, scorer Scorer) (*TriangleDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if scorer == nil {
		scorer = SumScorer{}
	}
	return &TriangleDetector{cfg: cfg, scorer: scorer}, nil
}

// Config returns the detector settings.
func (d *TriangleDetector) Config() Config {
	return d.cfg
}

// Detect runs candidate extraction and corner classification on page.
// The page is only read.
func (d *TriangleDetector) Detect(page gocv.Mat) (*dto.DetectionResult, error) {
	markers, err := d.Candidates(page)
	if err != nil {
		return nil, err
	}
	return Classify(markers, d.cfg, d.scorer)
}

// Candidates returns every contour that passes the triangle filters, in contour order.
func (d *TriangleDetector) Candidates(page gocv.Mat) ([]dto.Marker, error) {
	if page.Empty() {
		return nil, geometry.ErrEmptyRaster
	}

	gray := gocv.NewMat()
	defer gray.Close()

	var err error
	switch page.Channels() {
	case 1:
		page.CopyTo(&gray)
	case 4:
		err = gocv.CvtColor(page, &gray, gocv.ColorBGRAToGray)
	default:
		err = gocv.CvtColor(page, &gray, gocv.ColorBGRToGray)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to grayscale: %w", err)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(d.cfg.BlurKernel, d.cfg.BlurKernel), 0, 0, gocv.BorderDefault)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.AdaptiveThreshold(blurred, &thresh, 255, gocv.AdaptiveThresholdGaussian,
		gocv.ThresholdBinaryInv, d.cfg.BlockSize, float32(d.cfg.ThresholdC))

	contours := gocv.FindContours(thresh, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var markers []dto.Marker
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)

		perimeter := gocv.ArcLength(contour, true)
		if perimeter <= d.cfg.MinPerimeter {
			continue
		}

		approx := gocv.ApproxPolyDP(contour, d.cfg.ApproxEpsilon*perimeter, true)
		vertices := approx.Size()
		approx.Close()
		if vertices != 3 {
			continue
		}

		area := gocv.ContourArea(contour)
		if area < d.cfg.MinArea {
			continue
		}

		centroid, ok := geometry.ContourMoments(contour.ToPoints()).Centroid()
		if !ok {
			continue
		}

		markers = append(markers, dto.Marker{
			Index:     len(markers),
			Centroid:  centroid,
			Perimeter: perimeter,
			Area:      area,
		})
	}

	return markers, nil
}
