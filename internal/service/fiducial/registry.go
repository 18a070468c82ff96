package fiducial

import "fmt"

// NewDetector creates a detector based on the specified variant.
func NewDetector(variant string, cfg Config) (Detector, error) {
	switch variant {
	case "triangle", "":
		return NewTriangleDetector(cfg, SumScorer{})
	case "triangle-legacy":
		cfg.ExclusiveAxes = true
		return NewTriangleDetector(cfg, LastMatchScorer{})
	default:
		return nil, fmt.Errorf("%w: unknown detector variant %q", ErrInvalidConfig, variant)
	}
}
