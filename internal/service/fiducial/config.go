package fiducial

import (
	"errors"
	"fmt"
)

// Mode selects how the bottom-right corner is assembled from candidates.
type Mode string

const (
	// ModeStrict requires one triangle past both bottom-right thresholds.
	ModeStrict Mode = "strict"
	// ModeLenient takes each bottom-right axis from its own candidate and fills a
	// missing axis with DefaultCoord, flagging the result as low confidence.
	ModeLenient Mode = "lenient"
)

var (
	// ErrNoMarkerFound is returned when the fiducials needed for the page box are missing.
	ErrNoMarkerFound = errors.New("no fiducial marker found")
	// ErrInvalidConfig is returned for detector settings OpenCV cannot run with.
	ErrInvalidConfig = errors.New("invalid detector config")
)

// Config holds every tunable of the triangle detector.
type Config struct {
	BlurKernel      int     `yaml:"blur_kernel" json:"blur_kernel"`
	BlockSize       int     `yaml:"block_size" json:"block_size"`
	ThresholdC      float64 `yaml:"threshold_c" json:"threshold_c"`
	MinPerimeter    float64 `yaml:"min_perimeter" json:"min_perimeter"`
	MinArea         float64 `yaml:"min_area" json:"min_area"`
	ApproxEpsilon   float64 `yaml:"approx_epsilon" json:"approx_epsilon"`
	TopLeftMaxSum   int     `yaml:"top_left_max_sum" json:"top_left_max_sum"`
	BottomRightMinX int     `yaml:"bottom_right_min_x" json:"bottom_right_min_x"`
	BottomRightMinY int     `yaml:"bottom_right_min_y" json:"bottom_right_min_y"`
	DefaultCoord    int     `yaml:"default_coord" json:"default_coord"`
	Mode            Mode    `yaml:"mode" json:"mode"`
	// ExclusiveAxes makes a triangle past BottomRightMinX supply only the x axis in
	// lenient mode, never y.
	ExclusiveAxes   bool    `yaml:"exclusive_axes,omitempty" json:"exclusive_axes,omitempty"`
}

// DefaultConfig returns the settings tuned for the standard answer sheet scanned at ~300 DPI.
func DefaultConfig() Config {
	return Config{
		BlurKernel:      5,
		BlockSize:       11,
		ThresholdC:      2,
		MinPerimeter:    90,
		MinArea:         0,
		ApproxEpsilon:   0.04,
		TopLeftMaxSum:   300,
		BottomRightMinX: 1000,
		BottomRightMinY: 1000,
		DefaultCoord:    10,
		Mode:            ModeStrict,
	}
}

// Validate checks the kernel and block sizes and the selection mode.
func (c Config) Validate() error {
	if c.BlurKernel < 1 || c.BlurKernel%2 == 0 {
		return fmt.Errorf("%w: blur kernel %d must be odd and positive", ErrInvalidConfig, c.BlurKernel)
	}
	if c.BlockSize < 3 || c.BlockSize%2 == 0 {
		return fmt.Errorf("%w: block size %d must be odd and at least 3", ErrInvalidConfig, c.BlockSize)
	}
	if c.ApproxEpsilon <= 0 || c.ApproxEpsilon >= 1 {
		return fmt.Errorf("%w: approximation epsilon %v outside (0,1)", ErrInvalidConfig, c.ApproxEpsilon)
	}
	if c.MinPerimeter < 0 || c.MinArea < 0 {
		return fmt.Errorf("%w: negative perimeter or area minimum", ErrInvalidConfig)
	}
	switch c.Mode {
	case ModeStrict, ModeLenient:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	return nil
}
