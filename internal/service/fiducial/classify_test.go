package fiducial

import (
	"errors"
	"testing"

	"omrscan/internal/dto"
	"omrscan/internal/geometry"
)

func markersAt(points ...geometry.Point) []dto.Marker {
	markers := make([]dto.Marker, len(points))
	for i, p := range points {
		markers[i] = dto.Marker{Index: i, Centroid: p, Perimeter: 200}
	}
	return markers
}

func lenientConfig() Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeLenient
	return cfg
}

func TestClassify_TwoMarkers(t *testing.T) {
	result, err := Classify(markersAt(geometry.Point{X: 50, Y: 50}, geometry.Point{X: 1200, Y: 1200}), DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	want := geometry.BoundingBox{TopLeft: geometry.Point{X: 50, Y: 50}, BottomRight: geometry.Point{X: 1200, Y: 1200}}
	if result.Box != want {
		t.Errorf("Box = %+v, want %+v", result.Box, want)
	}
	if result.LowConfidence || len(result.Defaulted) != 0 {
		t.Errorf("Expected a confident result, got %+v", result)
	}
	if result.Markers[0].Role != dto.RoleTopLeft || result.Markers[1].Role != dto.RoleBottomRight {
		t.Errorf("Unexpected roles: %s, %s", result.Markers[0].Role, result.Markers[1].Role)
	}
}

func TestClassify_BestOfSelection(t *testing.T) {
	markers := markersAt(
		geometry.Point{X: 50, Y: 50},
		geometry.Point{X: 1200, Y: 1200},
		geometry.Point{X: 120, Y: 100},   // smudge near the top-left corner
		geometry.Point{X: 1100, Y: 1150}, // bubble-shaped noise near the bottom-right corner
		geometry.Point{X: 600, Y: 600},   // neither corner
	)

	tests := []struct {
		name   string
		scorer Scorer
		want   geometry.BoundingBox
	}{
		{
			name:   "sum scorer",
			scorer: SumScorer{},
			want:   geometry.BoundingBox{TopLeft: geometry.Point{X: 50, Y: 50}, BottomRight: geometry.Point{X: 1200, Y: 1200}},
		},
		{
			name:   "last match scorer",
			scorer: LastMatchScorer{},
			want:   geometry.BoundingBox{TopLeft: geometry.Point{X: 120, Y: 100}, BottomRight: geometry.Point{X: 1100, Y: 1150}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Classify(markers, DefaultConfig(), tt.scorer)
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if result.Box != tt.want {
				t.Errorf("Box = %+v, want %+v", result.Box, tt.want)
			}
			if result.Markers[4].Role != dto.RoleNone {
				t.Errorf("Middle marker should have no role, got %s", result.Markers[4].Role)
			}
		})
	}
}

func TestClassify_TieKeepsFirst(t *testing.T) {
	markers := markersAt(
		geometry.Point{X: 100, Y: 50},
		geometry.Point{X: 50, Y: 100},
		geometry.Point{X: 1200, Y: 1200},
	)

	result, err := Classify(markers, DefaultConfig(), SumScorer{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Box.TopLeft != (geometry.Point{X: 100, Y: 50}) {
		t.Errorf("Expected the first discovered marker to win the tie, got %v", result.Box.TopLeft)
	}
}

func TestClassify_DoesNotMutateInput(t *testing.T) {
	markers := markersAt(geometry.Point{X: 50, Y: 50}, geometry.Point{X: 1200, Y: 1200})
	if _, err := Classify(markers, DefaultConfig(), nil); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if markers[0].Role != dto.RoleNone || markers[1].Role != dto.RoleNone {
		t.Error("Classify should not assign roles on the caller's slice")
	}
}

func TestClassify_Errors(t *testing.T) {
	tests := []struct {
		name    string
		markers []dto.Marker
		cfg     Config
		wantErr error
	}{
		{
			name:    "no candidates",
			markers: nil,
			cfg:     DefaultConfig(),
			wantErr: ErrNoMarkerFound,
		},
		{
			name:    "no candidates lenient",
			markers: nil,
			cfg:     lenientConfig(),
			wantErr: ErrNoMarkerFound,
		},
		{
			name:    "missing top-left",
			markers: markersAt(geometry.Point{X: 400, Y: 400}, geometry.Point{X: 1200, Y: 1200}),
			cfg:     DefaultConfig(),
			wantErr: ErrNoMarkerFound,
		},
		{
			name:    "strict needs both axes from one triangle",
			markers: markersAt(geometry.Point{X: 50, Y: 50}, geometry.Point{X: 1200, Y: 500}),
			cfg:     DefaultConfig(),
			wantErr: ErrNoMarkerFound,
		},
		{
			name:    "lenient default y below top-left",
			markers: markersAt(geometry.Point{X: 50, Y: 50}, geometry.Point{X: 1200, Y: 500}),
			cfg:     lenientConfig(),
			wantErr: geometry.ErrDegenerateBoundingBox,
		},
		{
			name:    "thresholds that make the box collapse",
			markers: markersAt(geometry.Point{X: 50, Y: 50}, geometry.Point{X: 200, Y: 20}),
			cfg:     Config{TopLeftMaxSum: 300, BottomRightMinX: 0, BottomRightMinY: 0, Mode: ModeStrict},
			wantErr: geometry.ErrDegenerateBoundingBox,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(tt.markers, tt.cfg, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestClassify_LenientDefaultsMissingAxis(t *testing.T) {
	markers := markersAt(geometry.Point{X: 5, Y: 5}, geometry.Point{X: 1200, Y: 500})

	result, err := Classify(markers, lenientConfig(), nil)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if result.Box.BottomRight != (geometry.Point{X: 1200, Y: 10}) {
		t.Errorf("BottomRight = %v, want (1200,10)", result.Box.BottomRight)
	}
	if !result.LowConfidence {
		t.Error("A defaulted axis must be reported as low confidence")
	}
	if len(result.Defaulted) != 1 || result.Defaulted[0] != "bottom_right.y" {
		t.Errorf("Defaulted = %v", result.Defaulted)
	}
	if result.Markers[1].Role != dto.RoleBottomRightX {
		t.Errorf("Role = %s, want %s", result.Markers[1].Role, dto.RoleBottomRightX)
	}
}

func TestClassify_LenientSplitCorner(t *testing.T) {
	markers := markersAt(
		geometry.Point{X: 50, Y: 50},
		geometry.Point{X: 1200, Y: 900},
		geometry.Point{X: 900, Y: 1150},
	)

	result, err := Classify(markers, lenientConfig(), nil)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Box.BottomRight != (geometry.Point{X: 1200, Y: 1150}) {
		t.Errorf("BottomRight = %v, want (1200,1150)", result.Box.BottomRight)
	}
	if !result.LowConfidence || len(result.Defaulted) != 0 {
		t.Errorf("Expected low confidence without defaults, got %+v", result)
	}
	if result.Markers[1].Role != dto.RoleBottomRightX || result.Markers[2].Role != dto.RoleBottomRightY {
		t.Errorf("Unexpected roles: %s, %s", result.Markers[1].Role, result.Markers[2].Role)
	}
}

func TestClassify_LenientSingleCorner(t *testing.T) {
	markers := markersAt(geometry.Point{X: 50, Y: 50}, geometry.Point{X: 1200, Y: 1200})

	result, err := Classify(markers, lenientConfig(), nil)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.LowConfidence {
		t.Error("One triangle past both thresholds should be confident")
	}
	if result.Markers[1].Role != dto.RoleBottomRight {
		t.Errorf("Role = %s, want %s", result.Markers[1].Role, dto.RoleBottomRight)
	}
}

func TestClassify_LenientLegacy(t *testing.T) {
	// The last triangle passes both bottom-right thresholds.
	markers := markersAt(
		geometry.Point{X: 50, Y: 50},
		geometry.Point{X: 500, Y: 1100},
		geometry.Point{X: 1200, Y: 1200},
	)

	tests := []struct {
		name          string
		exclusive     bool
		want          geometry.Point
		lowConfidence bool
	}{
		{"exclusive axes", true, geometry.Point{X: 1200, Y: 1100}, true},
		{"shared axes", false, geometry.Point{X: 1200, Y: 1200}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := lenientConfig()
			cfg.ExclusiveAxes = tt.exclusive

			result, err := Classify(markers, cfg, LastMatchScorer{})
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if result.Box.BottomRight != tt.want {
				t.Errorf("BottomRight = %v, want %v", result.Box.BottomRight, tt.want)
			}
			if result.LowConfidence != tt.lowConfidence {
				t.Errorf("LowConfidence = %v, want %v", result.LowConfidence, tt.lowConfidence)
			}
		})
	}
}

func TestClassify_LenientSkipsTopLeft(t *testing.T) {
	cfg := lenientConfig()
	cfg.BottomRightMinX = 100

	// The top-left triangle also passes the x threshold and is discovered last.
	markers := markersAt(geometry.Point{X: 400, Y: 1200}, geometry.Point{X: 120, Y: 60})

	result, err := Classify(markers, cfg, LastMatchScorer{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Box.BottomRight != (geometry.Point{X: 400, Y: 1200}) {
		t.Errorf("BottomRight = %v, want (400,1200)", result.Box.BottomRight)
	}
	if result.Markers[1].Role != dto.RoleTopLeft || result.Markers[0].Role != dto.RoleBottomRight {
		t.Errorf("Unexpected roles: %s, %s", result.Markers[0].Role, result.Markers[1].Role)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"even blur kernel", func(c *Config) { c.BlurKernel = 4 }},
		{"zero blur kernel", func(c *Config) { c.BlurKernel = 0 }},
		{"even block size", func(c *Config) { c.BlockSize = 10 }},
		{"tiny block size", func(c *Config) { c.BlockSize = 1 }},
		{"zero epsilon", func(c *Config) { c.ApproxEpsilon = 0 }},
		{"negative perimeter", func(c *Config) { c.MinPerimeter = -1 }},
		{"unknown mode", func(c *Config) { c.Mode = "fuzzy" }},
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestDetectorRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"triangle", false},
		{"", false},
		{"triangle-legacy", false},
		{"circle", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			_, err := NewDetector(tt.variant, DefaultConfig())
			if (err != nil) != tt.wantErr {
				t.Errorf("NewDetector(%q) error = %v, wantErr %v", tt.variant, err, tt.wantErr)
			}
		})
	}
}

func TestDetectorRegistry_LegacyUsesExclusiveAxes(t *testing.T) {
	detector, err := NewDetector("triangle-legacy", lenientConfig())
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	triangle, ok := detector.(*TriangleDetector)
	if !ok {
		t.Fatalf("Expected *TriangleDetector, got %T", detector)
	}
	if !triangle.Config().ExclusiveAxes {
		t.Error("Legacy detector should take each bottom-right axis from its own triangle")
	}
	if _, ok := triangle.scorer.(LastMatchScorer); !ok {
		t.Errorf("Expected LastMatchScorer, got %T", triangle.scorer)
	}
}
