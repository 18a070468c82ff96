package dto

import "omrscan/internal/geometry"

// MarkerRole is the corner a fiducial candidate was assigned to.
type MarkerRole string

const (
	RoleNone         MarkerRole = ""
	RoleTopLeft      MarkerRole = "top_left"
	RoleBottomRight  MarkerRole = "bottom_right"
	RoleBottomRightX MarkerRole = "bottom_right_x"
	RoleBottomRightY MarkerRole = "bottom_right_y"
)

// Marker is a triangle candidate found on the raw scan.
type Marker struct {
	Index     int            `json:"index"` // discovery order
	Centroid  geometry.Point `json:"centroid"`
	Perimeter float64        `json:"perimeter"`
	Area      float64        `json:"area"`
	Role      MarkerRole     `json:"role,omitempty"`
}

// DetectionResult is the page box inferred from the fiducials.
type DetectionResult struct {
	Box           geometry.BoundingBox `json:"box"`
	Markers       []Marker             `json:"markers"`
	LowConfidence bool                 `json:"low_confidence"`
	Defaulted     []string             `json:"defaulted,omitempty"`
}
