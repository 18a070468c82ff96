package fiducial

import (
	"fmt"

	"omrscan/internal/dto"
	"omrscan/internal/geometry"
)

// Classify assigns corner roles to triangle candidates and builds the page box.
// It does not touch pixels, so detection policy can be exercised on plain marker lists.
func Classify(markers []dto.Marker, cfg Config, scorer Scorer) (*dto.DetectionResult, error) {
	if scorer == nil {
		scorer = SumScorer{}
	}
	if len(markers) == 0 {
		return nil, fmt.Errorf("%w: no triangle candidates", ErrNoMarkerFound)
	}

	result := &dto.DetectionResult{Markers: make([]dto.Marker, len(markers))}
	copy(result.Markers, markers)
	for i := range result.Markers {
		result.Markers[i].Role = dto.RoleNone
	}

	tl := best(result.Markers, -1, scorer.TopLeft, func(p geometry.Point) bool {
		return p.X+p.Y < cfg.TopLeftMaxSum
	})
	if tl < 0 {
		return nil, fmt.Errorf("%w: no top-left triangle with x+y < %d", ErrNoMarkerFound, cfg.TopLeftMaxSum)
	}
	result.Markers[tl].Role = dto.RoleTopLeft
	result.Box.TopLeft = result.Markers[tl].Centroid

	switch cfg.Mode {
	case ModeLenient:
		classifyLenient(result, tl, cfg, scorer)
	default:
		br := best(result.Markers, tl, scorer.BottomRight, func(p geometry.Point) bool {
			return p.X > cfg.BottomRightMinX && p.Y > cfg.BottomRightMinY
		})
		if br < 0 {
			return nil, fmt.Errorf("%w: no bottom-right triangle with x > %d and y > %d",
				ErrNoMarkerFound, cfg.BottomRightMinX, cfg.BottomRightMinY)
		}
		result.Markers[br].Role = dto.RoleBottomRight
		result.Box.BottomRight = result.Markers[br].Centroid
	}

	if err := result.Box.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func classifyLenient(result *dto.DetectionResult, tl int, cfg Config, scorer Scorer) {
	bx := best(result.Markers, tl, scorer.BottomRight, func(p geometry.Point) bool {
		return p.X > cfg.BottomRightMinX
	})
	by := best(result.Markers, tl, scorer.BottomRight, func(p geometry.Point) bool {
		if cfg.ExclusiveAxes && p.X > cfg.BottomRightMinX {
			return false
		}
		return p.Y > cfg.BottomRightMinY
	})

	result.Box.BottomRight = geometry.Point{X: cfg.DefaultCoord, Y: cfg.DefaultCoord}
	if bx >= 0 {
		result.Box.BottomRight.X = result.Markers[bx].Centroid.X
		assign(&result.Markers[bx], dto.RoleBottomRightX)
	} else {
		result.LowConfidence = true
		result.Defaulted = append(result.Defaulted, "bottom_right.x")
	}
	if by >= 0 {
		result.Box.BottomRight.Y = result.Markers[by].Centroid.Y
		assign(&result.Markers[by], dto.RoleBottomRightY)
	} else {
		result.LowConfidence = true
		result.Defaulted = append(result.Defaulted, "bottom_right.y")
	}
	if bx >= 0 && by >= 0 && bx != by {
		// Corner assembled from two different triangles.
		result.LowConfidence = true
	}
}

// assign merges the x and y bottom-right roles when one marker supplies both.
func assign(m *dto.Marker, role dto.MarkerRole) {
	switch {
	case m.Role == dto.RoleBottomRightX && role == dto.RoleBottomRightY:
		m.Role = dto.RoleBottomRight
	case m.Role == dto.RoleNone:
		m.Role = role
	}
}

// best returns the index of the highest scoring marker accepted by keep, or -1.
// The marker at skip is never chosen; pass -1 to consider all of them.
func best(markers []dto.Marker, skip int, score func(dto.Marker) float64, keep func(geometry.Point) bool) int {
	idx := -1
	var top float64
	for i, m := range markers {
		if i == skip || !keep(m.Centroid) {
			continue
		}
		s := score(m)
		if idx < 0 || s > top {
			idx, top = i, s
		}
	}
	return idx
}
