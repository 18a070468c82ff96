package fiducial

import "omrscan/internal/dto"

// Scorer ranks candidates for each corner. Higher scores win; ties keep the
// earlier discovered candidate.
type Scorer interface {
	TopLeft(m dto.Marker) float64
	BottomRight(m dto.Marker) float64
}

// SumScorer prefers the candidate closest to the page origin for the top-left corner
// and the one farthest from it for the bottom-right corner.
type SumScorer struct{}

func (SumScorer) TopLeft(m dto.Marker) float64 {
	return -float64(m.Centroid.X + m.Centroid.Y)
}

func (SumScorer) BottomRight(m dto.Marker) float64 {
	return float64(m.Centroid.X + m.Centroid.Y)
}

// LastMatchScorer keeps whichever qualifying candidate was discovered last.
// Paired with Config.ExclusiveAxes in lenient mode it picks corners the way the
// first generation of scanning scripts did.
type LastMatchScorer struct{}

func (LastMatchScorer) TopLeft(m dto.Marker) float64     { return float64(m.Index) }
func (LastMatchScorer) BottomRight(m dto.Marker) float64 { return float64(m.Index) }
