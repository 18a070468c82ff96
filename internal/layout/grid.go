package layout

import (
	"fmt"
	"math"

	"omrscan/internal/geometry"
)

// Margin excludes a fraction of the grid's bounding rectangle on each side before splitting.
// Top typically carries a printed header row.
type Margin struct {
	Top    float64 `yaml:"top,omitempty" json:"top,omitempty"`
	Bottom float64 `yaml:"bottom,omitempty" json:"bottom,omitempty"`
	Left   float64 `yaml:"left,omitempty" json:"left,omitempty"`
	Right  float64 `yaml:"right,omitempty" json:"right,omitempty"`
}

// GridSpec splits a rectangle into Rows x Cols uniform cells. Cell, when set, is laid over
// every generated cell in turn (answer block -> bubble rows x option columns).
type GridSpec struct {
	Rows   int       `yaml:"rows" json:"rows"`
	Cols   int       `yaml:"cols" json:"cols"`
	Margin Margin    `yaml:"margin,omitempty" json:"margin,omitempty"`
	Cell   *GridSpec `yaml:"cell,omitempty" json:"cell,omitempty"`
}

// Validate checks dimensions and margins, recursing into nested cell grids.
func (g GridSpec) Validate() error {
	if g.Rows < 1 || g.Cols < 1 {
		return fmt.Errorf("%w: grid %dx%d must have at least one row and column", geometry.ErrInvalidRegionSpec, g.Rows, g.Cols)
	}
	m := g.Margin
	for _, v := range []float64{m.Top, m.Bottom, m.Left, m.Right} {
		if v < 0 || v >= 1 {
			return fmt.Errorf("%w: margin %v outside [0,1)", geometry.ErrInvalidRegionSpec, v)
		}
	}
	if m.Left+m.Right >= 1 || m.Top+m.Bottom >= 1 {
		return fmt.Errorf("%w: margins %+v leave no room for cells", geometry.ErrInvalidRegionSpec, m)
	}
	if g.Cell != nil {
		if err := g.Cell.Validate(); err != nil {
			return fmt.Errorf("nested grid: %w", err)
		}
	}
	return nil
}

// Cells returns the Rows*Cols cell rectangles in row-major order, each relative to the
// grid's bounding rectangle. Cell (i, j) spans
// x [L + (1-L-R)*j/C, L + (1-L-R)*(j+1)/C] and y [T + (1-T-B)*i/R, T + (1-T-B)*(i+1)/R].
func (g GridSpec) Cells() ([]geometry.PercentRect, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	cells := make([]geometry.PercentRect, 0, g.Rows*g.Cols)
	for i := 0; i < g.Rows; i++ {
		for j := 0; j < g.Cols; j++ {
			cells = append(cells, geometry.PercentRect{
				XStart: split(g.Margin.Left, g.Margin.Right, j, g.Cols),
				XEnd:   split(g.Margin.Left, g.Margin.Right, j+1, g.Cols),
				YStart: split(g.Margin.Top, g.Margin.Bottom, i, g.Rows),
				YEnd:   split(g.Margin.Top, g.Margin.Bottom, i+1, g.Rows),
			})
		}
	}
	return cells, nil
}

// split is the shared boundary formula, so neighbouring cells meet on identical values.
func split(lead, trail float64, k, n int) float64 {
	return math.Min(1, lead+(1-lead-trail)*float64(k)/float64(n))
}
