package layout

import (
	"fmt"

	"omrscan/internal/geometry"
)

// Kind classifies a node of the region tree.
type Kind string

const (
	KindField Kind = "field"
	KindGrid  Kind = "grid"
	KindCell  Kind = "cell"
)

// NoParent marks a region whose rectangle is relative to the normalized page.
const NoParent = -1

// RegionDef is one top-level region as declared in a sheet template.
type RegionDef struct {
	Name string               `yaml:"name" json:"name"`
	Rect geometry.PercentRect `yaml:"rect" json:"rect"`
	Grid *GridSpec            `yaml:"grid,omitempty" json:"grid,omitempty"`
}

// RegionSpec is a node of the region tree. Rect is relative to the parent region.
// Row and Col are -1 unless the node is a grid cell.
type RegionSpec struct {
	Name   string               `json:"name"`
	Kind   Kind                 `json:"kind"`
	Rect   geometry.PercentRect `json:"rect"`
	Parent int                  `json:"parent"`
	Row    int                  `json:"row"`
	Col    int                  `json:"col"`
	Depth  int                  `json:"depth"`
}

type cellKey struct {
	parent   int
	row, col int
}

// Layout is an arena of region specs. Parents always precede their children and grid
// cells are stored depth-first in row-major order.
type Layout struct {
	specs  []RegionSpec
	byName map[string]int
	cells  map[cellKey]int
}

// Build expands the declared regions into the full region tree.
func Build(defs []RegionDef) (*Layout, error) {
	l := &Layout{
		byName: make(map[string]int),
		cells:  make(map[cellKey]int),
	}

	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("%w: region without a name", geometry.ErrInvalidRegionSpec)
		}
		if err := def.Rect.Validate(); err != nil {
			return nil, fmt.Errorf("region %q: %w", def.Name, err)
		}

		kind := KindField
		if def.Grid != nil {
			kind = KindGrid
		}
		idx, err := l.add(RegionSpec{
			Name:   def.Name,
			Kind:   kind,
			Rect:   def.Rect,
			Parent: NoParent,
			Row:    -1,
			Col:    -1,
		})
		if err != nil {
			return nil, err
		}

		if def.Grid != nil {
			if err := l.addGrid(idx, *def.Grid); err != nil {
				return nil, fmt.Errorf("region %q: %w", def.Name, err)
			}
		}
	}

	return l, nil
}

func (l *Layout) add(spec RegionSpec) (int, error) {
	if _, exists := l.byName[spec.Name]; exists {
		return 0, fmt.Errorf("%w: duplicate region name %q", geometry.ErrInvalidRegionSpec, spec.Name)
	}
	if spec.Parent != NoParent {
		spec.Depth = l.specs[spec.Parent].Depth + 1
	}
	idx := len(l.specs)
	l.specs = append(l.specs, spec)
	l.byName[spec.Name] = idx
	return idx, nil
}

func (l *Layout) addGrid(parent int, grid GridSpec) error {
	cells, err := grid.Cells()
	if err != nil {
		return err
	}

	prefix := l.specs[parent].Name
	for n, rect := range cells {
		row, col := n/grid.Cols, n%grid.Cols

		kind := KindCell
		if grid.Cell != nil {
			kind = KindGrid
		}
		idx, err := l.add(RegionSpec{
			Name:   CellName(prefix, row, col),
			Kind:   kind,
			Rect:   rect,
			Parent: parent,
			Row:    row,
			Col:    col,
		})
		if err != nil {
			return err
		}
		l.cells[cellKey{parent, row, col}] = idx

		if grid.Cell != nil {
			if err := l.addGrid(idx, *grid.Cell); err != nil {
				return err
			}
		}
	}
	return nil
}

// CellName builds the dotted name of a grid cell, e.g. answers.r3.c2.
func CellName(parent string, row, col int) string {
	return fmt.Sprintf("%s.r%d.c%d", parent, row, col)
}

// Len returns the number of regions in the tree.
func (l *Layout) Len() int { return len(l.specs) }

// Spec returns the region at index i.
func (l *Layout) Spec(i int) RegionSpec { return l.specs[i] }

// Specs returns a copy of every region in declaration order.
func (l *Layout) Specs() []RegionSpec {
	out := make([]RegionSpec, len(l.specs))
	copy(out, l.specs)
	return out
}

// Lookup finds a region index by name.
func (l *Layout) Lookup(name string) (int, bool) {
	idx, ok := l.byName[name]
	return idx, ok
}

// Cell finds the (row, col) cell of the grid named grid.
func (l *Layout) Cell(grid string, row, col int) (RegionSpec, bool) {
	parent, ok := l.byName[grid]
	if !ok {
		return RegionSpec{}, false
	}
	idx, ok := l.cells[cellKey{parent, row, col}]
	if !ok {
		return RegionSpec{}, false
	}
	return l.specs[idx], true
}

// Children returns the indices of the direct children of region i.
func (l *Layout) Children(i int) []int {
	var out []int
	for idx := i + 1; idx < len(l.specs); idx++ {
		if l.specs[idx].Parent == i {
			out = append(out, idx)
		}
	}
	return out
}

// Absolute composes region i with all of its ancestors so it can be cropped straight
// from the normalized page.
func (l *Layout) Absolute(i int) geometry.PercentRect {
	rect := l.specs[i].Rect
	for p := l.specs[i].Parent; p != NoParent; p = l.specs[p].Parent {
		rect = rect.Within(l.specs[p].Rect)
	}
	return rect
}
