package layout

import (
	"errors"
	"math"
	"testing"

	"omrscan/internal/geometry"
)

const eps = 1e-9

func answersDef() RegionDef {
	return RegionDef{
		Name: "answers",
		Rect: geometry.PercentRect{XStart: 0.27, XEnd: 0.99, YStart: 0.03, YEnd: 0.97},
		Grid: &GridSpec{
			Rows: 9,
			Cols: 4,
			Cell: &GridSpec{Rows: 5, Cols: 13, Margin: Margin{Left: 0.12}},
		},
	}
}

func TestGridSpec_CellsTileInnerRect(t *testing.T) {
	tests := []struct {
		name string
		grid GridSpec
	}{
		{"single", GridSpec{Rows: 1, Cols: 1}},
		{"answer blocks", GridSpec{Rows: 9, Cols: 4}},
		{"bubbles with margin", GridSpec{Rows: 5, Cols: 13, Margin: Margin{Left: 0.12}}},
		{"digits with header", GridSpec{Rows: 10, Cols: 9, Margin: Margin{Top: 0.08, Bottom: 0.02, Left: 0.01, Right: 0.03}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells, err := tt.grid.Cells()
			if err != nil {
				t.Fatalf("Cells failed: %v", err)
			}
			if len(cells) != tt.grid.Rows*tt.grid.Cols {
				t.Fatalf("Expected %d cells, got %d", tt.grid.Rows*tt.grid.Cols, len(cells))
			}

			m := tt.grid.Margin
			innerArea := (1 - m.Left - m.Right) * (1 - m.Top - m.Bottom)
			area := 0.0
			for i := 0; i < tt.grid.Rows; i++ {
				for j := 0; j < tt.grid.Cols; j++ {
					c := cells[i*tt.grid.Cols+j]
					if err := c.Validate(); err != nil {
						t.Fatalf("cell (%d,%d) invalid: %v", i, j, err)
					}
					area += (c.XEnd - c.XStart) * (c.YEnd - c.YStart)

					if j+1 < tt.grid.Cols && c.XEnd != cells[i*tt.grid.Cols+j+1].XStart {
						t.Errorf("gap between (%d,%d) and its right neighbour", i, j)
					}
					if i+1 < tt.grid.Rows && c.YEnd != cells[(i+1)*tt.grid.Cols+j].YStart {
						t.Errorf("gap between (%d,%d) and the cell below", i, j)
					}
				}
			}
			if math.Abs(area-innerArea) > eps {
				t.Errorf("cell area %v does not cover inner area %v", area, innerArea)
			}

			first, last := cells[0], cells[len(cells)-1]
			if math.Abs(first.XStart-m.Left) > eps || math.Abs(first.YStart-m.Top) > eps {
				t.Errorf("first cell starts at %v", first)
			}
			if math.Abs(last.XEnd-(1-m.Right)) > eps || math.Abs(last.YEnd-(1-m.Bottom)) > eps {
				t.Errorf("last cell ends at %v", last)
			}
		})
	}
}

func TestGridSpec_PixelTiling(t *testing.T) {
	cells, err := GridSpec{Rows: 9, Cols: 4}.Cells()
	if err != nil {
		t.Fatalf("Cells failed: %v", err)
	}

	const w, h = 1139, 791
	total := 0
	for _, c := range cells {
		r, err := c.Pixels(w, h)
		if err != nil {
			t.Fatalf("Pixels(%v) failed: %v", c, err)
		}
		total += r.Dx() * r.Dy()
	}
	if total != w*h {
		t.Errorf("cells cover %d pixels, want %d", total, w*h)
	}
}

func TestGridSpec_Validate(t *testing.T) {
	tests := []struct {
		name string
		grid GridSpec
	}{
		{"zero rows", GridSpec{Rows: 0, Cols: 3}},
		{"negative cols", GridSpec{Rows: 3, Cols: -1}},
		{"negative margin", GridSpec{Rows: 1, Cols: 1, Margin: Margin{Top: -0.1}}},
		{"margins consume width", GridSpec{Rows: 1, Cols: 1, Margin: Margin{Left: 0.5, Right: 0.5}}},
		{"bad nested grid", GridSpec{Rows: 2, Cols: 2, Cell: &GridSpec{Rows: 0, Cols: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.grid.Validate(); !errors.Is(err, geometry.ErrInvalidRegionSpec) {
				t.Errorf("Expected ErrInvalidRegionSpec, got %v", err)
			}
		})
	}
}

func TestBuild_OrderAndCounts(t *testing.T) {
	defs := []RegionDef{
		{Name: "subject_name", Rect: geometry.PercentRect{XStart: 0.01317, XEnd: 0.1765, YStart: 0.1479, YEnd: 0.1656}},
		{Name: "subject_id", Rect: geometry.PercentRect{XStart: 0, XEnd: 0.0421, YStart: 0.2414, YEnd: 0.5233}, Grid: &GridSpec{Rows: 10, Cols: 3}},
		answersDef(),
	}

	l, err := Build(defs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := 1 + (1 + 30) + (1 + 36 + 36*65)
	if l.Len() != want {
		t.Fatalf("Expected %d regions, got %d", want, l.Len())
	}

	specs := l.Specs()
	if specs[0].Name != "subject_name" || specs[0].Kind != KindField {
		t.Errorf("Unexpected first spec: %+v", specs[0])
	}
	if specs[1].Name != "subject_id" || specs[1].Kind != KindGrid {
		t.Errorf("Unexpected second spec: %+v", specs[1])
	}
	if specs[2].Name != "subject_id.r0.c0" || specs[2].Parent != 1 {
		t.Errorf("Unexpected first cell: %+v", specs[2])
	}

	for i, s := range specs {
		if s.Parent >= i {
			t.Fatalf("spec %d (%s) precedes its parent %d", i, s.Name, s.Parent)
		}
	}

	// Depth-first: the first answer block is followed by its 65 bubbles.
	block, ok := l.Lookup("answers.r0.c0")
	if !ok {
		t.Fatal("answers.r0.c0 not found")
	}
	if specs[block+1].Name != "answers.r0.c0.r0.c0" || specs[block+1].Depth != 2 {
		t.Errorf("Unexpected spec after first block: %+v", specs[block+1])
	}
	if len(l.Children(block)) != 65 {
		t.Errorf("Expected 65 bubbles in a block, got %d", len(l.Children(block)))
	}
}

func TestLayout_Cell(t *testing.T) {
	l, err := Build([]RegionDef{answersDef()})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	cell, ok := l.Cell("answers", 3, 2)
	if !ok {
		t.Fatal("Expected answers (3,2)")
	}
	if cell.Name != "answers.r3.c2" || cell.Row != 3 || cell.Col != 2 || cell.Kind != KindGrid {
		t.Errorf("Unexpected cell: %+v", cell)
	}

	bubble, ok := l.Cell("answers.r3.c2", 4, 12)
	if !ok {
		t.Fatal("Expected bubble (4,12)")
	}
	if bubble.Name != "answers.r3.c2.r4.c12" || bubble.Kind != KindCell {
		t.Errorf("Unexpected bubble: %+v", bubble)
	}

	if _, ok := l.Cell("answers", 9, 0); ok {
		t.Error("Row 9 should not exist")
	}
	if _, ok := l.Cell("missing", 0, 0); ok {
		t.Error("Unknown grid should not resolve")
	}
}

func TestLayout_Absolute(t *testing.T) {
	l, err := Build([]RegionDef{answersDef()})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	idx, _ := l.Lookup("answers.r0.c0")
	block := l.Absolute(idx)
	want := geometry.PercentRect{XStart: 0.27, XEnd: 0.27 + 0.72/4, YStart: 0.03, YEnd: 0.03 + 0.94/9}
	if math.Abs(block.XStart-want.XStart) > eps || math.Abs(block.XEnd-want.XEnd) > eps ||
		math.Abs(block.YStart-want.YStart) > eps || math.Abs(block.YEnd-want.YEnd) > eps {
		t.Errorf("Absolute(block) = %v, want %v", block, want)
	}

	// The last bubble of the last block ends at the answers region's corner.
	last := l.Len() - 1
	abs := l.Absolute(last)
	if math.Abs(abs.XEnd-0.99) > eps || math.Abs(abs.YEnd-0.97) > eps {
		t.Errorf("last bubble ends at %v", abs)
	}
	if err := abs.Validate(); err != nil {
		t.Errorf("absolute rect invalid: %v", err)
	}
}

func TestBuild_Errors(t *testing.T) {
	rect := geometry.PercentRect{XStart: 0, XEnd: 0.5, YStart: 0, YEnd: 0.5}
	tests := []struct {
		name string
		defs []RegionDef
	}{
		{"empty name", []RegionDef{{Rect: rect}}},
		{"duplicate", []RegionDef{{Name: "a", Rect: rect}, {Name: "a", Rect: rect}}},
		{"bad rect", []RegionDef{{Name: "a", Rect: geometry.PercentRect{XStart: 0.5, XEnd: 0.1, YStart: 0, YEnd: 1}}}},
		{"bad grid", []RegionDef{{Name: "a", Rect: rect, Grid: &GridSpec{Rows: 0, Cols: 1}}}},
		{"cell name clash", []RegionDef{{Name: "a.r0.c0", Rect: rect}, {Name: "a", Rect: rect, Grid: &GridSpec{Rows: 1, Cols: 1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.defs); !errors.Is(err, geometry.ErrInvalidRegionSpec) {
				t.Errorf("Expected ErrInvalidRegionSpec, got %v", err)
			}
		})
	}
}
