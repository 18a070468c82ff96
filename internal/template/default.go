package template

import (
	"omrscan/internal/geometry"
	"omrscan/internal/layout"
	"omrscan/internal/service/fiducial"
	"omrscan/internal/service/normalize"
)

// Default returns the layout of the standard 180-question answer sheet.
// Fractions were measured on a normalized 1139x791 page.
func Default() Template {
	return Template{
		Version:    CurrentVersion,
		Name:       "standard-180",
		Detector:   Detector{Config: fiducial.DefaultConfig()},
		Normalizer: Normalizer{Scale: normalize.DefaultScale},
		Regions: []layout.RegionDef{
			{
				Name: "subject_name",
				Rect: geometry.PercentRect{XStart: 0.01317, XEnd: 0.1765, YStart: 0.1479, YEnd: 0.1656},
			},
			{
				Name: "subject_id",
				Rect: geometry.PercentRect{XStart: 0, XEnd: 0.0421, YStart: 0.2414, YEnd: 0.5233},
				Grid: &layout.GridSpec{Rows: 10, Cols: 3, Margin: layout.Margin{Top: 0.06}},
			},
			{
				Name: "student_name",
				Rect: geometry.PercentRect{XStart: 0.0342, XEnd: 0.1773, YStart: 0.1113, YEnd: 0.1340},
			},
			{
				Name: "student_id",
				Rect: geometry.PercentRect{XStart: 0.04741, XEnd: 0.2579, YStart: 0.1668, YEnd: 0.5221},
				Grid: &layout.GridSpec{Rows: 10, Cols: 9, Margin: layout.Margin{Top: 0.06}},
			},
			{
				Name: "answers",
				Rect: geometry.PercentRect{XStart: 0.2700, XEnd: 0.9900, YStart: 0.0300, YEnd: 0.9700},
				Grid: &layout.GridSpec{
					Rows: 9,
					Cols: 4,
					Cell: &layout.GridSpec{Rows: 5, Cols: 13, Margin: layout.Margin{Left: 0.12}},
				},
			},
		},
	}
}
