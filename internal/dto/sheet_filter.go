// SheetFilters describe user-provided filters to narrow the sheet list.
package dto

import "time"

type SheetFilters struct {
	Template      string
	Name          string
	After         time.Time
	Before        time.Time
	LowConfidence bool
	Limit         int
	Offset        int
}
