package dto

import (
	"encoding/json"
	"time"
)

// SheetInfo is the list view of a processed sheet.
type SheetInfo struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Template      string    `json:"template"`
	ProcessedAt   time.Time `json:"processedAt"`
	Regions       int       `json:"regions"`
	LowConfidence bool      `json:"lowConfidence"`
}

// MarshalJSON formats the processing time the way the gallery shows it.
func (s SheetInfo) MarshalJSON() ([]byte, error) {
	type Alias SheetInfo
	return json.Marshal(&struct {
		ProcessedAt string `json:"processedAt"`
		Alias
	}{
		ProcessedAt: s.ProcessedAt.Format("02-01-2006 15:04"),
		Alias:       (Alias)(s),
	})
}
