package model

import "time"

// Sheet represents a processed answer sheet record.
type Sheet struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Template      string    `json:"template"`
	ProcessedAt   time.Time `json:"processedAt"`
	PageWidth     int       `json:"pageWidth"`
	PageHeight    int       `json:"pageHeight"`
	TopLeftX      int       `json:"topLeftX"`
	TopLeftY      int       `json:"topLeftY"`
	BottomRightX  int       `json:"bottomRightX"`
	BottomRightY  int       `json:"bottomRightY"`
	LowConfidence bool      `json:"lowConfidence"`
	Defaulted     string    `json:"defaulted"` // comma separated coordinates filled with the default
	Directory     string    `json:"directory"`
	RegionCount   int       `json:"regionCount"`
}
