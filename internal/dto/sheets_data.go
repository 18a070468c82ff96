// SheetsData is a paginated response payload for the sheet list.
package dto

type SheetsData struct {
	Sheets      []SheetInfo `json:"sheets"`
	OutputDir   string      `json:"outputDir"`
	Length      int         `json:"length"`
	TotalPages  int         `json:"totalPages"`
	CurrentPage int         `json:"currentPage"`
	Limit       int         `json:"pageSize"`
}
