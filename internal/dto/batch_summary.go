package dto

// BatchSummary counts the outcome of one batch run.
type BatchSummary struct {
	Total  int `json:"total"`
	Saved  int `json:"saved"`
	Failed int `json:"failed"`
}
