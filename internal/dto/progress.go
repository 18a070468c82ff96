package dto

// Progress is broadcast while a batch of sheets is processed.
type Progress struct {
	Total    int    `json:"total"`
	Started  int    `json:"started"`
	Finished int    `json:"finished"`
	Sheet    string `json:"sheet,omitempty"`
	Error    string `json:"error,omitempty"`
}
