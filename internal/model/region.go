package model

// Region represents one extracted region image of a sheet.
type Region struct {
	ID       int64  `json:"id"`
	SheetID  int64  `json:"sheetId"`
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Parent   int    `json:"parent"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FilePath string `json:"filepath"`
}
