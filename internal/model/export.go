package model

// ResponseExport is the top-level JSON structure for response export.
type ResponseExport struct {
	Store     string     `json:"store"`
	Count     int        `json:"count"`
	Responses []Response `json:"responses"`
}
