package models

// SeriesResponse wraps a single series.
type SeriesResponse struct {
	Series SeriesPayload `json:"series"`
}

// InteropResponse lists the filled slots of a bundle by attribute name.
type InteropResponse struct {
	Values map[string]ValuePayload `json:"values"`
}

// PflineResponse is a built line table.
type PflineResponse struct {
	Kind   string                   `json:"kind"`
	Series map[string]SeriesPayload `json:"series"`
}

// FrequencyInfo describes a supported frequency.
type FrequencyInfo struct {
	Alias       string `json:"alias"`
	Description string `json:"description"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
