package models

import "time"

// SeriesPayload is a time series on the wire. Null values stand for NaN.
type SeriesPayload struct {
	Timestamps []time.Time `json:"timestamps"`
	Values     []*float64  `json:"values"`
	Unit       string      `json:"unit,omitempty"`
	Name       string      `json:"name,omitempty"`
	// Freq is inferred from the timestamps when empty.
	Freq string `json:"freq,omitempty"`
	// Bound is "left" (default) or "right".
	Bound string `json:"bound,omitempty"`
	// Timezone applies to the timestamps before standardizing, e.g. "Europe/Berlin".
	Timezone string `json:"timezone,omitempty"`
}

// ValuePayload is either a scalar (Value, Unit) or a series. Exactly one of
// Value and Series must be set.
type ValuePayload struct {
	Value  *float64       `json:"value,omitempty"`
	Unit   string         `json:"unit,omitempty"`
	Series *SeriesPayload `json:"series,omitempty"`
}

// ChangeFreqRequest is the body of POST /api/v1/changefreq.
type ChangeFreqRequest struct {
	Series SeriesPayload `json:"series" binding:"required"`
	Freq   string        `json:"freq" binding:"required"`
	// Kind is "summable" (q, r) or "averagable" (w, p).
	Kind string `json:"kind" binding:"required,oneof=summable averagable"`
}

// InteropRequest is the body of POST /api/v1/interop. Keys are attribute
// names (w, q, p, r, nodim, agn).
type InteropRequest struct {
	Values         map[string]ValuePayload `json:"values" binding:"required"`
	AssignAgnostic string                  `json:"assign_agnostic,omitempty"`
	// Align turns every value into a series on the common index.
	Align bool `json:"align,omitempty"`
}

// ToleranceRequest overrides the server's consistency tolerances.
type ToleranceRequest struct {
	RTol *float64 `json:"rtol,omitempty"`
	ATol *float64 `json:"atol,omitempty"`
	Zero *float64 `json:"zero,omitempty"`
}

// PflineRequest is the body of POST /api/v1/pfline.
type PflineRequest struct {
	Values         map[string]ValuePayload `json:"values" binding:"required"`
	AssignAgnostic string                  `json:"assign_agnostic,omitempty"`
	Tolerance      *ToleranceRequest       `json:"tolerance,omitempty"`
	// Freq resamples the resulting table.
	Freq string `json:"freq,omitempty"`
}

// PricesQuery are the query parameters of GET /api/v1/prices.
type PricesQuery struct {
	DatasetID  string `form:"dataset_id" binding:"required"`
	LocationID string `form:"location_id" binding:"required"`
	StartDate  string `form:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate    string `form:"end_date" binding:"required"`   // YYYY-MM-DD
	Component  string `form:"component"`
	Freq       string `form:"freq"`
	Timezone   string `form:"timezone"`
	MaxGap     int    `form:"max_gap" binding:"min=0"`
}
