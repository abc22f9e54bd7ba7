// Package model holds the wire shapes of external market data.
package model

import (
	"fmt"
	"strings"
	"time"
)

// GridStatusLMPResponse matches the JSON body of the GridStatus location query.
//
// Example:
//
//	{
//	  "status_code": 200,
//	  "data": [ ... ]
//	}
type GridStatusLMPResponse struct {
	StatusCode int           `json:"status_code"`
	Data       []LMPInterval `json:"data"`
}

// LMPInterval is one interval row of a GridStatus LMP dataset.
// Timestamps are RFC3339 strings with offsets in the JSON.
type LMPInterval struct {
	IntervalStartLocal time.Time `json:"interval_start_local"`
	IntervalStartUTC   time.Time `json:"interval_start_utc"`
	IntervalEndLocal   time.Time `json:"interval_end_local"`
	IntervalEndUTC     time.Time `json:"interval_end_utc"`

	Market       string `json:"market"`
	Location     string `json:"location"`
	LocationType string `json:"location_type"`

	// Prices in $/MWh.
	LMP        float64 `json:"lmp"`
	Energy     float64 `json:"energy"`
	Congestion float64 `json:"congestion"`
	Loss       float64 `json:"loss"`
	GHG        float64 `json:"ghg"`
}

// Start returns the start of the interval, preferring the UTC field.
func (i LMPInterval) Start() time.Time {
	if !i.IntervalStartUTC.IsZero() {
		return i.IntervalStartUTC
	}
	return i.IntervalStartLocal
}

// End returns the end of the interval, preferring the UTC field.
func (i LMPInterval) End() time.Time {
	if !i.IntervalEndUTC.IsZero() {
		return i.IntervalEndUTC
	}
	return i.IntervalEndLocal
}

func (i LMPInterval) Duration() time.Duration {
	// UTC fields are unambiguous around DST changes.
	if !i.IntervalEndUTC.IsZero() && !i.IntervalStartUTC.IsZero() {
		return i.IntervalEndUTC.Sub(i.IntervalStartUTC)
	}
	return i.IntervalEndLocal.Sub(i.IntervalStartLocal)
}

func (i LMPInterval) DurationHours() float64 {
	return i.Duration().Hours()
}

// Component selects one of the price columns of an LMPInterval.
type Component string

const (
	ComponentLMP        Component = "lmp"
	ComponentEnergy     Component = "energy"
	ComponentCongestion Component = "congestion"
	ComponentLoss       Component = "loss"
	ComponentGHG        Component = "ghg"
)

// ParseComponent accepts a column name; an empty string selects the LMP.
func ParseComponent(s string) (Component, error) {
	switch c := Component(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ComponentLMP, nil
	case ComponentLMP, ComponentEnergy, ComponentCongestion, ComponentLoss, ComponentGHG:
		return c, nil
	default:
		return "", fmt.Errorf("unknown price component %q (want lmp, energy, congestion, loss or ghg)", s)
	}
}

// Value returns the selected price of i in $/MWh.
func (c Component) Value(i LMPInterval) float64 {
	switch c {
	case ComponentEnergy:
		return i.Energy
	case ComponentCongestion:
		return i.Congestion
	case ComponentLoss:
		return i.Loss
	case ComponentGHG:
		return i.GHG
	default:
		return i.LMP
	}
}
