package restserver

import (
	"github.com/chrissnell/tankwatch/internal/summary"
	"github.com/chrissnell/tankwatch/internal/types"
)

// StatusResponse is returned by /api/status
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Source  string `json:"source"`
}

// ReadingsResponse is the full normalized table
type ReadingsResponse struct {
	Source   string                `json:"source"`
	Rows     int                   `json:"rows"`
	Readings []types.SensorReading `json:"readings"`
	Notices  []types.Notice        `json:"notices"`
}

// OptionsResponse lists the choices for the date and time selectors.
// Default is null when the table is empty.
type OptionsResponse struct {
	Dates   []types.Date           `json:"dates"`
	Times   []types.TimeOfDay      `json:"times"`
	Default *types.FilterSelection `json:"default"`
	Notices []types.Notice         `json:"notices"`
}

// FilterResponse is the result of one selection.  Empty is true when no row
// matched, which is not an error.
type FilterResponse struct {
	Selection *types.FilterSelection `json:"selection"`
	Empty     bool                   `json:"empty"`
	Message   string                 `json:"message,omitempty"`
	Rows      int                    `json:"rows"`
	Readings  []types.SensorReading  `json:"readings"`
	Summary   summary.Summary        `json:"summary"`
	Notices   []types.Notice         `json:"notices"`
}

// SummaryResponse holds statistics for the full table
type SummaryResponse struct {
	Summary summary.Summary `json:"summary"`
	Notices []types.Notice  `json:"notices"`
}

func notices(n []types.Notice) []types.Notice {
	if n == nil {
		return []types.Notice{}
	}
	return n
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
