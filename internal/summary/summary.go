// Package summary computes per-sensor statistics for a set of readings.
package summary

import (
	"math"

	"github.com/chrissnell/tankwatch/internal/types"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SensorStats describes one sensor column.  NaN and infinite readings are
// skipped and Count is the number of values that were used.
type SensorStats struct {
	Sensor string  `json:"sensor" msgpack:"sensor"`
	Count  int     `json:"count" msgpack:"count"`
	Min    float64 `json:"min" msgpack:"min"`
	Max    float64 `json:"max" msgpack:"max"`
	Mean   float64 `json:"mean" msgpack:"mean"`
	StdDev float64 `json:"stddev" msgpack:"stddev"`
}

// Summary holds statistics for every sensor field.
type Summary struct {
	Rows    int           `json:"rows" msgpack:"rows"`
	Sensors []SensorStats `json:"sensors" msgpack:"sensors"`
}

// Compute summarizes readings.  Empty input yields zero stats, never NaN.
func Compute(readings []types.SensorReading) Summary {
	s := Summary{Rows: len(readings)}

	for _, field := range types.SensorFields {
		values := make([]float64, 0, len(readings))
		for _, r := range readings {
			v, _ := r.Value(field)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			values = append(values, v)
		}
		s.Sensors = append(s.Sensors, columnStats(field, values))
	}

	return s
}

// Sensor returns the stats for one sensor field.
func (s Summary) Sensor(field string) (SensorStats, bool) {
	for _, st := range s.Sensors {
		if st.Sensor == field {
			return st, true
		}
	}
	return SensorStats{}, false
}

func columnStats(field string, values []float64) SensorStats {
	st := SensorStats{Sensor: field, Count: len(values)}
	if len(values) == 0 {
		return st
	}

	st.Min = floats.Min(values)
	st.Max = floats.Max(values)
	st.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		st.StdDev = stat.StdDev(values, nil)
	}
	return st
}
