package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// SensorReading is one normalized, timestamped observation from the tank.
type SensorReading struct {
	Timestamp   time.Time
	FloatSensor float64 // water level
	GaseSensor  float64 // gas level
	SolarSensor float64 // solar energy consumption
	Date        Date
	TimeOfDay   TimeOfDay

	// Extra carries display-only fields (e.g. "Water level", "Time") untouched.
	Extra []RawField
}

// Value returns the numeric value of one of the SensorFields.
func (r SensorReading) Value(field string) (float64, bool) {
	switch field {
	case FieldFloatSensor:
		return r.FloatSensor, true
	case FieldGaseSensor:
		return r.GaseSensor, true
	case FieldSolarSensor:
		return r.SolarSensor, true
	}
	return 0, false
}

// MarshalJSON writes the normalized fields first, then the passthrough
// fields in their source order.
func (r SensorReading) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	write := func(key string, value []byte) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(value)
	}

	ts, err := json.Marshal(r.Timestamp.Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	write(FieldTimestamp, ts)
	write(FieldFloatSensor, jsonFloat(r.FloatSensor))
	write(FieldGaseSensor, jsonFloat(r.GaseSensor))
	write(FieldSolarSensor, jsonFloat(r.SolarSensor))
	write("date", []byte(strconv.Quote(r.Date.String())))
	write("time_of_day", []byte(strconv.Quote(r.TimeOfDay.String())))

	for _, f := range r.Extra {
		switch f.Key {
		case "date", "time_of_day":
			// derived columns win over a passthrough field of the same name
			continue
		}
		value := f.Value
		if value == nil {
			value = []byte("null")
		}
		write(f.Key, value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Record converts the reading back into the raw shape the loaders produce.
func (r SensorReading) Record() RawRecord {
	var rec RawRecord
	ts, _ := json.Marshal(r.Timestamp.Format(time.RFC3339Nano))
	rec.Set(FieldTimestamp, ts)
	rec.Set(FieldFloatSensor, rawFloat(r.FloatSensor))
	rec.Set(FieldGaseSensor, rawFloat(r.GaseSensor))
	rec.Set(FieldSolarSensor, rawFloat(r.SolarSensor))
	for _, f := range r.Extra {
		rec.Set(f.Key, f.Value)
	}
	return rec
}

// jsonFloat encodes non-finite values as null, which JSON has no literal for.
func jsonFloat(f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null")
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64)
}

// rawFloat is like jsonFloat but keeps infinities as strings so they survive
// another normalization pass.
func rawFloat(f float64) json.RawMessage {
	switch {
	case math.IsInf(f, 1):
		return json.RawMessage(`"+Inf"`)
	case math.IsInf(f, -1):
		return json.RawMessage(`"-Inf"`)
	}
	return jsonFloat(f)
}

// SensorTable is the full set of readings in source order.
type SensorTable struct {
	Readings []SensorReading
}

func (t *SensorTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Readings)
}

func (t *SensorTable) Empty() bool {
	return t.Len() == 0
}

// Dates returns the distinct dates in first-seen order.
func (t *SensorTable) Dates() []Date {
	if t == nil {
		return nil
	}
	seen := make(map[Date]struct{})
	var dates []Date
	for _, r := range t.Readings {
		if _, ok := seen[r.Date]; ok {
			continue
		}
		seen[r.Date] = struct{}{}
		dates = append(dates, r.Date)
	}
	return dates
}

// Times returns the distinct times of day in first-seen order.
func (t *SensorTable) Times() []TimeOfDay {
	if t == nil {
		return nil
	}
	seen := make(map[TimeOfDay]struct{})
	var times []TimeOfDay
	for _, r := range t.Readings {
		if _, ok := seen[r.TimeOfDay]; ok {
			continue
		}
		seen[r.TimeOfDay] = struct{}{}
		times = append(times, r.TimeOfDay)
	}
	return times
}

// Records converts the table back into raw records.
func (t *SensorTable) Records() []RawRecord {
	if t == nil {
		return nil
	}
	records := make([]RawRecord, len(t.Readings))
	for i, r := range t.Readings {
		records[i] = r.Record()
	}
	return records
}

// FilterSelection is the (date, time of day) pair picked from the options.
type FilterSelection struct {
	Date Date      `json:"date" msgpack:"date"`
	Time TimeOfDay `json:"time" msgpack:"time"`
}

// FilteredTable is the subsequence of a SensorTable matching a selection.
type FilteredTable struct {
	Selection FilterSelection
	Readings  []SensorReading
}

// Empty reports the "no data for this selection" state.  It is not an error.
func (f FilteredTable) Empty() bool {
	return len(f.Readings) == 0
}

// Notice levels
const (
	NoticeError   = "error"
	NoticeWarning = "warning"
)

// Notice is a message meant for the person looking at the dashboard.
type Notice struct {
	Level   string    `json:"level"`
	Source  string    `json:"source"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}
