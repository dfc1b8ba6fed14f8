// Package normalize turns raw sensor records into a typed SensorTable.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/chrissnell/tankwatch/internal/types"
)

var (
	errNotNumeric = errors.New("value is not numeric")
	errNotString  = errors.New("value is not a string or number")
	errEmpty      = errors.New("empty timestamp")
)

// Normalize casts the three sensor fields to float64, parses Timestamp and
// derives the date and time-of-day columns.  The first bad record aborts the
// whole table; no partial result is returned.  Output order is input order.
func Normalize(records []types.RawRecord) (*types.SensorTable, error) {
	table := &types.SensorTable{Readings: make([]types.SensorReading, 0, len(records))}

	for i := range records {
		reading, err := normalizeRecord(i, &records[i])
		if err != nil {
			return nil, err
		}
		table.Readings = append(table.Readings, reading)
	}

	return table, nil
}

func normalizeRecord(index int, rec *types.RawRecord) (types.SensorReading, error) {
	var reading types.SensorReading

	sensors := []struct {
		field  string
		raw    json.RawMessage
		target *float64
	}{
		{types.FieldFloatSensor, rec.FloatSensor, &reading.FloatSensor},
		{types.FieldGaseSensor, rec.GaseSensor, &reading.GaseSensor},
		{types.FieldSolarSensor, rec.SolarSensor, &reading.SolarSensor},
	}
	for _, s := range sensors {
		if s.raw == nil {
			return reading, &TypeConversionError{Index: index, Field: s.field}
		}
		v, err := ToFloat(s.raw)
		if err != nil {
			return reading, &TypeConversionError{Index: index, Field: s.field, Raw: string(s.raw), Err: err}
		}
		*s.target = v
	}

	if rec.Timestamp == nil {
		return reading, &TimestampParseError{Index: index}
	}
	ts, err := ParseTimestamp(rec.Timestamp)
	if err != nil {
		return reading, &TimestampParseError{Index: index, Raw: string(rec.Timestamp), Err: err}
	}

	reading.Timestamp = ts
	reading.Date = types.DateOf(ts)
	reading.TimeOfDay = types.TimeOfDayOf(ts)

	if len(rec.Extra) > 0 {
		reading.Extra = make([]types.RawField, len(rec.Extra))
		copy(reading.Extra, rec.Extra)
	}

	return reading, nil
}

// ToFloat casts a raw JSON value to float64.  Numbers and numeric strings
// convert directly, booleans become 1 or 0 and null becomes NaN.
// Out-of-range values saturate to ±Inf.
func ToFloat(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, errNotNumeric
	}

	switch raw[0] {
	case 'n':
		if string(raw) == "null" {
			return math.NaN(), nil
		}
	case 't':
		if string(raw) == "true" {
			return 1, nil
		}
	case 'f':
		if string(raw) == "false" {
			return 0, nil
		}
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		return parseFloat(strings.TrimSpace(s))
	case '{', '[':
		return 0, errNotNumeric
	default:
		return parseFloat(string(raw))
	}
	return 0, errNotNumeric
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, errNotNumeric
	}
	// Go accepts hex floats and underscores, neither of which is a decimal reading
	if strings.ContainsAny(s, "_xXpP") {
		return 0, fmt.Errorf("%w: %q", errNotNumeric, s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return v, nil
		}
		return 0, fmt.Errorf("%w: %q", errNotNumeric, s)
	}
	return v, nil
}

// ParseTimestamp parses a date-time in any of the common layouts (ISO 8601,
// RFC 3339, RFC 1123, US-style dates, Unix epochs).  Values without a zone are
// taken as UTC; values with an offset keep it.
func ParseTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)

	var s string
	switch {
	case len(raw) == 0:
		return time.Time{}, errEmpty
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		s = strings.TrimSpace(s)
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		s = string(raw)
	default:
		return time.Time{}, errNotString
	}

	if s == "" {
		return time.Time{}, errEmpty
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if strings.Trim(s, "0123456789") == "" {
		// epochs have no zone of their own
		t = t.UTC()
	}
	return t, nil
}
