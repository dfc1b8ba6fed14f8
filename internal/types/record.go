// Package types holds the data model shared by the loaders, the normalizer,
// the filter and the API.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSON keys of the fields that get normalized. Everything else is passthrough.
const (
	FieldTimestamp   = "Timestamp"
	FieldFloatSensor = "floatSensor"
	FieldGaseSensor  = "gaseSensor"
	FieldSolarSensor = "solar-sensor"
)

// SensorFields lists the numeric sensor fields in display order.
var SensorFields = []string{FieldFloatSensor, FieldGaseSensor, FieldSolarSensor}

// RawField is a passthrough field, kept exactly as it appeared in the source.
type RawField struct {
	Key   string
	Value json.RawMessage
}

// RawRecord is one element of the source's data.data list.  The named fields
// are nil when the key was absent from the source object.
type RawRecord struct {
	Timestamp   json.RawMessage
	FloatSensor json.RawMessage
	GaseSensor  json.RawMessage
	SolarSensor json.RawMessage

	// Extra holds every other key in source order.
	Extra []RawField

	// order is the source key order, used to re-emit the object faithfully
	order []string
}

// Field returns the raw value for a key and whether the key was present.
func (r *RawRecord) Field(key string) (json.RawMessage, bool) {
	if p := r.named(key); p != nil {
		return *p, *p != nil
	}
	for _, f := range r.Extra {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Set assigns a field, appending it to the key order if it is new.
func (r *RawRecord) Set(key string, value json.RawMessage) {
	if p := r.named(key); p != nil {
		if *p == nil {
			r.order = append(r.order, key)
		}
		*p = value
		return
	}
	for i := range r.Extra {
		if r.Extra[i].Key == key {
			r.Extra[i].Value = value
			return
		}
	}
	r.Extra = append(r.Extra, RawField{Key: key, Value: value})
	r.order = append(r.order, key)
}

// Keys returns the record's keys in source order.
func (r *RawRecord) Keys() []string {
	keys := make([]string, len(r.order))
	copy(keys, r.order)
	return keys
}

func (r *RawRecord) named(key string) *json.RawMessage {
	switch key {
	case FieldTimestamp:
		return &r.Timestamp
	case FieldFloatSensor:
		return &r.FloatSensor
	case FieldGaseSensor:
		return &r.GaseSensor
	case FieldSolarSensor:
		return &r.SolarSensor
	}
	return nil
}

// UnmarshalJSON decodes a JSON object, preserving key order.  A repeated key
// keeps its first position and its last value.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	*r = RawRecord{}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("sensor record must be a JSON object, got %s", describeJSON(data))
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		r.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON re-emits the record with its original key order.
func (r RawRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		value, _ := r.Field(key)
		if value == nil {
			buf.WriteString("null")
			continue
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func describeJSON(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "nothing"
	}
	switch data[0] {
	case '[':
		return "an array"
	case '"':
		return "a string"
	case 'n':
		return "null"
	case 't', 'f':
		return "a boolean"
	}
	return "a number"
}
