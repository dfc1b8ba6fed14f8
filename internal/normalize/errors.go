package normalize

import "fmt"

// TypeConversionError means a sensor field could not be cast to float64.
// Raw is the field's JSON text, or empty when the field was missing.
type TypeConversionError struct {
	Index int
	Field string
	Raw   string
	Err   error
}

func (e *TypeConversionError) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf("record %d: field %q is missing", e.Index, e.Field)
	}
	return fmt.Sprintf("record %d: cannot convert %q value %s to float: %v", e.Index, e.Field, e.Raw, e.Err)
}

func (e *TypeConversionError) Unwrap() error { return e.Err }

// TimestampParseError means the Timestamp field was missing or unparseable.
type TimestampParseError struct {
	Index int
	Raw   string
	Err   error
}

func (e *TimestampParseError) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf("record %d: field \"Timestamp\" is missing", e.Index)
	}
	return fmt.Sprintf("record %d: cannot parse Timestamp %s: %v", e.Index, e.Raw, e.Err)
}

func (e *TimestampParseError) Unwrap() error { return e.Err }
