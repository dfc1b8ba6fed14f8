package sources

import (
	"fmt"
	"time"

	"github.com/chrissnell/tankwatch/internal/types"
)

// ReadError means the source file could not be opened or read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("unable to read sensor data from %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ParseError means the document was not valid JSON or did not have a
// data.data list.
type ParseError struct {
	Source string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unable to parse sensor data from %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("unable to parse sensor data from %s: %s", e.Source, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NetworkError is a failed remote fetch.  StatusCode is zero when the request
// never got a response.
type NetworkError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0 && e.StatusCode != 200:
		return fmt.Sprintf("failed to fetch data from %s: status code %d: %s", e.URL, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("failed to fetch data from %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to fetch data from %s", e.URL)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Notice turns the failure into the message shown on the dashboard.
func (e *NetworkError) Notice() types.Notice {
	var msg string
	if e.StatusCode != 0 && e.StatusCode != 200 {
		msg = fmt.Sprintf("Failed to fetch data. Status code: %d, Response: %s", e.StatusCode, e.Body)
	} else {
		msg = fmt.Sprintf("An error occurred: %v", e.Err)
	}
	return types.Notice{
		Level:   types.NoticeError,
		Source:  e.URL,
		Message: msg,
		Time:    time.Now(),
	}
}
