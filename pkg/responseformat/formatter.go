// Package responseformat writes API responses as JSON or MessagePack.
package responseformat

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

// Formatter handles encoding and writing responses in JSON or MessagePack format
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// WriteResponse writes data with the given status.  JSON is the default;
// MessagePack is used when the request has format=msgpack.
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, status int, data any) error {
	if req.URL.Query().Get("format") == "msgpack" {
		return f.writeMsgPack(w, status, data)
	}
	return f.writeJSON(w, status, data)
}

// WriteError writes {"error": message} with the given status
func (f *Formatter) WriteError(w http.ResponseWriter, req *http.Request, status int, message string) error {
	return f.WriteResponse(w, req, status, map[string]string{"error": message})
}

func (f *Formatter) writeJSON(w http.ResponseWriter, status int, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, `{"error":"unable to encode response"}`, http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
	w.Write([]byte("\n"))
	return nil
}

// writeMsgPack goes through JSON first so that types with custom JSON
// encodings (readings, dates, times) come out the same in both formats.
func (f *Formatter) writeMsgPack(w http.ResponseWriter, status int, data any) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "unable to encode response", http.StatusInternalServerError)
		return err
	}

	var generic any
	if err := json.Unmarshal(jsonBytes, &generic); err != nil {
		http.Error(w, "unable to encode response", http.StatusInternalServerError)
		return err
	}

	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(generic); err != nil {
		http.Error(w, "unable to encode response", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "application/x-msgpack")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
	return nil
}
