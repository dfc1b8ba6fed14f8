package sources

import (
	"bytes"
	"encoding/json"

	"github.com/chrissnell/tankwatch/internal/types"
)

// DecodeDocument extracts the record list found at data.data.  source only
// labels errors.  An empty list is valid; a missing or null list is not.
func DecodeDocument(source string, body []byte) ([]types.RawRecord, error) {
	var doc struct {
		Data *struct {
			Data json.RawMessage `json:"data"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &ParseError{Source: source, Reason: "invalid JSON document", Err: err}
	}
	if doc.Data == nil {
		return nil, &ParseError{Source: source, Reason: `missing "data" key`}
	}

	inner := bytes.TrimSpace(doc.Data.Data)
	if len(inner) == 0 || bytes.Equal(inner, []byte("null")) {
		return nil, &ParseError{Source: source, Reason: `missing "data.data" key`}
	}
	if inner[0] != '[' {
		return nil, &ParseError{Source: source, Reason: `"data.data" is not a list`}
	}

	records := []types.RawRecord{}
	if err := json.Unmarshal(inner, &records); err != nil {
		return nil, &ParseError{Source: source, Reason: "malformed sensor record", Err: err}
	}
	return records, nil
}
