// Package sources loads raw sensor records from either a JSON snapshot on
// disk or the product data API.
package sources

import (
	"context"

	"github.com/chrissnell/tankwatch/internal/types"
)

// Loader produces the raw records for one pipeline run.
type Loader interface {
	// Name is the source type, "file" or "remote"
	Name() string
	// Source identifies the input (a path or a URL)
	Source() string
	// Load reads every record, in source order
	Load(ctx context.Context) ([]types.RawRecord, error)
}
