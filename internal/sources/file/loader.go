// Package file loads a static JSON snapshot of sensor data from disk.
package file

import (
	"context"
	"os"

	"github.com/chrissnell/tankwatch/internal/sources"
	"github.com/chrissnell/tankwatch/internal/types"
	"go.uber.org/zap"
)

// Loader reads the snapshot at Path on every Load.
type Loader struct {
	path   string
	logger *zap.SugaredLogger
}

// NewLoader creates a file loader for path
func NewLoader(path string, logger *zap.SugaredLogger) *Loader {
	return &Loader{
		path:   path,
		logger: logger.Named("file").With("path", path),
	}
}

func (l *Loader) Name() string { return "file" }

func (l *Loader) Source() string { return l.path }

// Load reads and decodes the snapshot.  A missing or unreadable file is a
// *sources.ReadError; bad content is a *sources.ParseError.
func (l *Loader) Load(ctx context.Context) ([]types.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := os.ReadFile(l.path)
	if err != nil {
		return nil, &sources.ReadError{Path: l.path, Err: err}
	}

	records, err := sources.DecodeDocument(l.path, body)
	if err != nil {
		return nil, err
	}

	l.logger.Debugw("Loaded sensor snapshot", "records", len(records), "bytes", len(body))
	return records, nil
}
