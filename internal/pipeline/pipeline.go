// Package pipeline runs load → normalize for one dashboard refresh and
// answers filter selections against the result.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/tankwatch/internal/filter"
	"github.com/chrissnell/tankwatch/internal/memo"
	"github.com/chrissnell/tankwatch/internal/normalize"
	"github.com/chrissnell/tankwatch/internal/sources"
	"github.com/chrissnell/tankwatch/internal/summary"
	"github.com/chrissnell/tankwatch/internal/types"
	"go.uber.org/zap"
)

// Pipeline ties a loader to the normalizer and the filter.
type Pipeline struct {
	loader sources.Loader
	cache  *memo.Cache
	logger *zap.SugaredLogger
}

// New creates a pipeline.  cache may be nil to disable memoization.
func New(loader sources.Loader, cache *memo.Cache, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		loader: loader,
		cache:  cache,
		logger: logger.Named("pipeline"),
	}
}

// Run is the outcome of one load → normalize pass.
type Run struct {
	Table   *types.SensorTable
	Notices []types.Notice
	Source  string

	tableKey string
	cache    *memo.Cache
	logger   *zap.SugaredLogger
}

// Run loads and normalizes a fresh table, discarding anything memoized by a
// previous run.  Network failures are turned into notices and produce an
// empty table; read, parse and normalization failures are returned.
func (p *Pipeline) Run(ctx context.Context) (*Run, error) {
	start := time.Now()
	p.cache.Invalidate()

	run := &Run{
		Source: p.loader.Source(),
		cache:  p.cache,
		logger: p.logger,
	}

	loadKey, err := memo.Key("load", p.loader.Name(), p.loader.Source())
	if err != nil {
		return nil, err
	}
	records, err := memo.Memoize(p.cache, loadKey, func() ([]types.RawRecord, error) {
		return p.loader.Load(ctx)
	})
	if err != nil {
		var netErr *sources.NetworkError
		if !errors.As(err, &netErr) {
			return nil, err
		}
		notice := netErr.Notice()
		p.logger.Warnw("Continuing without data", "source", run.Source, "notice", notice.Message)
		run.Notices = append(run.Notices, notice)
		records = []types.RawRecord{}
	}

	encoded, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("unable to fingerprint records: %w", err)
	}
	run.tableKey, err = memo.Key("table", encoded)
	if err != nil {
		return nil, err
	}

	run.Table, err = memo.Memoize(p.cache, "normalize:"+run.tableKey, func() (*types.SensorTable, error) {
		return normalize.Normalize(records)
	})
	if err != nil {
		return nil, fmt.Errorf("error normalizing sensor data from %s: %w", run.Source, err)
	}

	p.logger.Debugw("Pipeline run complete",
		"source", run.Source,
		"rows", run.Table.Len(),
		"notices", len(run.Notices),
		"duration", time.Since(start))

	return run, nil
}

// Options returns the date and time-of-day choices, in first-seen order.
func (r *Run) Options() ([]types.Date, []types.TimeOfDay) {
	return filter.Options(r.Table)
}

// DefaultSelection is the first date and first time of day.
func (r *Run) DefaultSelection() (types.FilterSelection, bool) {
	return filter.DefaultSelection(r.Table)
}

// Select filters the table.  Repeating a selection within a run reuses the
// earlier result.
func (r *Run) Select(sel types.FilterSelection) types.FilteredTable {
	key, err := memo.Key("filter", r.tableKey, sel.Date.String(), sel.Time.String())
	if err != nil {
		return filter.Apply(r.Table, sel.Date, sel.Time)
	}
	filtered, _ := memo.Memoize(r.cache, key, func() (types.FilteredTable, error) {
		return filter.Apply(r.Table, sel.Date, sel.Time), nil
	})
	return filtered
}

// Summary returns statistics for the whole table.
func (r *Run) Summary() summary.Summary {
	s, _ := memo.Memoize(r.cache, "summary:"+r.tableKey, func() (summary.Summary, error) {
		return summary.Compute(r.Table.Readings), nil
	})
	return s
}

// SelectionSummary returns statistics for the rows matching sel.
func (r *Run) SelectionSummary(sel types.FilterSelection) summary.Summary {
	key, err := memo.Key("selection-summary", r.tableKey, sel.Date.String(), sel.Time.String())
	if err != nil {
		return summary.Compute(r.Select(sel).Readings)
	}
	s, _ := memo.Memoize(r.cache, key, func() (summary.Summary, error) {
		return summary.Compute(r.Select(sel).Readings), nil
	})
	return s
}

// CacheStats reports memoization hits and misses for this run.
func (r *Run) CacheStats() memo.Stats {
	return r.cache.Stats()
}
