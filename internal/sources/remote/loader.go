// Package remote fetches sensor data from the product data API.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/chrissnell/tankwatch/internal/constants"
	"github.com/chrissnell/tankwatch/internal/sources"
	"github.com/chrissnell/tankwatch/internal/types"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Options configures the remote loader
type Options struct {
	BaseURL   string
	ProductID string
	Token     string
	UserAgent string
}

type dataRequest struct {
	ProductID string `json:"productID"`
}

// Loader issues one POST per Load.  It never retries and keeps the HTTP
// client's default timeout.
type Loader struct {
	opts   Options
	url    string
	client *resty.Client
	logger *zap.SugaredLogger
}

// NewLoader creates a remote loader.  A nil httpClient uses resty's default.
func NewLoader(opts Options, httpClient *http.Client, logger *zap.SugaredLogger) *Loader {
	if opts.UserAgent == "" {
		opts.UserAgent = constants.UserAgent
	}

	var client *resty.Client
	if httpClient != nil {
		client = resty.NewWithClient(httpClient)
	} else {
		client = resty.New()
	}
	client.SetRetryCount(0)

	url := strings.TrimRight(opts.BaseURL, "/") + constants.DataEndpoint

	return &Loader{
		opts:   opts,
		url:    url,
		client: client,
		logger: logger.Named("remote").With("url", url),
	}
}

func (l *Loader) Name() string { return "remote" }

func (l *Loader) Source() string { return l.url }

// Load fetches the product's data.  Every failure, including an undecodable
// 200 response, comes back as an empty slice and a *sources.NetworkError.
func (l *Loader) Load(ctx context.Context) ([]types.RawRecord, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+l.opts.Token).
		SetHeader("User-Agent", l.opts.UserAgent).
		SetHeader("Accept", "application/json").
		SetBody(dataRequest{ProductID: l.opts.ProductID}).
		Post(l.url)
	if err != nil {
		l.logger.Errorw("Failed to fetch sensor data", "error", err)
		return []types.RawRecord{}, &sources.NetworkError{URL: l.url, Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		l.logger.Errorw("Unexpected status code from data API",
			"status", resp.StatusCode(),
			"body", resp.String())
		return []types.RawRecord{}, &sources.NetworkError{
			URL:        l.url,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
			Err:        fmt.Errorf("unexpected status code: %d", resp.StatusCode()),
		}
	}

	records, err := sources.DecodeDocument(l.url, resp.Body())
	if err != nil {
		l.logger.Errorw("Failed to decode data API response", "error", err)
		return []types.RawRecord{}, &sources.NetworkError{URL: l.url, StatusCode: resp.StatusCode(), Err: err}
	}

	l.logger.Debugw("Fetched sensor data", "records", len(records))
	return records, nil
}
