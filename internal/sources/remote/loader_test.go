package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/chrissnell/tankwatch/internal/log"
	"github.com/chrissnell/tankwatch/internal/sources"
)

const (
	testProductID = "3f1c2a9e-8b7d-4c5e-9a1f-2b3c4d5e6f70"
	testToken     = "static-token"
)

const successBody = `{"data":{"data":[{"Timestamp":"2024-01-01T10:00:00","floatSensor":"1.5","gaseSensor":"2.0","solar-sensor":"3.0"}]}}`

func newTestLoader(url string) *Loader {
	return NewLoader(Options{
		BaseURL:   url + "/",
		ProductID: testProductID,
		Token:     testToken,
		UserAgent: "tankwatch-test",
	}, nil, log.Nop())
}

func TestLoadSendsRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/product/get-data" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}

		headers := map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + testToken,
			"User-Agent":    "tankwatch-test",
			"Accept":        "application/json",
		}
		for k, v := range headers {
			if got := r.Header.Get(k); got != v {
				t.Errorf("Header %s: expected %q, got %q", k, v, got)
			}
		}

		body, _ := io.ReadAll(r.Body)
		var req map[string]string
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("Request body is not JSON: %s", body)
		}
		if len(req) != 1 || req["productID"] != testProductID {
			t.Errorf("Unexpected request body %s", body)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, successBody)
	}))
	defer server.Close()

	records, err := newTestLoader(server.URL).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if string(records[0].FloatSensor) != `"1.5"` {
		t.Errorf("Unexpected floatSensor %s", records[0].FloatSensor)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected exactly one request, got %d", calls.Load())
	}
}

func TestLoadServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "internal failure")
	}))
	defer server.Close()

	records, err := newTestLoader(server.URL).Load(context.Background())
	if records == nil || len(records) != 0 {
		t.Errorf("Expected an empty, non-nil slice, got %v", records)
	}

	var netErr *sources.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected *sources.NetworkError, got %v", err)
	}
	if netErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", netErr.StatusCode)
	}
	if netErr.Body != "internal failure" {
		t.Errorf("Expected body to be carried, got %q", netErr.Body)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected no retries, got %d requests", calls.Load())
	}
}

func TestLoadTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	records, err := newTestLoader(url).Load(context.Background())
	if len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}

	var netErr *sources.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected *sources.NetworkError, got %v", err)
	}
	if netErr.StatusCode != 0 || netErr.Err == nil {
		t.Errorf("Expected a transport error without status, got %+v", netErr)
	}
}

func TestLoadUndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{}}`)
	}))
	defer server.Close()

	_, err := newTestLoader(server.URL).Load(context.Background())

	var netErr *sources.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected *sources.NetworkError, got %v", err)
	}
	var parseErr *sources.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected the network error to wrap the parse error")
	}
}

func TestSource(t *testing.T) {
	loader := newTestLoader("https://tank.example.com")
	if loader.Source() != "https://tank.example.com/api/product/get-data" {
		t.Errorf("Unexpected source %s", loader.Source())
	}
	if loader.Name() != "remote" {
		t.Errorf("Unexpected name %s", loader.Name())
	}
}
