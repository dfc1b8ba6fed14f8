package restserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/chrissnell/tankwatch/internal/log"
	"github.com/chrissnell/tankwatch/internal/sources/file"
	"github.com/chrissnell/tankwatch/internal/sources/remote"
	"github.com/chrissnell/tankwatch/pkg/config"
	"github.com/vmihailenco/msgpack/v5"
)

const snapshot = `{"data":{"data":[
	{"Timestamp":"2024-01-01T10:00:00","floatSensor":"1.5","gaseSensor":"2","solar-sensor":"3","Water level":"Low"},
	{"Timestamp":"2024-01-01T11:00:00","floatSensor":"2.5","gaseSensor":"4","solar-sensor":"6"},
	{"Timestamp":"2024-01-02T10:00:00","floatSensor":"3.5","gaseSensor":"6","solar-sensor":"9"}
]}}`

func newTestController(t *testing.T, content string, sc config.ServerData) *Controller {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hack11.json")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	ctrl, err := NewController(context.Background(), &sync.WaitGroup{}, sc, file.NewLoader(path, log.Nop()), log.Nop())
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	return ctrl
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestNewControllerDefaults(t *testing.T) {
	ctrl := newTestController(t, snapshot, config.ServerData{})
	if ctrl.Server.Addr != "0.0.0.0:8080" {
		t.Errorf("Expected default address 0.0.0.0:8080, got %s", ctrl.Server.Addr)
	}

	if _, err := NewController(context.Background(), &sync.WaitGroup{}, config.ServerData{}, nil, log.Nop()); err == nil {
		t.Error("Expected an error without a loader")
	}
}

func TestGetStatus(t *testing.T) {
	rec := get(t, newTestController(t, snapshot, config.ServerData{}).Handler(), "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	resp := decode[StatusResponse](t, rec)
	if resp.Status != "ok" || !strings.HasSuffix(resp.Source, "hack11.json") {
		t.Errorf("Unexpected status %+v", resp)
	}
}

func TestGetReadings(t *testing.T) {
	rec := get(t, newTestController(t, snapshot, config.ServerData{}).Handler(), "/api/readings")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Rows     int              `json:"rows"`
		Readings []map[string]any `json:"readings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Rows != 3 || len(resp.Readings) != 3 {
		t.Fatalf("Expected 3 readings, got %d/%d", resp.Rows, len(resp.Readings))
	}
	first := resp.Readings[0]
	if first["floatSensor"] != 1.5 {
		t.Errorf("Expected floatSensor 1.5, got %v", first["floatSensor"])
	}
	if first["date"] != "2024-01-01" || first["time_of_day"] != "10:00:00" {
		t.Errorf("Unexpected derived columns %v %v", first["date"], first["time_of_day"])
	}
	if first["Water level"] != "Low" {
		t.Errorf("Passthrough field lost, got %v", first["Water level"])
	}
}

func TestGetOptions(t *testing.T) {
	rec := get(t, newTestController(t, snapshot, config.ServerData{}).Handler(), "/api/options")
	resp := decode[map[string]any](t, rec)

	dates := resp["dates"].([]any)
	times := resp["times"].([]any)
	if len(dates) != 2 || dates[0] != "2024-01-01" || dates[1] != "2024-01-02" {
		t.Errorf("Unexpected dates %v", dates)
	}
	if len(times) != 2 || times[0] != "10:00:00" || times[1] != "11:00:00" {
		t.Errorf("Unexpected times %v", times)
	}
	def := resp["default"].(map[string]any)
	if def["date"] != "2024-01-01" || def["time"] != "10:00:00" {
		t.Errorf("Unexpected default %v", def)
	}
}

func TestGetFilter(t *testing.T) {
	h := newTestController(t, snapshot, config.ServerData{}).Handler()

	tests := []struct {
		name     string
		query    string
		status   int
		rows     int
		empty    bool
		firstVal float64
	}{
		{"defaults", "", http.StatusOK, 1, false, 1.5},
		{"explicit", "?date=2024-01-01&time=11:00:00", http.StatusOK, 1, false, 2.5},
		{"date only", "?date=2024-01-02", http.StatusOK, 1, false, 3.5},
		{"no match", "?date=2024-01-02&time=11:00:00", http.StatusOK, 0, true, 0},
		{"bad date", "?date=01/02/2024", http.StatusBadRequest, 0, false, 0},
		{"bad time", "?time=25:00", http.StatusBadRequest, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, "/api/filter"+tt.query)
			if rec.Code != tt.status {
				t.Fatalf("Expected status %d, got %d: %s", tt.status, rec.Code, rec.Body)
			}
			if tt.status != http.StatusOK {
				return
			}

			var resp struct {
				Empty    bool               `json:"empty"`
				Message  string             `json:"message"`
				Rows     int                `json:"rows"`
				Readings []map[string]any   `json:"readings"`
				Summary  struct{ Rows int } `json:"summary"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Rows != tt.rows || len(resp.Readings) != tt.rows || resp.Summary.Rows != tt.rows {
				t.Errorf("Expected %d rows, got %+v", tt.rows, resp)
			}
			if resp.Empty != tt.empty {
				t.Errorf("Expected empty=%v, got %v", tt.empty, resp.Empty)
			}
			if tt.empty && resp.Message == "" {
				t.Error("Expected a no-data message")
			}
			if tt.rows > 0 && resp.Readings[0]["floatSensor"] != tt.firstVal {
				t.Errorf("Expected floatSensor %v, got %v", tt.firstVal, resp.Readings[0]["floatSensor"])
			}
		})
	}
}

func TestGetSummary(t *testing.T) {
	rec := get(t, newTestController(t, snapshot, config.ServerData{}).Handler(), "/api/summary")

	var resp struct {
		Summary struct {
			Rows    int `json:"rows"`
			Sensors []struct {
				Sensor string  `json:"sensor"`
				Mean   float64 `json:"mean"`
			} `json:"sensors"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Summary.Rows != 3 || len(resp.Summary.Sensors) != 3 {
		t.Fatalf("Unexpected summary %+v", resp.Summary)
	}
	if resp.Summary.Sensors[0].Sensor != "floatSensor" || resp.Summary.Sensors[0].Mean != 2.5 {
		t.Errorf("Unexpected floatSensor stats %+v", resp.Summary.Sensors[0])
	}
}

func TestFatalPipelineErrorIs500(t *testing.T) {
	// no file written
	h := newTestController(t, "", config.ServerData{}).Handler()

	rec := get(t, h, "/api/readings")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	resp := decode[map[string]string](t, rec)
	if resp["error"] == "" {
		t.Error("Expected an error message")
	}
}

func TestNetworkFailureIsNotice(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "maintenance")
	}))
	defer upstream.Close()

	loader := remote.NewLoader(remote.Options{
		BaseURL:   upstream.URL,
		ProductID: "3f1c2a9e-8b7d-4c5e-9a1f-2b3c4d5e6f70",
	}, nil, log.Nop())
	ctrl, err := NewController(context.Background(), &sync.WaitGroup{}, config.ServerData{}, loader, log.Nop())
	if err != nil {
		t.Fatal(err)
	}

	rec := get(t, ctrl.Handler(), "/api/filter")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Empty   bool `json:"empty"`
		Notices []struct {
			Level   string `json:"level"`
			Message string `json:"message"`
		} `json:"notices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Empty {
		t.Error("Expected an empty result")
	}
	if len(resp.Notices) != 1 || !strings.Contains(resp.Notices[0].Message, "503") {
		t.Errorf("Expected a 503 notice, got %+v", resp.Notices)
	}
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestController(t, snapshot, config.ServerData{AuthToken: "s3cret"}).Handler()

	tests := []struct {
		name   string
		path   string
		auth   string
		status int
	}{
		{"status is open", "/api/status", "", http.StatusOK},
		{"missing token", "/api/readings", "", http.StatusUnauthorized},
		{"wrong token", "/api/readings", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "/api/readings", "Basic s3cret", http.StatusUnauthorized},
		{"valid token", "/api/readings", "Bearer s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec *httptest.ResponseRecorder
			if tt.auth == "" {
				rec = get(t, h, tt.path)
			} else {
				rec = get(t, h, tt.path, "Authorization", tt.auth)
			}
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	h := newTestController(t, snapshot, config.ServerData{AllowedOrigins: []string{"https://dash.example.com"}}).Handler()

	rec := get(t, h, "/api/status", "Origin", "https://dash.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
		t.Errorf("Expected allowed origin header, got %q", got)
	}

	rec = get(t, h, "/api/status", "Origin", "https://evil.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header for a foreign origin, got %q", got)
	}
}

func TestMsgPackFormat(t *testing.T) {
	rec := get(t, newTestController(t, snapshot, config.ServerData{}).Handler(), "/api/options?format=msgpack")
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-msgpack" {
		t.Fatalf("Expected msgpack content type, got %q", ct)
	}

	var resp map[string]any
	if err := msgpack.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode msgpack: %v", err)
	}
	if dates, ok := resp["dates"].([]any); !ok || len(dates) != 2 {
		t.Errorf("Unexpected dates %v", resp["dates"])
	}
}
