package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const testProductID = "3f1c2a9e-8b7d-4c5e-9a1f-2b3c4d5e6f70"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestYAMLProviderLoadConfig(t *testing.T) {
	path := writeFile(t, "tankwatch.yaml", `
source:
  type: remote
  base-url: https://tank.example.com
  product-id: `+testProductID+`
  token: secret
server:
  port: 9090
  auth-token: inbound
  allowed-origins:
    - http://localhost:5173
`)

	provider := NewYAMLProvider(path)
	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Source.Type != SourceRemote {
		t.Errorf("Expected source type remote, got %q", cfg.Source.Type)
	}
	if cfg.Source.BaseURL != "https://tank.example.com" {
		t.Errorf("Unexpected base URL %q", cfg.Source.BaseURL)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if !reflect.DeepEqual(cfg.Server.AllowedOrigins, []string{"http://localhost:5173"}) {
		t.Errorf("Unexpected allowed origins %v", cfg.Server.AllowedOrigins)
	}

	server, err := provider.GetServer()
	if err != nil {
		t.Fatalf("GetServer failed: %v", err)
	}
	if server.AuthToken != "inbound" {
		t.Errorf("Expected auth token inbound, got %q", server.AuthToken)
	}
	if !provider.IsReadOnly() {
		t.Error("YAML provider should be read-only")
	}
}

func TestYAMLProviderRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "tankwatch.yaml", "source:\n  type: file\n  pth: typo.json\n")
	if _, err := NewYAMLProvider(path).LoadConfig(); err == nil {
		t.Fatal("Expected an error for an unknown key")
	}
}

func TestSQLiteProviderRoundTrip(t *testing.T) {
	provider, err := NewSQLiteProvider(filepath.Join(t.TempDir(), "config.db"))
	if err != nil {
		t.Fatalf("NewSQLiteProvider failed: %v", err)
	}
	defer provider.Close()

	want := &ConfigData{
		Source: SourceData{
			Type:      SourceRemote,
			BaseURL:   "https://tank.example.com",
			ProductID: testProductID,
			Token:     "secret",
		},
		Server: ServerData{
			ListenAddr:     "127.0.0.1",
			Port:           8181,
			AllowedOrigins: []string{"http://a.example", "http://b.example"},
		},
	}
	if err := provider.SaveConfig(want); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	got, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestSQLiteProviderReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.db")

	first, err := NewSQLiteProvider(path)
	if err != nil {
		t.Fatalf("NewSQLiteProvider failed: %v", err)
	}
	want := &ConfigData{Source: SourceData{Type: SourceFile, Path: "/data/hack11.json"}}
	if err := first.SaveConfig(want); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	first.Close()

	// migrations already applied; opening again must not fail or lose data
	second, err := NewSQLiteProvider(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer second.Close()

	got, err := second.GetSource()
	if err != nil {
		t.Fatal(err)
	}
	if got.Path != "/data/hack11.json" {
		t.Errorf("Expected saved path, got %+v", got)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &ConfigData{}
	cfg.ApplyDefaults()

	if cfg.Source.Type != SourceFile || cfg.Source.Path != "hack11.json" {
		t.Errorf("Unexpected source defaults %+v", cfg.Source)
	}
	if !strings.HasPrefix(cfg.Source.UserAgent, "tankwatch/") {
		t.Errorf("Unexpected user agent %q", cfg.Source.UserAgent)
	}
	if cfg.Server.Port != 8080 || cfg.Server.ListenAddr != "0.0.0.0" {
		t.Errorf("Unexpected server defaults %+v", cfg.Server)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		source  SourceData
		server  ServerData
		wantErr string
	}{
		{
			name:   "file source",
			source: SourceData{Type: SourceFile, Path: "data.json"},
		},
		{
			name:    "file source without path",
			source:  SourceData{Type: SourceFile},
			wantErr: "source.path",
		},
		{
			name:   "remote source",
			source: SourceData{Type: SourceRemote, BaseURL: "https://x.example", ProductID: testProductID},
		},
		{
			name:    "remote source with bad product id",
			source:  SourceData{Type: SourceRemote, BaseURL: "https://x.example", ProductID: "tank-1"},
			wantErr: "not a valid UUID",
		},
		{
			name:    "remote source with relative url",
			source:  SourceData{Type: SourceRemote, BaseURL: "/api", ProductID: testProductID},
			wantErr: "absolute URL",
		},
		{
			name:    "unknown source",
			source:  SourceData{Type: "kafka"},
			wantErr: "unsupported source type",
		},
		{
			name:    "cert without key",
			source:  SourceData{Type: SourceFile, Path: "data.json"},
			server:  ServerData{Cert: "cert.pem"},
			wantErr: "server.cert",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &ConfigData{Source: tt.source, Server: tt.server}
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	envFile := writeFile(t, ".env", "TANKWATCH_API_TOKEN=from-file\nTANKWATCH_PRODUCT_ID="+testProductID+"\n")
	t.Setenv(EnvBaseURL, "https://env.example.com")
	// t.Setenv restores these after the test; godotenv.Load writes them too
	t.Setenv(EnvAPIToken, "")
	t.Setenv(EnvProductID, "")
	os.Unsetenv(EnvAPIToken)
	os.Unsetenv(EnvProductID)

	cfg := &ConfigData{Source: SourceData{Type: SourceRemote, Token: "from-config"}}
	if err := ApplyEnv(cfg, envFile); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.Source.BaseURL != "https://env.example.com" {
		t.Errorf("Expected base URL from environment, got %q", cfg.Source.BaseURL)
	}
	if cfg.Source.Token != "from-file" {
		t.Errorf("Expected token from env file, got %q", cfg.Source.Token)
	}
	if cfg.Source.ProductID != testProductID {
		t.Errorf("Expected product id from env file, got %q", cfg.Source.ProductID)
	}
}

func TestApplyEnvMissingFile(t *testing.T) {
	cfg := &ConfigData{}
	if err := ApplyEnv(cfg, filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("A missing env file should be ignored, got %v", err)
	}
}
