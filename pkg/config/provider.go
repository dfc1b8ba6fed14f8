package config

import (
	"fmt"
	"net/url"

	"github.com/chrissnell/tankwatch/internal/constants"
	"github.com/google/uuid"
)

// Source types
const (
	SourceFile   = "file"
	SourceRemote = "remote"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetSource() (*SourceData, error)
	GetServer() (*ServerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Source SourceData `json:"source"`
	Server ServerData `json:"server,omitempty"`
}

// SourceData selects where sensor records come from.  Path is used by the
// file source; BaseURL, ProductID, Token and UserAgent by the remote source.
type SourceData struct {
	Type      string `json:"type"`
	Path      string `json:"path,omitempty"`
	BaseURL   string `json:"base_url,omitempty"`
	ProductID string `json:"product_id,omitempty"`
	Token     string `json:"token,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// ServerData holds the configuration for the REST API
type ServerData struct {
	ListenAddr     string   `json:"listen_addr,omitempty"`
	Port           int      `json:"port,omitempty"`
	Cert           string   `json:"cert,omitempty"`
	Key            string   `json:"key,omitempty"`
	AuthToken      string   `json:"auth_token,omitempty"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
}

// ApplyDefaults fills in anything left empty.
func (c *ConfigData) ApplyDefaults() {
	if c.Source.Type == "" {
		c.Source.Type = SourceFile
	}
	if c.Source.Type == SourceFile && c.Source.Path == "" {
		c.Source.Path = constants.DefaultSourcePath
	}
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = constants.UserAgent
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
}

// Validate checks that the selected source has what it needs.
func (c *ConfigData) Validate() error {
	switch c.Source.Type {
	case SourceFile:
		if c.Source.Path == "" {
			return fmt.Errorf("source.path is required for the file source")
		}
	case SourceRemote:
		if c.Source.BaseURL == "" {
			return fmt.Errorf("source.base_url is required for the remote source")
		}
		u, err := url.Parse(c.Source.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("source.base_url %q is not an absolute URL", c.Source.BaseURL)
		}
		if _, err := uuid.Parse(c.Source.ProductID); err != nil {
			return fmt.Errorf("source.product_id %q is not a valid UUID: %w", c.Source.ProductID, err)
		}
	default:
		return fmt.Errorf("unsupported source type: %q. Use 'file' or 'remote'", c.Source.Type)
	}

	if (c.Server.Cert == "") != (c.Server.Key == "") {
		return fmt.Errorf("server.cert and server.key must be set together")
	}
	return nil
}
