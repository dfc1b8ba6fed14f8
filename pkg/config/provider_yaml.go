package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Source SourceYAML `yaml:"source"`
		Server ServerYAML `yaml:"server,omitempty"`
	}

	err = yaml.UnmarshalStrict(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	config := &ConfigData{
		Source: SourceData{
			Type:      yamlConfig.Source.Type,
			Path:      yamlConfig.Source.Path,
			BaseURL:   yamlConfig.Source.BaseURL,
			ProductID: yamlConfig.Source.ProductID,
			Token:     yamlConfig.Source.Token,
			UserAgent: yamlConfig.Source.UserAgent,
		},
		Server: ServerData{
			ListenAddr:     yamlConfig.Server.ListenAddr,
			Port:           yamlConfig.Server.Port,
			Cert:           yamlConfig.Server.Cert,
			Key:            yamlConfig.Server.Key,
			AuthToken:      yamlConfig.Server.AuthToken,
			AllowedOrigins: yamlConfig.Server.AllowedOrigins,
		},
	}

	y.config = config
	return config, nil
}

// GetSource returns the source configuration
func (y *YAMLProvider) GetSource() (*SourceData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Source, nil
}

// GetServer returns the REST server configuration
func (y *YAMLProvider) GetServer() (*ServerData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Server, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags
type SourceYAML struct {
	Type      string `yaml:"type"`
	Path      string `yaml:"path,omitempty"`
	BaseURL   string `yaml:"base-url,omitempty"`
	ProductID string `yaml:"product-id,omitempty"`
	Token     string `yaml:"token,omitempty"`
	UserAgent string `yaml:"user-agent,omitempty"`
}

type ServerYAML struct {
	ListenAddr     string   `yaml:"listen-addr,omitempty"`
	Port           int      `yaml:"port,omitempty"`
	Cert           string   `yaml:"cert,omitempty"`
	Key            string   `yaml:"key,omitempty"`
	AuthToken      string   `yaml:"auth-token,omitempty"`
	AllowedOrigins []string `yaml:"allowed-origins,omitempty"`
}
