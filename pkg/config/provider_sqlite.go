package config

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/chrissnell/tankwatch/pkg/migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Setting keys stored in the settings table
const (
	keySourceType    = "source.type"
	keySourcePath    = "source.path"
	keySourceBaseURL = "source.base_url"
	keySourceProduct = "source.product_id"
	keySourceToken   = "source.token"
	keySourceAgent   = "source.user_agent"
	keyServerListen  = "server.listen_addr"
	keyServerPort    = "server.port"
	keyServerCert    = "server.cert"
	keyServerKey     = "server.key"
	keyServerToken   = "server.auth_token"
	keyServerOrigins = "server.allowed_origins"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if err := migrateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate config database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func migrateSchema(db *sql.DB) error {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	return migrate.NewMigrator(db, migrate.NewFSProvider(sub, "schema_migrations"), nil).MigrateUp()
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	source, err := s.GetSource()
	if err != nil {
		return nil, fmt.Errorf("failed to load source config: %w", err)
	}

	server, err := s.GetServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return &ConfigData{Source: *source, Server: *server}, nil
}

// GetSource returns the source configuration from the database
func (s *SQLiteProvider) GetSource() (*SourceData, error) {
	settings, err := s.settings("source.")
	if err != nil {
		return nil, err
	}

	return &SourceData{
		Type:      settings[keySourceType],
		Path:      settings[keySourcePath],
		BaseURL:   settings[keySourceBaseURL],
		ProductID: settings[keySourceProduct],
		Token:     settings[keySourceToken],
		UserAgent: settings[keySourceAgent],
	}, nil
}

// GetServer returns the REST server configuration from the database
func (s *SQLiteProvider) GetServer() (*ServerData, error) {
	settings, err := s.settings("server.")
	if err != nil {
		return nil, err
	}

	server := &ServerData{
		ListenAddr: settings[keyServerListen],
		Cert:       settings[keyServerCert],
		Key:        settings[keyServerKey],
		AuthToken:  settings[keyServerToken],
	}

	if p := settings[keyServerPort]; p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", keyServerPort, p, err)
		}
		server.Port = port
	}

	if o := settings[keyServerOrigins]; o != "" {
		for _, origin := range strings.Split(o, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				server.AllowedOrigins = append(server.AllowedOrigins, origin)
			}
		}
	}

	return server, nil
}

func (s *SQLiteProvider) settings(prefix string) (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings WHERE key LIKE ? || '%'`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// IsReadOnly returns false since SQLite supports write operations
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the stored configuration with configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM settings`); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}

	values := map[string]string{
		keySourceType:    configData.Source.Type,
		keySourcePath:    configData.Source.Path,
		keySourceBaseURL: configData.Source.BaseURL,
		keySourceProduct: configData.Source.ProductID,
		keySourceToken:   configData.Source.Token,
		keySourceAgent:   configData.Source.UserAgent,
		keyServerListen:  configData.Server.ListenAddr,
		keyServerCert:    configData.Server.Cert,
		keyServerKey:     configData.Server.Key,
		keyServerToken:   configData.Server.AuthToken,
		keyServerOrigins: strings.Join(configData.Server.AllowedOrigins, ","),
	}
	if configData.Server.Port != 0 {
		values[keyServerPort] = strconv.Itoa(configData.Server.Port)
	}

	for key, value := range values {
		if value == "" {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
	}

	return tx.Commit()
}
