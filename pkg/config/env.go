package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override the loaded configuration
const (
	EnvSourcePath  = "TANKWATCH_SOURCE_PATH"
	EnvBaseURL     = "TANKWATCH_BASE_URL"
	EnvProductID   = "TANKWATCH_PRODUCT_ID"
	EnvAPIToken    = "TANKWATCH_API_TOKEN"
	EnvServerToken = "TANKWATCH_SERVER_TOKEN"
)

// ApplyEnv loads envFile (if it exists) into the process environment and then
// overlays any TANKWATCH_* variables onto cfg.  Variables already set in the
// environment take precedence over the file.  An empty envFile skips the file.
func ApplyEnv(cfg *ConfigData, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading env file %s: %w", envFile, err)
		}
	}

	overlay := []struct {
		name   string
		target *string
	}{
		{EnvSourcePath, &cfg.Source.Path},
		{EnvBaseURL, &cfg.Source.BaseURL},
		{EnvProductID, &cfg.Source.ProductID},
		{EnvAPIToken, &cfg.Source.Token},
		{EnvServerToken, &cfg.Server.AuthToken},
	}
	for _, o := range overlay {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.target = v
		}
	}
	return nil
}
