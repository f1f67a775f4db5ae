package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/do4u-project/do4u/pkg/models"
)

const (
	KeyAPIURL     = "api-url"
	KeyDataDir    = "data-dir"
	KeyViewerID   = "viewer-id"
	KeyViewerRole = "viewer-role"

	DefaultAPIURL = "http://localhost:8000"
)

// Load reads client configuration from (in ascending precedence) defaults, an
// optional .env file in the working directory, DO4U_* environment variables,
// and any flags already bound into viper by the CLI.
func Load() {
	// Optional developer convenience; a missing .env is not an error.
	_ = godotenv.Load()

	viper.SetEnvPrefix("DO4U")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault(KeyAPIURL, DefaultAPIURL)
	viper.SetDefault(KeyDataDir, defaultDataDir())
	viper.SetDefault(KeyViewerRole, string(models.RoleUser))
}

// APIURL is the base URL of the Do4U backend, without a trailing slash.
func APIURL() string {
	return strings.TrimRight(viper.GetString(KeyAPIURL), "/")
}

// DataDir is where the session store keeps its token and read-id files.
func DataDir() string {
	return viper.GetString(KeyDataDir)
}

// Viewer is the identity the CLI renders cards for. The backend is the actual
// authority; this only drives which affordances are shown.
func Viewer() models.Viewer {
	return models.Viewer{
		ID:   viper.GetString(KeyViewerID),
		Role: models.Role(viper.GetString(KeyViewerRole)),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".do4u"
	}
	return filepath.Join(home, ".do4u")
}
