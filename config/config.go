// Package config loads wrapper settings from vhs.yaml and VHS_GO_*
// environment variables. Command-line flags take precedence over both.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/taminomara/go-vhs/internal/logger"
)

func Init() {
	viper.SetConfigName("vhs") // vhs.yaml
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "go-vhs"))
	}

	viper.SetEnvPrefix("VHS_GO")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Log.Debug("no config file found; using defaults")
	}

	viper.SetDefault("min_version", "0.5.0")
	viper.SetDefault("max_version", "")
	viper.SetDefault("cache_path", "")
	viper.SetDefault("timeout", 60*time.Second)
	viper.SetDefault("retries", 3)
}

// MinVersion is the minimal acceptable VHS version.
func MinVersion() string { return viper.GetString("min_version") }

// MaxVersion bounds acceptable VHS versions from above; empty means
// unbounded.
func MaxVersion() string { return viper.GetString("max_version") }

// CachePath is where downloaded binaries are stored; empty selects the
// library default.
func CachePath() string { return viper.GetString("cache_path") }

// Timeout bounds each GitHub API request.
func Timeout() time.Duration { return viper.GetDuration("timeout") }

// Retries is the number of attempts for each network operation.
func Retries() int { return viper.GetInt("retries") }

// GitHubToken authenticates GitHub API requests. GITHUB_TOKEN is handled
// separately as a fallback by the release source.
func GitHubToken() string { return viper.GetString("github_token") }
