package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// TMDb
	TMDBAPIKey string

	// Episode engine
	NewEpisodeWindowDays    int // Trailing window for "new" episodes (default: 7)
	EpisodeCacheTTLHours    int // TTL for per-user episode data (default: 24)
	MetadataCacheTTLMinutes int // TTL for show/season/candidate metadata (default: 60)

	// Scheduler
	RefreshIntervalHours int // Hours between episode-data warm runs (default: 1)

	// Server
	ServerPort string

	// Paths
	AllowlistFile string // $CONFIG_DIR/allowlist.txt
	DatabaseFile  string // $CONFIG_DIR/episodarr.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("NEW_EPISODE_WINDOW_DAYS", 7)
	viper.SetDefault("EPISODE_CACHE_TTL_HOURS", 24)
	viper.SetDefault("METADATA_CACHE_TTL_MINUTES", 60)
	viper.SetDefault("REFRESH_INTERVAL_HOURS", 1)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "episodarr")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		// TMDb
		TMDBAPIKey: viper.GetString("TMDB_API_KEY"),

		// Episode engine
		NewEpisodeWindowDays:    viper.GetInt("NEW_EPISODE_WINDOW_DAYS"),
		EpisodeCacheTTLHours:    viper.GetInt("EPISODE_CACHE_TTL_HOURS"),
		MetadataCacheTTLMinutes: viper.GetInt("METADATA_CACHE_TTL_MINUTES"),

		// Scheduler
		RefreshIntervalHours: viper.GetInt("REFRESH_INTERVAL_HOURS"),

		// Server
		ServerPort: viper.GetString("SERVER_PORT"),

		// Paths
		AllowlistFile: filepath.Join(configDir, "allowlist.txt"),
		DatabaseFile:  filepath.Join(configDir, "episodarr.db"),

		// Logging
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields
	if config.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY is required")
	}
	if config.NewEpisodeWindowDays <= 0 {
		return nil, fmt.Errorf("NEW_EPISODE_WINDOW_DAYS must be positive")
	}
	if config.EpisodeCacheTTLHours <= 0 {
		return nil, fmt.Errorf("EPISODE_CACHE_TTL_HOURS must be positive")
	}
	if config.MetadataCacheTTLMinutes <= 0 {
		return nil, fmt.Errorf("METADATA_CACHE_TTL_MINUTES must be positive")
	}

	return config, nil
}
