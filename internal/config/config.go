package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds server configuration
type Config struct {
	Port           int           // Port to listen on
	Secret         string        // Secret key for verifying bearer tokens
	Env            string        // Environment (development | production)
	BaseURL        string        // Base URL used when building share URLs
	PurgeInterval  time.Duration // How often the purge worker runs
	PurgeRetention time.Duration // How long expired links are kept before deletion
	Storage        StorageConfig
}

func (c *Config) Log() {
	log.Info().
		Int("port", c.Port).
		Str("env", c.Env).
		Str("base_url", c.BaseURL).
		Str("storage_provider", c.Storage.Provider).
		Dur("purge_interval", c.PurgeInterval).
		Dur("purge_retention", c.PurgeRetention).
		Msg("server configuration")
}

type StorageConfig struct {
	// Provider type ("local" or "gcs")
	Provider string `json:"provider"`

	// Local storage config
	LocalPath string `json:"local_path,omitempty"`

	// GCS config
	ProjectID  string `json:"project_id,omitempty"`
	BucketName string `json:"bucket_name,omitempty"`
}

// NewConfig creates a server configuration from environment variables
func NewConfig() (*Config, error) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil || port <= 0 {
		log.Error().Err(err).Msg("invalid PORT environment variable")
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	secret := os.Getenv("SECRET")
	if secret == "" {
		log.Error().Msg("SECRET environment variable is required")
		return nil, fmt.Errorf("SECRET is required")
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "production"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost"
	}

	purgeInterval, err := parseDurationEnv("LINK_PURGE_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}

	purgeRetention, err := parseDurationEnv("LINK_PURGE_RETENTION", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	storageProvider := os.Getenv("STORAGE_PROVIDER")
	if storageProvider == "" {
		storageProvider = "local"
	}

	storageConfig := StorageConfig{
		Provider:   storageProvider,
		LocalPath:  os.Getenv("STORAGE_DIR"),
		ProjectID:  os.Getenv("GCS_PROJECT_ID"),
		BucketName: os.Getenv("GCS_BUCKET_NAME"),
	}

	if err := validateStorageConfig(storageConfig); err != nil {
		return nil, fmt.Errorf("invalid storage configuration: %w", err)
	}

	return &Config{
		Port:           port,
		Secret:         secret,
		Env:            env,
		BaseURL:        baseURL,
		PurgeInterval:  purgeInterval,
		PurgeRetention: purgeRetention,
		Storage:        storageConfig,
	}, nil
}

// validateStorageConfig ensures the storage configuration is valid
func validateStorageConfig(cfg StorageConfig) error {
	switch cfg.Provider {
	case "local":
		if cfg.LocalPath == "" {
			return fmt.Errorf("STORAGE_DIR is required for local storage")
		}
	case "gcs":
		if cfg.ProjectID == "" {
			return fmt.Errorf("GCS_PROJECT_ID is required for GCS storage")
		}
		if cfg.BucketName == "" {
			return fmt.Errorf("GCS_BUCKET_NAME is required for GCS storage")
		}
	default:
		return fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
	return nil
}

// parseDurationEnv reads a duration environment variable, falling back to a
// default when unset. Values without a unit are rejected rather than guessed.
func parseDurationEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Error().Err(err).Str("variable", name).Msg("invalid duration environment variable")
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}
