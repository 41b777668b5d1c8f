package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"seismic-stations/internal/storage"
)

// Backend names accepted in STORAGE_BACKEND.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config holds storage, logging and server settings.
type Config struct {
	Backend   string
	LocalPath string
	S3        S3Config
	LogLevel  string
	Port      int
}

// S3Config holds the object-store settings.
type S3Config struct {
	BucketName      string
	CollectionKey   string
	CSVKey          string
	DefaultRegion   string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// Options converts the settings into storage options.
func (c S3Config) Options() storage.S3Options {
	return storage.S3Options{
		Bucket:          c.BucketName,
		CollectionKey:   c.CollectionKey,
		CSVKey:          c.CSVKey,
		DefaultRegion:   c.DefaultRegion,
		Endpoint:        c.Endpoint,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		UsePathStyle:    c.UsePathStyle,
	}
}

// Load loads configuration from environment variables or a .env file.
// For local development, it attempts to load from .env file first.
// For production, it relies on environment variables set by the platform.
func Load() (*Config, error) {
	cfg := Read()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for callers that apply their own
// overrides first.
func Read() *Config {
	// Ignore error if file doesn't exist (expected in production)
	_ = godotenv.Load()

	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("STORAGE_BACKEND", BackendLocal)
	v.SetDefault("LOCAL_PATH", storage.DefaultLocalPath)
	v.SetDefault("S3_COLLECTION_KEY", storage.DefaultCollectionKey)
	v.SetDefault("S3_CSV_KEY", storage.DefaultCSVKey)
	v.SetDefault("S3_DEFAULT_REGION", storage.DefaultRegion)
	v.SetDefault("S3_USE_PATH_STYLE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", 8080)

	for _, key := range []string{"S3_BUCKET_NAME", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY"} {
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()
	return v
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Backend:   strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_BACKEND"))),
		LocalPath: v.GetString("LOCAL_PATH"),
		S3: S3Config{
			BucketName:      v.GetString("S3_BUCKET_NAME"),
			CollectionKey:   v.GetString("S3_COLLECTION_KEY"),
			CSVKey:          v.GetString("S3_CSV_KEY"),
			DefaultRegion:   v.GetString("S3_DEFAULT_REGION"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			UsePathStyle:    v.GetBool("S3_USE_PATH_STYLE"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
		Port:     v.GetInt("PORT"),
	}
}

// Validate checks that the selected backend has everything it needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.LocalPath == "" {
			return fmt.Errorf("%w: LOCAL_PATH must not be empty", storage.ErrConfig)
		}
	case BackendS3:
		var missing []string
		if c.S3.BucketName == "" {
			missing = append(missing, "S3_BUCKET_NAME")
		}
		if c.S3.AccessKeyID != "" && c.S3.SecretAccessKey == "" {
			missing = append(missing, "S3_SECRET_ACCESS_KEY")
		}
		if c.S3.SecretAccessKey != "" && c.S3.AccessKeyID == "" {
			missing = append(missing, "S3_ACCESS_KEY_ID")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: missing required environment variables: %v", storage.ErrConfig, missing)
		}
	default:
		return fmt.Errorf("%w: unknown STORAGE_BACKEND %q (want %q or %q)", storage.ErrConfig, c.Backend, BackendLocal, BackendS3)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: PORT %d out of range", storage.ErrConfig, c.Port)
	}
	return nil
}

// OpenStore constructs the backend selected by c.Backend.
func OpenStore(ctx context.Context, c *Config) (storage.Store, error) {
	switch c.Backend {
	case BackendLocal:
		return storage.NewLocalStorage(c.LocalPath), nil
	case BackendS3:
		return storage.NewS3Storage(ctx, c.S3.Options())
	default:
		return nil, fmt.Errorf("%w: unknown STORAGE_BACKEND %q", storage.ErrConfig, c.Backend)
	}
}
