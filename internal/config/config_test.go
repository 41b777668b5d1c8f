package config

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"seismic-stations/internal/storage"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STORAGE_BACKEND", "LOCAL_PATH", "S3_BUCKET_NAME", "S3_COLLECTION_KEY", "S3_CSV_KEY",
		"S3_DEFAULT_REGION", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
		"S3_USE_PATH_STYLE", "LOG_LEVEL", "PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendLocal {
		t.Errorf("Backend = %q, want local", cfg.Backend)
	}
	if cfg.LocalPath != "stations.json" {
		t.Errorf("LocalPath = %q", cfg.LocalPath)
	}
	if cfg.S3.CollectionKey != "stations.json" || cfg.S3.CSVKey != "Stations.csv" {
		t.Errorf("keys = %q, %q", cfg.S3.CollectionKey, cfg.S3.CSVKey)
	}
	if cfg.S3.DefaultRegion != "ap-northeast-1" {
		t.Errorf("DefaultRegion = %q", cfg.S3.DefaultRegion)
	}
	if cfg.LogLevel != "info" || cfg.Port != 8080 {
		t.Errorf("LogLevel = %q, Port = %d", cfg.LogLevel, cfg.Port)
	}
}

func TestLoadS3FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "S3")
	t.Setenv("S3_BUCKET_NAME", "quakes")
	t.Setenv("S3_CSV_KEY", "export/Stations.csv")
	t.Setenv("S3_ENDPOINT", "https://example.r2.cloudflarestorage.com")
	t.Setenv("S3_USE_PATH_STYLE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendS3 {
		t.Errorf("Backend = %q", cfg.Backend)
	}

	opts := cfg.S3.Options()
	if opts.Bucket != "quakes" || opts.CSVKey != "export/Stations.csv" || opts.CollectionKey != "stations.json" {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.Endpoint != "https://example.r2.cloudflarestorage.com" || !opts.UsePathStyle {
		t.Errorf("endpoint settings not applied: %+v", opts)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		set     map[string]any
		wantErr string
	}{
		{"unknown backend", map[string]any{"STORAGE_BACKEND": "ftp"}, "unknown STORAGE_BACKEND"},
		{"s3 without bucket", map[string]any{"STORAGE_BACKEND": "s3"}, "S3_BUCKET_NAME"},
		{"s3 half credentials", map[string]any{"STORAGE_BACKEND": "s3", "S3_BUCKET_NAME": "b", "S3_ACCESS_KEY_ID": "a"}, "S3_SECRET_ACCESS_KEY"},
		{"empty local path", map[string]any{"LOCAL_PATH": ""}, "LOCAL_PATH"},
		{"bad port", map[string]any{"PORT": 70000}, "PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			v := newViper()
			for k, val := range tt.set {
				v.Set(k, val)
			}

			_, err := FromViper(v)
			if !errors.Is(err, storage.ErrConfig) {
				t.Fatalf("error = %v, want ErrConfig", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestOpenStoreLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.json")
	v := viper.New()
	v.Set("STORAGE_BACKEND", "local")
	v.Set("LOCAL_PATH", path)
	v.Set("PORT", 8080)

	cfg, err := FromViper(v)
	if err != nil {
		t.Fatal(err)
	}

	store, err := OpenStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	local, ok := store.(*storage.LocalStorage)
	if !ok {
		t.Fatalf("OpenStore returned %T, want *storage.LocalStorage", store)
	}
	if local.Path() != path {
		t.Errorf("Path = %q, want %q", local.Path(), path)
	}

	got, err := store.Load(context.Background())
	if err != nil || len(got) != 0 {
		t.Errorf("Load on fresh store = (%v, %v)", got, err)
	}
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	_, err := OpenStore(context.Background(), &Config{Backend: "ftp"})
	if !errors.Is(err, storage.ErrConfig) {
		t.Errorf("error = %v, want ErrConfig", err)
	}
}
