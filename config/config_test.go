package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.DBName != "beatforge" {
		t.Errorf("DBName = %q, want beatforge", cfg.DBName)
	}
	if cfg.DownloadTTL != 30*time.Minute {
		t.Errorf("DownloadTTL = %v, want 30m", cfg.DownloadTTL)
	}
	if cfg.SweepInterval != time.Minute {
		t.Errorf("SweepInterval = %v, want 1m", cfg.SweepInterval)
	}
	if cfg.SyncMaxAttempts != 3 {
		t.Errorf("SyncMaxAttempts = %d, want 3", cfg.SyncMaxAttempts)
	}
	if cfg.SyncBaseDelay != 500*time.Millisecond {
		t.Errorf("SyncBaseDelay = %v, want 500ms", cfg.SyncBaseDelay)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("DB_NAME", "beats_test")
	t.Setenv("DOWNLOAD_TTL", "15m")
	t.Setenv("SYNC_MAX_ATTEMPTS", "5")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("REDIS_DB", "2")

	cfg := Load()

	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want :9999", cfg.HTTPAddr)
	}
	if cfg.DBName != "beats_test" {
		t.Errorf("DBName = %q, want beats_test", cfg.DBName)
	}
	if cfg.DownloadTTL != 15*time.Minute {
		t.Errorf("DownloadTTL = %v, want 15m", cfg.DownloadTTL)
	}
	if cfg.SyncMaxAttempts != 5 {
		t.Errorf("SyncMaxAttempts = %d, want 5", cfg.SyncMaxAttempts)
	}
	if !cfg.MinioUseSSL {
		t.Error("MinioUseSSL should be true")
	}
	if cfg.RedisDB != 2 {
		t.Errorf("RedisDB = %d, want 2", cfg.RedisDB)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SYNC_MAX_ATTEMPTS", "lots")
	t.Setenv("DOWNLOAD_TTL", "soon")
	t.Setenv("MINIO_USE_SSL", "yep")

	cfg := Load()

	if cfg.SyncMaxAttempts != 3 {
		t.Errorf("SyncMaxAttempts = %d, want default 3", cfg.SyncMaxAttempts)
	}
	if cfg.DownloadTTL != 30*time.Minute {
		t.Errorf("DownloadTTL = %v, want default 30m", cfg.DownloadTTL)
	}
	if cfg.MinioUseSSL {
		t.Error("MinioUseSSL should fall back to false")
	}
}
