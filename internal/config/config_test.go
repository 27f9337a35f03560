package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("EVIDENT_CONFIG", "")
	t.Setenv("EVIDENT_JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without jwt secret")
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("EVIDENT_CONFIG", "")
	t.Setenv("EVIDENT_JWT_SECRET", "test-secret")
	t.Setenv("EVIDENT_JWT_ACCESS_TTL", "5m")
	t.Setenv("EVIDENT_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWT.AccessTTL.Std() != 5*time.Minute {
		t.Fatalf("access ttl not overridden: %v", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL.Std() != 7*24*time.Hour {
		t.Fatalf("refresh ttl default lost: %v", cfg.JWT.RefreshTTL)
	}
	if len(cfg.CORS.Origins) != 2 || cfg.CORS.Origins[1] != "https://b.example" {
		t.Fatalf("cors origins not parsed: %v", cfg.CORS.Origins)
	}
}

func TestYAMLFileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evident.yaml")
	body := []byte("jwt:\n  secret: from-file\n  access_ttl: 1h\nrag:\n  top_k: 9\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("EVIDENT_CONFIG", path)
	t.Setenv("EVIDENT_JWT_SECRET", "from-env")
	t.Setenv("EVIDENT_JWT_ACCESS_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Fatalf("env should win over file, got %q", cfg.JWT.Secret)
	}
	if cfg.JWT.AccessTTL.Std() != time.Hour {
		t.Fatalf("file value lost: %v", cfg.JWT.AccessTTL)
	}
	if cfg.RAG.TopK != 9 {
		t.Fatalf("rag top_k not read from file: %d", cfg.RAG.TopK)
	}
}
