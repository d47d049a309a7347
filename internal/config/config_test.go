package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Worker.PoolSize != 4 {
		t.Errorf("expected default pool size 4, got %d", cfg.Worker.PoolSize)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("expected default store backend memory, got %q", cfg.Store.Backend)
	}
	if cfg.Store.Retention != time.Hour {
		t.Errorf("expected default retention 1h, got %s", cfg.Store.Retention)
	}
	if cfg.Fetch.MaxDepth != 3 {
		t.Errorf("expected default max depth 3, got %d", cfg.Fetch.MaxDepth)
	}
	if cfg.Cluster.Model != "gpt-4o" {
		t.Errorf("expected default model gpt-4o, got %q", cfg.Cluster.Model)
	}
	if cfg.Cluster.MaxClusters != 5 {
		t.Errorf("expected default max clusters 5, got %d", cfg.Cluster.MaxClusters)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("WORKER_POOL_SIZE", "16")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("FETCH_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Worker.PoolSize != 16 {
		t.Errorf("expected pool size 16, got %d", cfg.Worker.PoolSize)
	}
	if cfg.Store.Backend != "redis" {
		t.Errorf("expected redis backend, got %q", cfg.Store.Backend)
	}
	if cfg.Fetch.Timeout != 5*time.Second {
		t.Errorf("expected 5s fetch timeout, got %s", cfg.Fetch.Timeout)
	}
}

func TestAPIKeyWarning(t *testing.T) {
	cases := []struct {
		name   string
		key    string
		warned bool
	}{
		{"empty", "", true},
		{"stripe test key", "sk_test_abcdefghijklmnopqrst", true},
		{"stripe live key", "sk_live_abcdefghijklmnopqrst", true},
		{"too short", "sk-short", true},
		{"plausible", "sk-proj-abcdefghijklmnopqrstuvwxyz", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			warning := ClusterConfig{APIKey: tc.key}.APIKeyWarning()
			if tc.warned && warning == "" {
				t.Error("expected a warning")
			}
			if !tc.warned && warning != "" {
				t.Errorf("unexpected warning %q", warning)
			}
		})
	}
}
