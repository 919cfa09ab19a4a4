package config

import (
	"os"
	"path/filepath"
	"testing"

	"netwatch/internal/domain"
)

func TestLoad_EnvAndDefaults(t *testing.T) {
	t.Setenv("NETWATCH_ADDR", ":9090")
	t.Setenv("NETWATCH_WEBHOOK_URL", "https://hooks.example.com/x")
	t.Setenv("NETWATCH_SLOW_THRESHOLD_MS", "1500")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.WebhookURL == "" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.SlowThresholdMs != 1500 {
		t.Fatalf("override wrong: %d", cfg.SlowThresholdMs)
	}
	// untouched fields keep their defaults
	if cfg.MaxEntriesPerChunk != 700 || cfg.MaxResultsPerTarget != 1000 || cfg.ProbeIntervalMs != 60000 {
		t.Fatalf("defaults wrong: %+v", cfg)
	}
}

func TestLoadTargets_ParsesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.json")
	doc := `{
	  "interval": 30000,
	  "targets": [
	    {"id": "api", "displayName": "Public API", "url": "https://example.com",
	     "method": "http-get", "timeoutMs": 5000, "expectedStatus": 200,
	     "headers": {"X-Token": "secret"}},
	    {"id": "gw", "url": "10.0.0.1", "method": "icmp"}
	  ]
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadTargets(path)
	if err != nil {
		t.Fatalf("load targets: %v", err)
	}
	if got.IntervalMs != 30000 || len(got.Targets) != 2 {
		t.Fatalf("document wrong: %+v", got)
	}
	api := got.Targets[0]
	if api.Method != domain.MethodHTTPGet || api.ExpectedStatus != 200 || api.Headers["X-Token"] != "secret" {
		t.Fatalf("target fields wrong: %+v", api)
	}
	if got.Targets[1].Method != domain.MethodICMP {
		t.Fatalf("icmp target wrong: %+v", got.Targets[1])
	}
}

func TestLoadTargets_MissingAndMalformed(t *testing.T) {
	if _, err := LoadTargets(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("missing file must report an error for the caller to log")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTargets(path); err == nil {
		t.Fatal("malformed file must report an error")
	}
}
