package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"netwatch/internal/domain"
)

// Config is the process configuration, read from an optional YAML file with
// environment overrides.
type Config struct {
	Addr        string `yaml:"addr" env:"NETWATCH_ADDR" env-default:"127.0.0.1:8080"`
	LogDir      string `yaml:"log_dir" env:"NETWATCH_LOG_DIR" env-default:"logs"`
	DataDir     string `yaml:"data_dir" env:"NETWATCH_DATA_DIR" env-default:"data"`
	TargetsFile string `yaml:"targets_file" env:"NETWATCH_TARGETS_FILE" env-default:"targets.json"`
	WebhookURL  string `yaml:"webhook_url" env:"NETWATCH_WEBHOOK_URL"`

	ProbeIntervalMs  int `yaml:"probe_interval_ms" env:"NETWATCH_PROBE_INTERVAL_MS" env-default:"60000"`
	SampleIntervalMs int `yaml:"sample_interval_ms" env:"NETWATCH_SAMPLE_INTERVAL_MS" env-default:"1000"`
	SlowThresholdMs  int `yaml:"slow_threshold_ms" env:"NETWATCH_SLOW_THRESHOLD_MS" env-default:"1000"`

	MaxEntriesPerChunk  int `yaml:"max_entries_per_chunk" env:"NETWATCH_MAX_ENTRIES_PER_CHUNK" env-default:"700"`
	MaxResultsPerTarget int `yaml:"max_results_per_target" env:"NETWATCH_MAX_RESULTS_PER_TARGET" env-default:"1000"`

	Concurrency     int `yaml:"concurrency" env:"NETWATCH_CONCURRENCY" env-default:"4"`
	NotifyAttempts  int `yaml:"notify_attempts" env:"NETWATCH_NOTIFY_ATTEMPTS" env-default:"3"`
	NotifyBackoffMs int `yaml:"notify_backoff_ms" env:"NETWATCH_NOTIFY_BACKOFF_MS" env-default:"500"`
}

// Load reads path when it exists, otherwise the environment alone.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
			return cfg, nil
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read config from env: %w", err)
	}
	return cfg, nil
}

func (c Config) ProbeInterval() time.Duration {
	return time.Duration(c.ProbeIntervalMs) * time.Millisecond
}

func (c Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalMs) * time.Millisecond
}

func (c Config) NotifyBackoff() time.Duration {
	return time.Duration(c.NotifyBackoffMs) * time.Millisecond
}

// TargetsDocument is the JSON document listing what to probe. The interval,
// when positive, overrides the configured probe interval.
type TargetsDocument struct {
	IntervalMs int             `json:"interval"`
	Targets    []domain.Target `json:"targets"`
}

// LoadTargets parses the targets document. A missing or malformed file is
// not fatal: the monitor runs with an empty target set so metric sampling
// continues, and the error tells the caller what to log.
func LoadTargets(path string) (TargetsDocument, error) {
	var doc TargetsDocument
	data, err := os.ReadFile(path)
	if err != nil {
		return TargetsDocument{}, fmt.Errorf("read targets file: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return TargetsDocument{}, fmt.Errorf("parse targets file: %w", err)
	}
	return doc, nil
}
