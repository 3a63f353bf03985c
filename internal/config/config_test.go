package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Ensure defaults when env vars are empty.
	for _, key := range []string{
		"PORT", "DATABASE_URL", "LOG_LEVEL", "SEED", "OPENAI_API_KEY", "OPENAI_SLEEP_INSIGHTS_MODEL",
		"ALARM_CHECK_INTERVAL", "SAMPLE_INTERVAL", "MQTT_URL", "REDIS_URL", "CLICKHOUSE_ADDR", "CLOUD_BASE_URL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" || cfg.DatabaseURL == "" || cfg.LogLevel != "info" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Seed {
		t.Fatalf("expected Seed default false")
	}
	if cfg.Tracking.AlarmCheckInterval != time.Minute || cfg.Tracking.SampleInterval != 30*time.Second {
		t.Errorf("tracking defaults = %+v", cfg.Tracking)
	}
	if cfg.MQTT.TopicPrefix != "sleep" || cfg.Sync.Attempts != 4 || cfg.Sync.MaxDelay != 2*time.Minute || cfg.Sync.ResyncInterval != 10*time.Minute {
		t.Errorf("integration defaults not applied: %+v %+v", cfg.MQTT, cfg.Sync)
	}

	// Custom values override defaults
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SEED", "true")
	t.Setenv("OPENAI_API_KEY", "key")
	t.Setenv("OPENAI_SLEEP_INSIGHTS_MODEL", "model")
	t.Setenv("ALARM_CHECK_INTERVAL", "15s")
	t.Setenv("MQTT_URL", "tcp://broker:1883")
	t.Setenv("CLICKHOUSE_ADDR", "clickhouse:9000")

	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9090" || cfg.DatabaseURL != "postgres://example" || cfg.LogLevel != "debug" || !cfg.Seed {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.OpenAIAPIKey != "key" || cfg.OpenAISleepInsightsModel != "model" {
		t.Fatalf("openai env overrides missing: %+v", cfg)
	}
	if cfg.Tracking.AlarmCheckInterval != 15*time.Second {
		t.Errorf("AlarmCheckInterval = %v, want 15s", cfg.Tracking.AlarmCheckInterval)
	}
	if cfg.MQTT.URL != "tcp://broker:1883" || cfg.ClickHouse.Addr != "clickhouse:9000" {
		t.Errorf("integration overrides missing: %+v %+v", cfg.MQTT, cfg.ClickHouse)
	}
}

func TestLoadRejectsBadInterval(t *testing.T) {
	t.Setenv("ALARM_CHECK_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted an unparsable duration")
	}

	t.Setenv("ALARM_CHECK_INTERVAL", "0s")
	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted a zero check interval")
	}
}
