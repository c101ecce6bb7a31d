package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ACCUWEATHER_API_KEY", "")
	t.Setenv("WEATHER_NOTIFIER_WEATHER_API_KEY", "")
	t.Setenv("WEATHER_NOTIFIER_WEATHER_LOCATION_KEY", "")
	t.Setenv("WEATHER_NOTIFIER_NOTIFIER_INTERVAL", "")
	t.Setenv("WEATHER_NOTIFIER_MQTT_ENABLED", "")
	t.Setenv("WEATHER_NOTIFIER_MQTT_BROKER", "")
}

func TestLoadMissingAPIKey(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "weather:\n  location_key: \"178086\"\n")

	_, err := Load(path)
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ACCUWEATHER_API_KEY", "secret")
	path := writeConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Weather.APIKey != "secret" {
		t.Errorf("expected api key from env, got %q", cfg.Weather.APIKey)
	}
	if cfg.Weather.LocationKey != "178086" {
		t.Errorf("expected default location 178086, got %q", cfg.Weather.LocationKey)
	}
	if cfg.Weather.BaseURL != "http://dataservice.accuweather.com" {
		t.Errorf("unexpected base url %q", cfg.Weather.BaseURL)
	}
	if cfg.Notifier.Interval != 300*time.Second {
		t.Errorf("expected 300s interval, got %v", cfg.Notifier.Interval)
	}
	if cfg.Weather.Timeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", cfg.Weather.Timeout)
	}
	if !cfg.Notifier.Desktop {
		t.Error("desktop notifications should default to on")
	}
	if cfg.MQTT.Enabled || cfg.API.Enabled {
		t.Error("mqtt and api should default to off")
	}
	if !cfg.Database.Enabled || cfg.Database.Path == "" {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
weather:
  api_key: from-file
  location_key: "349727"
  timeout: 3s
notifier:
  interval: 60s
  desktop: false
mqtt:
  enabled: true
  broker: tcp://broker:1883
`)
	t.Setenv("WEATHER_NOTIFIER_NOTIFIER_INTERVAL", "2m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Weather.APIKey != "from-file" {
		t.Errorf("expected api key from file, got %q", cfg.Weather.APIKey)
	}
	if cfg.Weather.LocationKey != "349727" {
		t.Errorf("expected location from file, got %q", cfg.Weather.LocationKey)
	}
	if cfg.Weather.Timeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", cfg.Weather.Timeout)
	}
	if cfg.Notifier.Interval != 2*time.Minute {
		t.Errorf("expected env to override interval, got %v", cfg.Notifier.Interval)
	}
	if cfg.Notifier.Desktop {
		t.Error("expected desktop disabled from file")
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("unexpected mqtt config %+v", cfg.MQTT)
	}

	t.Setenv("ACCUWEATHER_API_KEY", "from-env")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Weather.APIKey != "from-env" {
		t.Errorf("expected env api key to win, got %q", cfg.Weather.APIKey)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("ACCUWEATHER_API_KEY", "secret")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for explicit missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Weather: WeatherConfig{
				APIKey:      "k",
				LocationKey: "178086",
				BaseURL:     "http://dataservice.accuweather.com",
				Timeout:     time.Second,
			},
			Notifier: NotifierConfig{Interval: time.Minute},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing location", mutate: func(c *Config) { c.Weather.LocationKey = "" }, field: "Config.Weather.LocationKey"},
		{name: "bad base url", mutate: func(c *Config) { c.Weather.BaseURL = "not a url" }, field: "Config.Weather.BaseURL"},
		{name: "zero interval", mutate: func(c *Config) { c.Notifier.Interval = 0 }, field: "Config.Notifier.Interval"},
		{name: "mqtt without broker", mutate: func(c *Config) { c.MQTT.Enabled = true }, field: "Config.MQTT.Broker"},
		{name: "database without path", mutate: func(c *Config) { c.Database.Enabled = true }, field: "Config.Database.Path"},
		{name: "api without address", mutate: func(c *Config) { c.API.Enabled = true }, field: "Config.API.Address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FieldError, got %v", err)
			}
			if fe.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, fe.Field)
			}
		})
	}

	cfg := valid()
	cfg.Weather.APIKey = ""
	cfg.Weather.LocationKey = ""
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("missing api key must win over other errors, got %v", err)
	}
}
