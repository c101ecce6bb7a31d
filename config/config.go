package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned when no AccuWeather API key is configured.
var ErrMissingAPIKey = errors.New("ACCUWEATHER_API_KEY not set")

const envPrefix = "WEATHER_NOTIFIER"

type Config struct {
	Weather  WeatherConfig  `mapstructure:"weather"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	API      APIConfig      `mapstructure:"api"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Database DatabaseConfig `mapstructure:"database"`
}

type WeatherConfig struct {
	APIKey      string        `mapstructure:"api_key" validate:"required"`
	LocationKey string        `mapstructure:"location_key" validate:"required"`
	BaseURL     string        `mapstructure:"base_url" validate:"required,url"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type NotifierConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
	Desktop  bool          `mapstructure:"desktop"`
	AppName  string        `mapstructure:"app_name"`
	Icon     string        `mapstructure:"icon"`
}

type APIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address" validate:"required_if=Enabled true"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker" validate:"required_if=Enabled true"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// FieldError names a setting that failed validation.
type FieldError struct {
	Field string
	Rule  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid config: %s failed %q", e.Field, e.Rule)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.location_key", "178086")
	v.SetDefault("weather.base_url", "http://dataservice.accuweather.com")
	v.SetDefault("weather.timeout", "10s")
	v.SetDefault("notifier.interval", "300s")
	v.SetDefault("notifier.desktop", true)
	v.SetDefault("notifier.app_name", "weather-notifier")
	v.SetDefault("notifier.icon", "weather-severe-alert")
	v.SetDefault("api.enabled", false)
	v.SetDefault("api.address", "127.0.0.1:8046")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic_prefix", "weather")
	v.SetDefault("mqtt.client_id", "weather-notifier")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.path", "./weather-notifier.db")
}

// Load reads .env, the config file and the environment, in increasing order
// of precedence, and validates the result.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/weather-notifier")
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("weather.api_key", "ACCUWEATHER_API_KEY", envPrefix+"_WEATHER_API_KEY"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the required settings. A missing API key is reported as
// ErrMissingAPIKey.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if fe.StructNamespace() == "Config.Weather.APIKey" {
			return ErrMissingAPIKey
		}
	}
	fe := verrs[0]
	return &FieldError{Field: fe.Namespace(), Rule: fe.Tag()}
}
