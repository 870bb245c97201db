// Package config loads process configuration from .env, the environment
// and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every load or validation failure.
var ErrConfiguration = errors.New("configuration error")

type Config struct {
	HTTPPort     string `mapstructure:"http_port" validate:"required"`
	APIMasterKey string `mapstructure:"api_master_key" validate:"required"`
	SaltSecret   string `mapstructure:"app_salt_secret"`

	LogLevel  string `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=json console"`

	AggregateStore string `mapstructure:"aggregate_store" validate:"oneof=scylla memory"`
	ScyllaHosts    string `mapstructure:"scylla_hosts" validate:"required"`
	ScyllaKeyspace string `mapstructure:"scylla_keyspace" validate:"required"`

	MongoURL      string `mapstructure:"mongo_url" validate:"required"`
	MongoDatabase string `mapstructure:"mongo_database" validate:"required"`

	RedisURL      string        `mapstructure:"redis_url"`
	StatsCacheTTL time.Duration `mapstructure:"stats_cache_ttl" validate:"min=0"`

	AIProvider string        `mapstructure:"ai_provider" validate:"oneof=none openai gemini"`
	AIAPIKey   string        `mapstructure:"ai_api_key" validate:"required_unless=AIProvider none"`
	AIModel    string        `mapstructure:"ai_model"`
	AITimeout  time.Duration `mapstructure:"ai_timeout" validate:"gt=0"`

	DefaultVerdictOnUncertainty string `mapstructure:"default_verdict_on_uncertainty" validate:"oneof=allow warn"`

	CallerIDURL     string        `mapstructure:"caller_id_url" validate:"omitempty,url"`
	CallerIDAPIKey  string        `mapstructure:"caller_id_api_key"`
	CallerIDTimeout time.Duration `mapstructure:"caller_id_timeout" validate:"gt=0"`

	BulkConcurrency int `mapstructure:"bulk_concurrency" validate:"min=1,max=64"`
}

var defaults = map[string]any{
	"http_port":                      ":8080",
	"api_master_key":                 "",
	"app_salt_secret":                "",
	"log_level":                      "info",
	"log_format":                     "json",
	"aggregate_store":                "scylla",
	"scylla_hosts":                   "localhost",
	"scylla_keyspace":                "spamguard",
	"mongo_url":                      "mongodb://localhost:27017",
	"mongo_database":                 "spamguard",
	"redis_url":                      "",
	"stats_cache_ttl":                5 * time.Minute,
	"ai_provider":                    "none",
	"ai_api_key":                     "",
	"ai_model":                       "",
	"ai_timeout":                     8 * time.Second,
	"default_verdict_on_uncertainty": "allow",
	"caller_id_url":                  "",
	"caller_id_api_key":              "",
	"caller_id_timeout":              5 * time.Second,
	"bulk_concurrency":               4,
}

// Load reads an optional .env file, then the environment over defaults.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil
	cfg, err := FromViper(viper.New())
	return cfg, dotenv, err
}

// FromViper binds every known key to its upper-case env name on v and
// returns the validated result.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, def := range defaults {
		v.SetDefault(k, def)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	cfg.AIProvider = strings.ToLower(cfg.AIProvider)
	cfg.AggregateStore = strings.ToLower(cfg.AggregateStore)
	cfg.DefaultVerdictOnUncertainty = strings.ToLower(cfg.DefaultVerdictOnUncertainty)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return &cfg, nil
}

// ScyllaHostList splits the comma separated host setting.
func (c *Config) ScyllaHostList() []string {
	var hosts []string
	for _, h := range strings.Split(c.ScyllaHosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
