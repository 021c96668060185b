package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		BaseURL        string   `yaml:"base_url"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		// Dirs are searched in order; the first file hit wins.
		Dirs []string `yaml:"dirs"`
		TTL  string   `yaml:"ttl"`
	} `yaml:"quiz"`
	Results struct {
		// File backs the JSON-file result sink when Postgres is not
		// configured.
		File string `yaml:"file"`
	} `yaml:"results"`
	Links struct {
		Plans       map[string]int `yaml:"plans"`
		DefaultPlan string         `yaml:"default_plan"`
	} `yaml:"links"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// PlanLimits returns the configured plan table, defaulting to a single
// free plan when none is configured.
func (c Config) PlanLimits() (map[string]int, string) {
	plans := c.Links.Plans
	if len(plans) == 0 {
		plans = map[string]int{"free": 50}
	}
	defaultPlan := c.Links.DefaultPlan
	if defaultPlan == "" {
		defaultPlan = "free"
	}
	if _, ok := plans[defaultPlan]; !ok {
		for name := range plans {
			defaultPlan = name
			break
		}
	}
	return plans, defaultPlan
}
