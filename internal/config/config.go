package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		LangsTTL string `yaml:"langs_ttl"`
	} `yaml:"redis"`
	Quiz struct {
		MathColor        string `yaml:"math_color"`
		MathTimeout      string `yaml:"math_timeout"`
		CodeGuessColor   string `yaml:"codeguess_color"`
		CodeGuessTimeout string `yaml:"codeguess_timeout"`
		CodeGuessChoices int    `yaml:"codeguess_choices"`
	} `yaml:"quiz"`
	Imagine struct {
		APIBase      string `yaml:"api_base"`
		TokenURL     string `yaml:"token_url"`
		APIKey       string `yaml:"api_key"`
		EnvFile      string `yaml:"env_file"`
		EnvKey       string `yaml:"env_key"`
		PollInterval string `yaml:"poll_interval"`
		MaxPolls     int    `yaml:"max_polls"`
	} `yaml:"imagine"`
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

// Duration parses a duration string or returns the fallback if empty or
// malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
