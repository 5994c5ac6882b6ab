package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LinkedIn struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"linkedin"`
	Search struct {
		Keyword  string `yaml:"keyword"`
		MaxPages int    `yaml:"max_pages"`
	} `yaml:"search"`
	Limits struct {
		DailyActions   int `yaml:"daily_actions"`
		MaxLeadsPerRun int `yaml:"max_leads_per_run"`
	} `yaml:"limits"`
	Pacing struct {
		PreActionMinMs int `yaml:"pre_action_min_ms"`
		PreActionMaxMs int `yaml:"pre_action_max_ms"`
		LeadDelayMinMs int `yaml:"lead_delay_min_ms"`
		LeadDelayMaxMs int `yaml:"lead_delay_max_ms"`
	} `yaml:"pacing"`
	Browser struct {
		Headless    bool   `yaml:"headless"`
		UserAgent   string `yaml:"user_agent"`
		UserDataDir string `yaml:"user_data_dir"`
	} `yaml:"browser"`
	Diagnostics struct {
		Dir string `yaml:"dir"`
	} `yaml:"diagnostics"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Server struct {
		Addr         string `yaml:"addr"`
		ScheduleCron string `yaml:"schedule_cron"`
	} `yaml:"server"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional
	cfg := defaultConfig()
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnvOverrides(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	var cfg Config
	cfg.LinkedIn.BaseURL = "https://www.linkedin.com/"
	cfg.Search.Keyword = ""
	cfg.Search.MaxPages = 1
	cfg.Limits.DailyActions = 50
	cfg.Limits.MaxLeadsPerRun = 50
	cfg.Pacing.PreActionMinMs = 2000
	cfg.Pacing.PreActionMaxMs = 5000
	cfg.Pacing.LeadDelayMinMs = 60000
	cfg.Pacing.LeadDelayMaxMs = 120000
	cfg.Browser.Headless = false
	cfg.Browser.UserDataDir = "user_data"
	cfg.Diagnostics.Dir = "public"
	cfg.Database.Path = "leads.db"
	cfg.Server.Addr = ":3000"
	cfg.Logging.Level = "info"
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PROSPECTOR_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PROSPECTOR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PROSPECTOR_HEADLESS"); v == "1" || v == "true" {
		cfg.Browser.Headless = true
	}
	if v := os.Getenv("PROSPECTOR_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

func validate(cfg *Config) error {
	if cfg.LinkedIn.BaseURL == "" {
		return errors.New("linkedin.base_url is required")
	}
	if cfg.Limits.DailyActions <= 0 {
		return errors.New("limits.daily_actions must be > 0")
	}
	if cfg.Limits.MaxLeadsPerRun <= 0 {
		return errors.New("limits.max_leads_per_run must be > 0")
	}
	if cfg.Search.MaxPages <= 0 {
		return errors.New("search.max_pages must be > 0")
	}
	if cfg.Pacing.PreActionMaxMs < cfg.Pacing.PreActionMinMs {
		return errors.New("pacing.pre_action_max_ms must be >= pre_action_min_ms")
	}
	if cfg.Pacing.LeadDelayMaxMs < cfg.Pacing.LeadDelayMinMs {
		return errors.New("pacing.lead_delay_max_ms must be >= lead_delay_min_ms")
	}
	return nil
}
