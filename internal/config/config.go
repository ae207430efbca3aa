package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"CardWatch/internal/model"
)

const (
	DefaultCardEndpoint   = "http://www.edenred.pl/mobileapp/"
	DefaultCardSalt       = "f4a6?Sta+4"
	DefaultSMSAPIEndpoint = "https://ssl.smsapi.pl/sms.do"
	DefaultSMSSender      = "ECO"
)

// Config holds all application configuration.
type Config struct {
	Timezone string `yaml:"timezone"`
	Card     struct {
		Number   int64  `yaml:"number"`
		Endpoint string `yaml:"endpoint"`
		Salt     string `yaml:"salt"`
	} `yaml:"card"`
	SMS struct {
		To string `yaml:"to"`
	} `yaml:"sms"`
	SMSAPI struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Endpoint string `yaml:"endpoint"`
		Sender   string `yaml:"sender"`
	} `yaml:"smsapi"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`

	location *time.Location
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error: the environment alone is a complete source.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SMS_TO"); v != "" {
		cfg.SMS.To = v
	}
	if v := os.Getenv("CARD_NUMBER"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &model.ConfigurationError{Setting: "CARD_NUMBER", Reason: "must be an integer"}
		}
		cfg.Card.Number = n
	}
	if v := os.Getenv("SMSAPI_USERNAME"); v != "" {
		cfg.SMSAPI.Username = v
	}
	if v := os.Getenv("SMSAPI_PASSWORD"); v != "" {
		cfg.SMSAPI.Password = v
	}
	if v := os.Getenv("SMSAPI_ENDPOINT"); v != "" {
		cfg.SMSAPI.Endpoint = v
	}
	if v := os.Getenv("SMSAPI_FROM"); v != "" {
		cfg.SMSAPI.Sender = v
	}
	if v := os.Getenv("EDENRED_ENDPOINT"); v != "" {
		cfg.Card.Endpoint = v
	}
	if v := os.Getenv("EDENRED_SALT"); v != "" {
		cfg.Card.Salt = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Card.Endpoint == "" {
		cfg.Card.Endpoint = DefaultCardEndpoint
	}
	if cfg.Card.Salt == "" {
		cfg.Card.Salt = DefaultCardSalt
	}
	if cfg.SMSAPI.Endpoint == "" {
		cfg.SMSAPI.Endpoint = DefaultSMSAPIEndpoint
	}
	if cfg.SMSAPI.Sender == "" {
		cfg.SMSAPI.Sender = DefaultSMSSender
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and resolves the timezone.
func (c *Config) Validate() error {
	if c.Timezone == "" {
		return &model.ConfigurationError{Setting: "TIMEZONE"}
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return &model.ConfigurationError{Setting: "TIMEZONE", Reason: err.Error()}
	}
	c.location = loc

	if c.Database.SQLitePath == "" {
		return &model.ConfigurationError{Setting: "DATABASE_URL"}
	}
	if c.SMS.To == "" {
		return &model.ConfigurationError{Setting: "SMS_TO"}
	}
	if c.Card.Number == 0 {
		return &model.ConfigurationError{Setting: "CARD_NUMBER"}
	}
	if c.SMSAPI.Username == "" {
		return &model.ConfigurationError{Setting: "SMSAPI_USERNAME"}
	}
	if c.SMSAPI.Password == "" {
		return &model.ConfigurationError{Setting: "SMSAPI_PASSWORD"}
	}
	return nil
}

// Location returns the display timezone resolved by Validate, or UTC before that.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
