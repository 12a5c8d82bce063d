package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"receiptRelay/internal/models"
)

const (
	defaultAddress        = ":4001"
	defaultTimeoutSeconds = 15
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
	AppStore struct {
		SharedSecret   string `yaml:"shared_secret"`
		ProductionURL  string `yaml:"production_url"`
		SandboxURL     string `yaml:"sandbox_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"appstore"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// Timeout is the upper bound for a single verifyReceipt call.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.AppStore.TimeoutSeconds) * time.Second
}

// LoadConfig reads the YAML file at path (a missing file is not an error),
// applies environment overrides and defaults, then validates the result.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("unmarshal config data: %w", err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)

	if strings.TrimSpace(cfg.AppStore.SharedSecret) == "" {
		return Config{}, fmt.Errorf("appstore.shared_secret / APPSTORE_SHARED_SECRET: %w", models.ErrMissingSecret)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Address = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("APPSTORE_SHARED_SECRET"); v != "" {
		cfg.AppStore.SharedSecret = v
	}
	if v := os.Getenv("APPSTORE_PRODUCTION_URL"); v != "" {
		cfg.AppStore.ProductionURL = v
	}
	if v := os.Getenv("APPSTORE_SANDBOX_URL"); v != "" {
		cfg.AppStore.SandboxURL = v
	}
	if v := os.Getenv("APPSTORE_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse APPSTORE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.AppStore.TimeoutSeconds = secs
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.AllowedOrigins = origins
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultAddress
	}
	if cfg.AppStore.TimeoutSeconds <= 0 {
		cfg.AppStore.TimeoutSeconds = defaultTimeoutSeconds
	}
}
