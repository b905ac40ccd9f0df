package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config defines the evtrack service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"EVTRACK_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"EVTRACK_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"EVTRACK_REDIS_ADDR"`
		Password string `yaml:"password" env:"EVTRACK_REDIS_PASSWORD"`
		TTL      int    `yaml:"ttlSeconds" env:"EVTRACK_REDIS_TTL"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret    string `yaml:"jwtSecret" env:"EVTRACK_JWT_SECRET"`
		TokenTTLMins int    `yaml:"tokenTtlMinutes" env:"EVTRACK_TOKEN_TTL"`
		BcryptCost   int    `yaml:"bcryptCost" env:"EVTRACK_BCRYPT_COST"`
	} `yaml:"auth"`
	Geocoder struct {
		BaseURL string `yaml:"baseUrl" env:"EVTRACK_GEOCODER_URL"`
		Country string `yaml:"country" env:"EVTRACK_GEOCODER_COUNTRY"`
	} `yaml:"geocoder"`
}

// Load reads configuration from YAML file and environment.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.TTL = 604800
	cfg.Auth.TokenTTLMins = 60
	cfg.Geocoder.BaseURL = "https://nominatim.openstreetmap.org"
	cfg.Geocoder.Country = "Australia"

	if err := loadInto(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// TokenTTL returns the JWT lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	if c.Auth.TokenTTLMins <= 0 {
		return time.Hour
	}
	return time.Duration(c.Auth.TokenTTLMins) * time.Minute
}

// GeocodeTTL returns how long geocoding results stay cached.
func (c *Config) GeocodeTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}
