// Package config loads and persists CLI and server configuration.
// Files live under the user config directory; environment variables
// override values from the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
)

var (
	configDir  string
	configOnce sync.Once
)

// ClientConfig holds configuration for the summit CLI client.
type ClientConfig struct {
	ServerURL string `json:"server_url" env:"SUMMIT_SERVER_URL"`
	Token     string `json:"token,omitempty" env:"SUMMIT_CLIENT_TOKEN"`
}

// ServerConfig holds configuration for summit-server.
type ServerConfig struct {
	JWTSecret     string `json:"jwt_secret,omitempty" env:"SUMMIT_JWT_SECRET"`
	DBPath        string `json:"db_path" env:"SUMMIT_DB_PATH"`
	ListenAddr    string `json:"listen_addr" env:"SUMMIT_LISTEN_ADDR"`
	RetentionDays int    `json:"retention_days" env:"SUMMIT_RETENTION_DAYS"`

	// Optional S3 backend for archived import workbooks.
	S3Endpoint  string `json:"s3_endpoint" env:"SUMMIT_S3_ENDPOINT"`
	S3Bucket    string `json:"s3_bucket" env:"SUMMIT_S3_BUCKET"`
	S3AccessKey string `json:"s3_access_key" env:"SUMMIT_S3_ACCESS_KEY"`
	S3SecretKey string `json:"s3_secret_key" env:"SUMMIT_S3_SECRET_KEY"`
	S3Region    string `json:"s3_region" env:"SUMMIT_S3_REGION"`
}

// Dir returns the configuration directory path, creating it on first use.
func Dir() (string, error) {
	var err error
	configOnce.Do(func() {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return
		}
		configDir = filepath.Join(configDir, "summit")
		err = os.MkdirAll(configDir, 0700)
	})
	return configDir, err
}

// LoadClient loads the client configuration.
func LoadClient() (*ClientConfig, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	cfg := &ClientConfig{}

	path := filepath.Join(dir, "config.json")
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// SaveClient saves the client configuration.
func SaveClient(cfg *ClientConfig) error {
	dir, err := Dir()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0600)
}

// LoadServer loads the server configuration.
// Environment variables take precedence over the config file.
func LoadServer() (*ServerConfig, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "server.json")
	data, err := os.ReadFile(path)

	var cfg *ServerConfig
	if os.IsNotExist(err) {
		cfg = DefaultServerConfig()
	} else if err != nil {
		return nil, err
	} else {
		cfg = &ServerConfig{}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// SaveServer saves the server configuration.
func SaveServer(cfg *ServerConfig) error {
	dir, err := Dir()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "server.json"), data, 0600)
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() *ServerConfig {
	dir, _ := Dir()
	return &ServerConfig{
		DBPath:        filepath.Join(dir, "summit.db"),
		ListenAddr:    ":8080",
		RetentionDays: 90,
		S3Region:      "us-east-1",
	}
}
