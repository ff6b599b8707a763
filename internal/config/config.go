package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string           `yaml:"listen_addr"`
	BaseURL    string           `yaml:"base_url"`
	DB         DBConfig         `yaml:"db"`
	Snapshot   SnapshotConfig   `yaml:"snapshot"`
	PolicyPath string           `yaml:"policy_path"`
	SigningKey SigningKeyConfig `yaml:"signing_key"`
	Escalation EscalationConfig `yaml:"escalation"`
}

type DBConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres, empty means memory only
	DSN    string `yaml:"dsn"`
}

type SnapshotConfig struct {
	Key string `yaml:"key"`
}

type SigningKeyConfig struct {
	KeyID          string `yaml:"key_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
}

type EscalationConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

func Load(path string) (Config, error) {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.PolicyPath == "" {
		return fmt.Errorf("policy_path is required")
	}

	switch c.DB.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("db.driver must be sqlite or postgres, got %q", c.DB.Driver)
	}
	if c.DB.Driver != "" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required when db.driver is set")
	}

	if c.Escalation.Enabled && c.Escalation.WebhookURL == "" {
		return fmt.Errorf("escalation.webhook_url is required when escalation.enabled=true")
	}

	if c.SigningKey.PrivateKeyPath != "" && c.SigningKey.KeyID == "" {
		return fmt.Errorf("signing_key.key_id is required when a private key is configured")
	}

	return nil
}
