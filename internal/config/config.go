package config

import (
	"fmt"
	"os"

	"github.com/seanorg/heartbeat-module/pkg/sdk"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP struct {
		Bind string `yaml:"bind"`
		Port int    `yaml:"port"`
		TLS  struct {
			Enabled bool   `yaml:"enabled"`
			Cert    string `yaml:"cert"`
			Key     string `yaml:"key"`
		} `yaml:"tls"`
	} `yaml:"http"`
	Auth struct {
		JWTPublicKeys []string `yaml:"jwt_public_keys"` // PEM certificate paths; empty disables auth
		Issuer        string   `yaml:"issuer"`
		Audience      string   `yaml:"audience"`
	} `yaml:"auth"`
	Logging struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"logging"`
	Components []Resource `yaml:"components"`
	Services   []Resource `yaml:"services"`
}

// Resource is one component or service entry.
type Resource struct {
	Name       string         `yaml:"name"`
	API        string         `yaml:"api"`
	Model      string         `yaml:"model"`
	Attributes map[string]any `yaml:"attributes"`
	DependsOn  []string       `yaml:"depends_on"`
}

// SDK converts the entry into the form constructors receive.
func (r Resource) SDK() (sdk.Config, error) {
	api, err := sdk.ParseAPI(r.API)
	if err != nil {
		return sdk.Config{}, fmt.Errorf("resource %q: %w", r.Name, err)
	}
	model, err := sdk.ParseModel(r.Model)
	if err != nil {
		return sdk.Config{}, fmt.Errorf("resource %q: %w", r.Name, err)
	}
	attrs := r.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	return sdk.Config{
		Name:       r.Name,
		API:        api,
		Model:      model,
		Attributes: attrs,
		DependsOn:  append([]string(nil), r.DependsOn...),
	}, nil
}

// Resources returns components first, then services, in file order.
func (c *Config) Resources() []Resource {
	out := make([]Resource, 0, len(c.Components)+len(c.Services))
	out = append(out, c.Components...)
	return append(out, c.Services...)
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if c.HTTP.Bind == "" {
		c.HTTP.Bind = "0.0.0.0"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	seen := make(map[string]bool)
	for _, r := range c.Resources() {
		if r.Name == "" {
			return nil, fmt.Errorf("resource with model %q has no name", r.Model)
		}
		conf, err := r.SDK()
		if err != nil {
			return nil, err
		}
		key := conf.ResourceName().String()
		if seen[key] {
			return nil, fmt.Errorf("duplicate resource %s", key)
		}
		seen[key] = true
	}
	return &c, nil
}
