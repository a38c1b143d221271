package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "taskboard"
	configFile = "config.yaml"
	envPrefix  = "TASKBOARD"
)

type Config struct {
	APIURL   string `mapstructure:"api_url" yaml:"api_url"`
	APIToken string `mapstructure:"api_token" yaml:"api_token,omitempty"`
	// Timeout is a Go duration string; empty or "0" keeps transport defaults.
	Timeout  string `mapstructure:"timeout" yaml:"timeout,omitempty"`
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
	Listen   string `mapstructure:"listen" yaml:"listen"`
	Calendar string `mapstructure:"calendar" yaml:"calendar"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		APIURL:   "http://localhost:4000",
		Timezone: "UTC",
		Listen:   ":8080",
		Calendar: "Tasks",
	}
}

// keys maps file keys to their fields, in file order.
func (c *Config) keys() map[string]*string {
	return map[string]*string{
		"api_url":   &c.APIURL,
		"api_token": &c.APIToken,
		"timeout":   &c.Timeout,
		"timezone":  &c.Timezone,
		"listen":    &c.Listen,
		"calendar":  &c.Calendar,
	}
}

// Keys lists the settable keys.
func Keys() []string {
	var keys []string
	for k := range Default().keys() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dir returns the configuration directory, honouring XDG_CONFIG_HOME.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, xdgAppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the user's config file with TASKBOARD_* environment overrides.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

// LoadStored reads the user's config file without environment overrides,
// for rewriting the file.
func LoadStored() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadStoredFile(path)
}

// LoadStoredFile is LoadFile without TASKBOARD_* overrides.
func LoadStoredFile(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, env bool) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if env {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
	for key, field := range cfg.keys() {
		v.SetDefault(key, *field)
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes cfg as YAML, readable by the owner only.
func SaveFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return encoder.Close()
}

// Set assigns one key and validates the result.
func (c *Config) Set(key, value string) error {
	field, ok := c.keys()[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	old := *field
	*field = value
	if err := c.Validate(); err != nil {
		*field = old
		return err
	}
	return nil
}

// Get returns the value of one key.
func (c *Config) Get(key string) (string, bool) {
	field, ok := c.keys()[key]
	if !ok {
		return "", false
	}
	return *field, true
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url %q must be an absolute http(s) URL", c.APIURL)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone, used for month grouping.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RequestTimeout parses Timeout. Zero means no client-side limit.
func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout %q: %w", c.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout %q must not be negative", c.Timeout)
	}
	return d, nil
}
