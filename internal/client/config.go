package client

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"sigs.k8s.io/yaml"
)

const (
	// ConfigDirEnvKey overrides the directory holding the client config.
	ConfigDirEnvKey = "REELCTL_CONFIG_DIR"
)

// Config holds the information needed to connect to a reelforge API server.
type Config struct {
	Service Service `json:"service"`
}

// Service contains information how to connect to and authenticate with the API server.
type Service struct {
	// Server is the URL of the API server (the part before /api/v1/...).
	Server string `json:"server"`
	Token  string `json:"token,omitempty"`

	// User is sent as X-User-Id to servers running without authentication.
	User           string `json:"user,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
}

// DefaultClientConfigPath returns the default path to the client config file.
func DefaultClientConfigPath() string {
	if dir := os.Getenv(ConfigDirEnvKey); dir != "" {
		return filepath.Join(filepath.Clean(dir), "client.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".reelforge", "client.yaml")
}

// NewFromConfig returns a new API client from the given config.
func NewFromConfig(config *Config) *Client {
	return New(config.Service.Server, time.Duration(config.Service.TimeoutSeconds)*time.Second).
		WithToken(config.Service.Token).
		WithUser(config.Service.User)
}

func ParseConfigFile(filename string) (*Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	config := &Config{}
	if err := yaml.Unmarshal(contents, config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// WriteConfig writes a client config file using the given parameters.
func WriteConfig(filename string, service Service) error {
	config := &Config{Service: service}
	if err := config.Validate(); err != nil {
		return err
	}
	return config.Persist(filename)
}

func (c *Config) Persist(filename string) error {
	contents, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.WriteFile(filename, contents, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := errors.Join(validateService(c.Service)...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func validateService(service Service) []error {
	validationErrors := make([]error, 0)
	// Make sure the server is specified and well-formed
	if len(service.Server) == 0 {
		validationErrors = append(validationErrors, fmt.Errorf("no server found"))
	} else {
		u, err := url.Parse(service.Server)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("invalid server format %q: %w", service.Server, err))
		}
		if err == nil && len(u.Hostname()) == 0 {
			validationErrors = append(validationErrors, fmt.Errorf("invalid server format %q: no hostname", service.Server))
		}
	}
	if service.TimeoutSeconds < 0 {
		validationErrors = append(validationErrors, fmt.Errorf("timeout must not be negative"))
	}
	return validationErrors
}
