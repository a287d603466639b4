package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	// DefaultAPIURL is the ecs-deploy server used when none is configured.
	DefaultAPIURL = "http://localhost:8080"
	// DefaultUsername is the login used to obtain a token.
	DefaultUsername = "deploy"
	// DefaultTimeout bounds each request to the server.
	DefaultTimeout = 30 * time.Second
)

// Config represents the client configuration, parsed from a YAML file and the environment.
type Config struct {
	APIURL   string        `yaml:"api_url"`  // Base URL of the ecs-deploy server
	Token    string        `yaml:"token"`    // Pre-issued bearer token, takes precedence over login
	Username string        `yaml:"username"` // Login used to obtain a token
	Password string        `yaml:"password"` // Password used to obtain a token
	Timeout  time.Duration `yaml:"timeout"`  // Per-request timeout
	Debug    bool          `yaml:"debug"`    // Enables development logging
}

// Default returns a Config with default values applied.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		Username: DefaultUsername,
		Timeout:  DefaultTimeout,
	}
}

// Load reads the YAML file at path, if any, and applies environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		configFile, err := os.Open(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return config, fmt.Errorf("error opening config file %s: %w", path, err)
		default:
			defer configFile.Close()
			if err := yaml.NewDecoder(configFile).Decode(&config); err != nil {
				return config, fmt.Errorf("error decoding YAML for %s: %w", path, err)
			}
		}
	}

	if err := config.applyEnv(); err != nil {
		return config, err
	}
	return config, config.Validate()
}

func (c *Config) applyEnv() error {
	if value, ok := os.LookupEnv("ECS_DEPLOY_URL"); ok {
		c.APIURL = value
	}
	if value, ok := os.LookupEnv("ECS_DEPLOY_TOKEN"); ok {
		c.Token = value
	}
	if value, ok := os.LookupEnv("ECS_DEPLOY_USERNAME"); ok {
		c.Username = value
	}
	if value, ok := os.LookupEnv("ECS_DEPLOY_PASSWORD"); ok {
		c.Password = value
	}
	if value, ok := os.LookupEnv("ECS_DEPLOY_TIMEOUT"); ok {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid ECS_DEPLOY_TIMEOUT %q: %w", value, err)
		}
		c.Timeout = timeout
	}
	if os.Getenv("ECS_DESCRIBE_DEBUG") == "true" {
		c.Debug = true
	}
	return nil
}

// Validate checks that a server and a way to authenticate are configured.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is not set")
	}
	if c.Token == "" && c.Password == "" {
		return errors.New("either a token or a password must be configured")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}
