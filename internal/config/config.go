// Package config loads the punica-box configuration from a YAML file and
// applies PUNICA_* environment overrides on top of it.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the configuration file is looked up.
const DefaultPath = "~/.punica/box.yaml"

// Supported clone transports
const (
	TransportGit   = "git"
	TransportGoGit = "go-git"
)

var orgRegex = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// homedirExpand is a variable so it can be mocked in tests
var homedirExpand = homedir.Expand

// Config is the punica-box configuration.
type Config struct {
	BoxOrg       string        `yaml:"box_org" env:"PUNICA_BOX_ORG, overwrite"`
	GitHubURL    string        `yaml:"github_url" env:"PUNICA_GITHUB_URL, overwrite"`
	GitHubAPIURL string        `yaml:"github_api_url" env:"PUNICA_GITHUB_API_URL, overwrite"`
	Transport    string        `yaml:"transport" env:"PUNICA_GIT_TRANSPORT, overwrite"`
	HTTPTimeout  time.Duration `yaml:"http_timeout" env:"PUNICA_HTTP_TIMEOUT, overwrite"`
	InitBox      string        `yaml:"init_box" env:"PUNICA_INIT_BOX, overwrite"`
	LogLevel     string        `yaml:"log_level" env:"PUNICA_LOG_LEVEL, overwrite"`
}

// DefaultConfig provides default configuration values
func DefaultConfig() *Config {
	return &Config{
		BoxOrg:       "punica-box",
		GitHubURL:    "https://github.com",
		GitHubAPIURL: "https://api.github.com",
		Transport:    TransportGit,
		HTTPTimeout:  30 * time.Second,
		InitBox:      "punica-init-default",
		LogLevel:     "info",
	}
}

// LoadConfig loads configuration from path and the process environment.
// A missing file is not an error.
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	return LoadConfigWith(ctx, path, envconfig.OsLookuper())
}

// LoadConfigWith is LoadConfig with an explicit environment lookuper.
func LoadConfigWith(ctx context.Context, path string, lookuper envconfig.Lookuper) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	expanded, err := homedirExpand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(expanded)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		log.WithField("path", expanded).Debug("No config file, using defaults")
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	cfg.MergeDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveConfig saves configuration to a file, creating its directory if
// needed.
func SaveConfig(cfg *Config, path string) error {
	expanded, err := homedirExpand(path)
	if err != nil {
		return fmt.Errorf("failed to expand config path: %w", err)
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(expanded), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(expanded, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// MergeDefaults merges default values for unset fields
func (c *Config) MergeDefaults() {
	def := DefaultConfig()
	if c.BoxOrg == "" {
		c.BoxOrg = def.BoxOrg
	}
	if c.GitHubURL == "" {
		c.GitHubURL = def.GitHubURL
	}
	if c.GitHubAPIURL == "" {
		c.GitHubAPIURL = def.GitHubAPIURL
	}
	if c.Transport == "" {
		c.Transport = def.Transport
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = def.HTTPTimeout
	}
	if c.InitBox == "" {
		c.InitBox = def.InitBox
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !orgRegex.MatchString(c.BoxOrg) {
		return fmt.Errorf("invalid box organization %q", c.BoxOrg)
	}
	if !strings.HasPrefix(c.GitHubURL, "https://") {
		return fmt.Errorf("github_url must use HTTPS: %q", c.GitHubURL)
	}
	if !strings.HasPrefix(c.GitHubAPIURL, "https://") && !strings.HasPrefix(c.GitHubAPIURL, "http://") {
		return fmt.Errorf("github_api_url must be an HTTP(S) URL: %q", c.GitHubAPIURL)
	}
	switch c.Transport {
	case TransportGit, TransportGoGit:
	default:
		return fmt.Errorf("unknown transport %q (expected %q or %q)", c.Transport, TransportGit, TransportGoGit)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout cannot be negative")
	}
	if c.InitBox == "" {
		return fmt.Errorf("init_box cannot be empty")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// GitHubHost returns the host name of GitHubURL.
func (c *Config) GitHubHost() string {
	host := strings.TrimPrefix(c.GitHubURL, "https://")
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host
}

// ExpandPath expands a leading ~ in path.
func ExpandPath(path string) (string, error) {
	return homedirExpand(path)
}
