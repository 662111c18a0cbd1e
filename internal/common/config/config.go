package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	ErrRootNotSet   = errors.New("package tree root is not configured")
	ErrRootNotFound = errors.New("package tree root does not exist")
)

// tokenEnvVar overrides the configured GitHub token when set
const tokenEnvVar = "AURWATCH_GITHUB_TOKEN"

// Config represents the application configuration
type Config struct {
	Packages PackagesConfig `yaml:"packages"`
	GitHub   GitHubConfig   `yaml:"github"`
}

// PackagesConfig holds the local package tree settings
type PackagesConfig struct {
	// Root is the directory holding one sub-directory per package, each
	// with a PKGBUILD at its top
	Root string `yaml:"root"`
	// Watchfile is the feed configuration path, <root>/watchfile.toml
	// when empty
	Watchfile string `yaml:"watchfile"`
}

// GitHubConfig holds GitHub API settings
type GitHubConfig struct {
	Token string `yaml:"token"` // Personal access token for higher rate limits
}

// ConfigPaths returns all possible config file paths in priority order
// 1. ~/.config/aurwatch/config.yaml (XDG standard - priority)
// 2. ~/.aurwatch/config.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	// Check XDG_CONFIG_HOME first, fallback to ~/.config
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdgConfig, "aurwatch", "config.yaml"),
		filepath.Join(home, ".aurwatch", "config.yaml"),
	}, nil
}

// DefaultConfigPath returns the default config file path (XDG standard)
func DefaultConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// FindConfigPath returns the first existing config file path
// Returns the default path if no config file exists yet
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	// No config exists, return default (XDG) path for creation
	return paths[0], nil
}

// Load reads configuration from the first available config file
func Load() (*Config, error) {
	configPath, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from a specific file path. A missing
// file yields an empty config rather than an error, so first runs work
// with flags alone.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes configuration to the default config file
func (c *Config) Save() error {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo writes configuration to a specific file path
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetRoot returns the validated package tree root
func (c *Config) GetRoot() (string, error) {
	if c.Packages.Root == "" {
		return "", ErrRootNotSet
	}

	path, err := expandHome(c.Packages.Root)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrRootNotFound
		}
		return "", err
	}
	if !info.IsDir() {
		return "", ErrRootNotFound
	}

	return path, nil
}

// GetWatchfile returns the feed configuration path, defaulting to
// watchfile.toml under the package tree root.
func (c *Config) GetWatchfile() (string, error) {
	if c.Packages.Watchfile != "" {
		return expandHome(c.Packages.Watchfile)
	}

	root, err := c.GetRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "watchfile.toml"), nil
}

// GetGitHubToken returns the GitHub API token. The environment variable
// wins over the config file so CI can inject a token without touching
// the file.
func (c *Config) GetGitHubToken() string {
	if token := os.Getenv(tokenEnvVar); token != "" {
		return token
	}
	return c.GitHub.Token
}

// expandHome expands a leading ~ to the user's home directory
func expandHome(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
