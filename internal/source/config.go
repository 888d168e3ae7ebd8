package source

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/jmurray2011/skein/internal/logconfig"
	"gopkg.in/yaml.v3"
)

// Config represents the skein configuration file. The settings read by the
// command line flags are kept so saving configurations does not drop them.
type Config struct {
	Profile       string                      `yaml:"profile,omitempty"`
	Region        string                      `yaml:"region,omitempty"`
	Verbose       bool                        `yaml:"verbose,omitempty"`
	MatchTimeout  string                      `yaml:"match_timeout,omitempty"`
	Output        OutputConfig                `yaml:"output"`
	DefaultConfig string                      `yaml:"default_config,omitempty"`
	Configs       map[string]logconfig.Record `yaml:"configs"`
}

// OutputConfig defines output preferences.
type OutputConfig struct {
	Format string `yaml:"format"` // text, json, yaml
	Color  string `yaml:"color"`  // auto, always, never
}

// Names returns the saved configuration names, sorted.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Configs))
	for n := range c.Configs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ConfigPath returns the path to the skein config file.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".skein", "config.yaml")
}

// LoadConfig loads the configuration from ~/.skein/config.yaml.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(ConfigPath())
}

// LoadConfigFile loads the configuration from path.
func LoadConfigFile(path string) (*Config, error) {
	cfg := &Config{
		Configs: make(map[string]logconfig.Record),
		Output: OutputConfig{
			Format: "text",
			Color:  "auto",
		},
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Configs == nil {
		cfg.Configs = make(map[string]logconfig.Record)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to ~/.skein/config.yaml.
func SaveConfig(cfg *Config) error {
	path := ConfigPath()
	if path == "" {
		return os.ErrNotExist
	}
	return SaveConfigFile(path, cfg)
}

// SaveConfigFile saves the configuration to path, creating its directory.
func SaveConfigFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
