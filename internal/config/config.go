package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// FileName Configuration file looked up in the working directory
	FileName = "automater.yaml"
	// HomeFileName Configuration file looked up in the home directory
	HomeFileName = ".osint-automater.yaml"
	// EnvPrefix Prefix of environment overrides, e.g. AUTOMATER_DELAY
	EnvPrefix = "AUTOMATER"
)

// Config Run configuration
type Config struct {
	Catalog    string            `yaml:"catalog" mapstructure:"catalog"`         // Site catalog path (XML or YAML)
	CatalogURL string            `yaml:"catalog_url" mapstructure:"catalog_url"` // Remote catalog used by refresh
	Delay      int               `yaml:"delay" mapstructure:"delay"`             // Seconds between requests to one site
	Proxy      string            `yaml:"proxy" mapstructure:"proxy"`
	UserAgent  string            `yaml:"user_agent" mapstructure:"user_agent"`
	Sources    []string          `yaml:"sources" mapstructure:"sources"` // Site names, empty or allsources for every site
	Post       bool              `yaml:"post" mapstructure:"post"`       // Submit conditional posts
	Workers    int               `yaml:"workers" mapstructure:"workers"`
	Timeout    int               `yaml:"timeout" mapstructure:"timeout"` // Per-request timeout in seconds
	Dedup      string            `yaml:"dedup" mapstructure:"dedup"`     // consecutive or all
	APIKeys    map[string]string `yaml:"api_keys" mapstructure:"api_keys"`
	Server     ServerConfig      `yaml:"server" mapstructure:"server"`
	Log        LogConfig         `yaml:"log" mapstructure:"log"`
}

// ServerConfig REST front end settings
type ServerConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"`
	Mode   string `yaml:"mode" mapstructure:"mode"` // gin mode: debug/release/test
}

// LogConfig Logging settings
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`   // debug/info/warn/error
	Format     string `yaml:"format" mapstructure:"format"` // text/json
	Output     string `yaml:"output" mapstructure:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Caller     bool   `yaml:"caller" mapstructure:"caller"`
}

// SetDefaults Registers every key so environment overrides and flag bindings resolve
func SetDefaults(v *viper.Viper) {
	v.SetDefault("catalog", "sites.xml")
	v.SetDefault("catalog_url", "")
	v.SetDefault("delay", 2)
	v.SetDefault("proxy", "")
	v.SetDefault("user_agent", "Automater/2.1")
	v.SetDefault("sources", []string{})
	v.SetDefault("post", false)
	v.SetDefault("workers", 4)
	v.SetDefault("timeout", 10)
	v.SetDefault("dedup", "consecutive")
	v.SetDefault("api_keys", map[string]string{})

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.mode", "release")

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.file_path", "logs/automater.log")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)
	v.SetDefault("log.caller", false)
}

// Load Reads configuration into v and decodes it.
// An explicit path must exist. Without one the working directory is searched first, then the
// home directory; running without any file is fine.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadConfig Loads configuration from the default locations
func LoadConfig() (*Config, error) {
	return Load(viper.New(), "")
}

// findConfigFile Working directory first, then home directory
func findConfigFile() string {
	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, FileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, HomeFileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate Checks value ranges
func (c *Config) Validate() error {
	var errs []error
	if c.Delay < 0 {
		errs = append(errs, fmt.Errorf("delay must not be negative, got %d", c.Delay))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Timeout < 1 {
		errs = append(errs, fmt.Errorf("timeout must be at least 1 second, got %d", c.Timeout))
	}
	switch strings.ToLower(c.Dedup) {
	case "", "consecutive", "all":
	default:
		errs = append(errs, fmt.Errorf("dedup must be consecutive or all, got %q", c.Dedup))
	}
	return errors.Join(errs...)
}

// DelayDuration Minimum spacing between requests to one site
func (c *Config) DelayDuration() time.Duration {
	return time.Duration(c.Delay) * time.Second
}

// TimeoutDuration Per-request timeout
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// SaveConfig Writes the configuration as YAML; an empty path writes automater.yaml in the
// working directory
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		currentDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(currentDir, FileName)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeAPIKeys Merges command line site=key pairs over the configured keys (command line wins)
func MergeAPIKeys(fileKeys map[string]string, flagPairs []string) (map[string]string, error) {
	merged := make(map[string]string, len(fileKeys)+len(flagPairs))
	for site, key := range fileKeys {
		merged[site] = key
	}

	for _, pair := range flagPairs {
		site, key, ok := strings.Cut(pair, "=")
		site = strings.TrimSpace(site)
		if !ok || site == "" {
			return nil, fmt.Errorf("invalid api key %q, expected site=key", pair)
		}
		merged[site] = strings.TrimSpace(key)
	}

	return merged, nil
}
