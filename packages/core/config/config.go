package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the hitdesk configuration
type Config struct {
	DataDir         string            `json:"dataDir,omitempty" yaml:"dataDir,omitempty"`
	DataFile        string            `json:"dataFile,omitempty" yaml:"dataFile,omitempty"`
	Timeout         int               `json:"timeout,omitempty" yaml:"timeout,omitempty"` // milliseconds, 0 disables
	FollowRedirects *bool             `json:"followRedirects,omitempty" yaml:"followRedirects,omitempty"`
	MaxRedirects    int               `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty"`
	Proxy           string            `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Headers         map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"` // Default headers for all requests
	Addr            string            `json:"addr,omitempty" yaml:"addr,omitempty"`       // control API listen address
	RateLimit       float64           `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"` // executions per second, <= 0 disables
	RateBurst       int               `json:"rateBurst,omitempty" yaml:"rateBurst,omitempty"`
	HistoryFile     string            `json:"historyFile,omitempty" yaml:"historyFile,omitempty"`
	HistoryEnabled  *bool             `json:"historyEnabled,omitempty" yaml:"historyEnabled,omitempty"`
	LogFile         string            `json:"logFile,omitempty" yaml:"logFile,omitempty"` // "-" logs to stderr
	Debug           *bool             `json:"debug,omitempty" yaml:"debug,omitempty"`
	NoColor         *bool             `json:"noColor,omitempty" yaml:"noColor,omitempty"`
}

// Environment variables that override file settings
const (
	EnvDebug   = "HITDESK_DEBUG"
	EnvDataDir = "HITDESK_DATA_DIR"
	EnvAddr    = "HITDESK_ADDR"
)

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetHistoryEnabled returns whether executions are recorded, defaulting to true
func (c *Config) GetHistoryEnabled() bool {
	return getBool(c.HistoryEnabled, true)
}

// GetDebug returns the debug setting, defaulting to false
func (c *Config) GetDebug() bool {
	return getBool(c.Debug, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// TimeoutDuration returns Timeout as a duration.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// HistoryPath returns the history database location. Relative paths are
// resolved against the data directory.
func (c *Config) HistoryPath() string {
	return c.resolve(c.HistoryFile, DefaultHistoryFile)
}

// LogPath returns the log file location, or "-" for stderr.
func (c *Config) LogPath() string {
	if c.LogFile == "-" {
		return c.LogFile
	}
	return c.resolve(c.LogFile, filepath.Join("logs", DefaultLogFile))
}

func (c *Config) resolve(path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".hitdesk.config.json",
	"hitdesk.config.json",
	"hitdesk.yaml",
	"hitdesk.yml",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, nil
}

// ApplyEnv overrides settings from HITDESK_* environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvDebug); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvDebug, v, err)
		}
		c.Debug = &debug
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Addr = v
	}
	return nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("dataDir must not be empty")
	}
	if c.DataFile == "" || filepath.Base(c.DataFile) != c.DataFile {
		return fmt.Errorf("dataFile must be a plain file name, got %q", c.DataFile)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", c.Timeout)
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("maxRedirects must not be negative, got %d", c.MaxRedirects)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("rateBurst must be at least 1 when rateLimit is set, got %d", c.RateBurst)
	}
	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid proxy URL %q", c.Proxy)
		}
	}
	return nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.DataDir != "" {
		result.DataDir = other.DataDir
	}
	if other.DataFile != "" {
		result.DataFile = other.DataFile
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.Addr != "" {
		result.Addr = other.Addr
	}
	if other.RateLimit != 0 {
		result.RateLimit = other.RateLimit
	}
	if other.RateBurst > 0 {
		result.RateBurst = other.RateBurst
	}
	if other.HistoryFile != "" {
		result.HistoryFile = other.HistoryFile
	}
	if other.LogFile != "" {
		result.LogFile = other.LogFile
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.HistoryEnabled != nil {
		result.HistoryEnabled = other.HistoryEnabled
	}
	if other.Debug != nil {
		result.Debug = other.Debug
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	// Merge headers
	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}

// SaveConfig saves the configuration to a file, as YAML when the extension
// says so and JSON otherwise.
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
