package config

const (
	DefaultDataDir     = "dist"
	DefaultDataFile    = "api.json"
	DefaultAddr        = "127.0.0.1:4780"
	DefaultHistoryFile = "history.db"
	DefaultLogFile     = "hitdesk.log"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		DataDir:         DefaultDataDir,
		DataFile:        DefaultDataFile,
		Timeout:         30000, // 30 seconds
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    10,
		Proxy:           "",
		Headers:         nil,
		Addr:            DefaultAddr,
		RateLimit:       10,
		RateBurst:       20,
		HistoryFile:     "",
		HistoryEnabled:  BoolPtr(true),
		LogFile:         "",
		Debug:           BoolPtr(false),
		NoColor:         BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.DataDir == defaults.DataDir &&
		c.DataFile == defaults.DataFile &&
		c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.Proxy == defaults.Proxy &&
		len(c.Headers) == 0 &&
		c.Addr == defaults.Addr &&
		c.RateLimit == defaults.RateLimit &&
		c.RateBurst == defaults.RateBurst &&
		c.HistoryFile == defaults.HistoryFile &&
		c.GetHistoryEnabled() == defaults.GetHistoryEnabled() &&
		c.LogFile == defaults.LogFile &&
		c.GetDebug() == defaults.GetDebug() &&
		c.GetNoColor() == defaults.GetNoColor()
}
