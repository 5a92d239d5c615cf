package config

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`      // debug, info, warn, error
	Format     string          `yaml:"format"`     // json, console
	DebugMode  bool            `yaml:"debug_mode"` // Master toggle - false = no log file
	Categories map[string]bool `yaml:"categories"` // Per-category toggles
}

// IsCategoryEnabled reports whether the file logger should keep entries for
// category. Nothing is kept outside debug mode; unlisted categories are kept.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	enabled, listed := c.Categories[category]
	return !listed || enabled
}
