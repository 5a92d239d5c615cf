package config

// UIConfig holds user interface configuration.
type UIConfig struct {
	// Theme is "light", "dark" or "auto" (detect from the terminal).
	Theme string `yaml:"theme"`

	// Markdown renders results through glamour instead of plain styled lines.
	Markdown bool `yaml:"markdown"`
}

// PickerConfig controls the file picker.
type PickerConfig struct {
	// StartDir is where browsing starts (empty = working directory).
	StartDir string `yaml:"start_dir"`

	// AllowedTypes filters which extensions the picker offers. Empty offers everything.
	AllowedTypes []string `yaml:"allowed_types"`

	ShowHidden bool `yaml:"show_hidden"`
}

// DefaultPickerConfig offers common image types, like an image/* file input.
func DefaultPickerConfig() PickerConfig {
	return PickerConfig{
		AllowedTypes: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tif", ".tiff"},
	}
}
