package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const appName = "mtail"

// Config holds the settings read from the config file
type Config struct {
	Theme       ThemeConfig      `toml:"theme" yaml:"theme"`
	LogLevels   LogLevelConfig   `toml:"log_levels" yaml:"log_levels"`
	Keybindings KeybindingConfig `toml:"keybindings" yaml:"keybindings"`
	Defaults    DefaultsConfig   `toml:"defaults" yaml:"defaults"`
}

// ThemeConfig defines the colors of every token kind
type ThemeConfig struct {
	Name          string         `toml:"name" yaml:"name"`
	LineNumbers   string         `toml:"line_numbers" yaml:"line_numbers"`
	FileName      string         `toml:"file_name" yaml:"file_name"`
	Error         string         `toml:"error" yaml:"error"`
	TruncatedFg   string         `toml:"truncated_fg" yaml:"truncated_fg"`
	TruncatedBg   string         `toml:"truncated_bg" yaml:"truncated_bg"`
	MatchText     string         `toml:"match_text" yaml:"match_text"`
	Filters       []string       `toml:"filters" yaml:"filters"`
	Files         []string       `toml:"files" yaml:"files"`
	StatusBar     string         `toml:"status_bar" yaml:"status_bar"`
	StatusBarText string         `toml:"status_bar_text" yaml:"status_bar_text"`
	Levels        LogLevelColors `toml:"levels" yaml:"levels"`
}

// LogLevelColors defines colors for each log level
type LogLevelColors struct {
	Trace string `toml:"trace" yaml:"trace"`
	Debug string `toml:"debug" yaml:"debug"`
	Info  string `toml:"info" yaml:"info"`
	Warn  string `toml:"warn" yaml:"warn"`
	Error string `toml:"error" yaml:"error"`
	Fatal string `toml:"fatal" yaml:"fatal"`
}

// LogLevelConfig defines log level detection patterns
type LogLevelConfig struct {
	TracePatterns []string `toml:"trace_patterns" yaml:"trace_patterns"`
	DebugPatterns []string `toml:"debug_patterns" yaml:"debug_patterns"`
	InfoPatterns  []string `toml:"info_patterns" yaml:"info_patterns"`
	WarnPatterns  []string `toml:"warn_patterns" yaml:"warn_patterns"`
	ErrorPatterns []string `toml:"error_patterns" yaml:"error_patterns"`
	FatalPatterns []string `toml:"fatal_patterns" yaml:"fatal_patterns"`
}

// KeybindingConfig customizes the viewer keys
type KeybindingConfig struct {
	Quit       []string `toml:"quit" yaml:"quit"`
	ScrollUp   []string `toml:"scroll_up" yaml:"scroll_up"`
	ScrollDown []string `toml:"scroll_down" yaml:"scroll_down"`
	PageUp     []string `toml:"page_up" yaml:"page_up"`
	PageDown   []string `toml:"page_down" yaml:"page_down"`
	Top        []string `toml:"top" yaml:"top"`
	Bottom     []string `toml:"bottom" yaml:"bottom"`
	Follow     []string `toml:"follow" yaml:"follow"`
}

// DefaultsConfig holds option defaults that flags override
type DefaultsConfig struct {
	LogicalLineMarker string `toml:"logical_line_marker" yaml:"logical_line_marker"`
	Comparison        string `toml:"comparison" yaml:"comparison"`
	Regex             bool   `toml:"regex" yaml:"regex"`
	Truncate          bool   `toml:"truncate" yaml:"truncate"`
	ShowLineNumbers   bool   `toml:"show_line_numbers" yaml:"show_line_numbers"`
	NonRecursive      bool   `toml:"non_recursive" yaml:"non_recursive"`
	Context           int    `toml:"context" yaml:"context"`
	LevelColors       bool   `toml:"level_colors" yaml:"level_colors"`
	Syntax            bool   `toml:"syntax" yaml:"syntax"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Theme: ThemeConfig{
			Name:          "console",
			LineNumbers:   "8", // Dark gray
			FileName:      "8",
			Error:         "9", // Red
			TruncatedFg:   "9",
			TruncatedBg:   "1", // Dark red
			MatchText:     "0", // Black
			Filters:       []string{"11", "10", "14", "13", "3", "2", "6", "5"},
			Files:         []string{"7", "11", "10", "14", "13"},
			StatusBar:     "236",
			StatusBarText: "252",
			Levels: LogLevelColors{
				Trace: "240",
				Debug: "244",
				Info:  "250",
				Warn:  "214",
				Error: "167",
				Fatal: "196",
			},
		},
		LogLevels: LogLevelConfig{
			TracePatterns: []string{"[TRC]", "[TRACE]", "TRACE", "TRC"},
			DebugPatterns: []string{"[DBG]", "[DEBUG]", "DEBUG", "DBG"},
			InfoPatterns:  []string{"[INF]", "[INFO]", "INFO", "INF"},
			WarnPatterns:  []string{"[WRN]", "[WARN]", "[WARNING]", "WARN", "WRN", "WARNING"},
			ErrorPatterns: []string{"[ERR]", "[ERROR]", "ERROR", "ERR"},
			FatalPatterns: []string{"[FTL]", "[FATAL]", "FATAL", "FTL", "[CRIT]", "CRITICAL"},
		},
		Keybindings: KeybindingConfig{
			Quit:       []string{"q", "ctrl+c"},
			ScrollUp:   []string{"k", "up"},
			ScrollDown: []string{"j", "down"},
			PageUp:     []string{"b", "pgup", "ctrl+u"},
			PageDown:   []string{"f", "pgdown", "ctrl+d", " "},
			Top:        []string{"g", "home"},
			Bottom:     []string{"G", "end"},
			Follow:     []string{"F"},
		},
		Defaults: DefaultsConfig{
			Comparison: "OrdinalIgnoreCase",
		},
	}
}

// Load reads the config file at path, or at the default location when
// path is empty, falling back to defaults when no file exists
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = getConfigPath()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes cfg as TOML to the default location
func Save(cfg *Config) error {
	configPath := getConfigPath()
	if configPath == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, "config.toml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", appName, "config.toml")
}

// GetConfigPath exports the config path for user reference
func GetConfigPath() string {
	return getConfigPath()
}
