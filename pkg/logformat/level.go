// Package logformat recognizes the severity of log lines.
package logformat

import (
	"strings"

	"github.com/TimelordUK/mtail/internal/config"
	"github.com/TimelordUK/mtail/internal/source"
)

// severityOrder is the detection order, most severe first
var severityOrder = []source.LogLevel{
	source.LevelFatal,
	source.LevelError,
	source.LevelWarn,
	source.LevelInfo,
	source.LevelDebug,
	source.LevelTrace,
}

// LevelDetector detects log levels from line content
type LevelDetector struct {
	patterns map[source.LogLevel][]string
}

// NewLevelDetector creates a detector from config
func NewLevelDetector(cfg *config.LogLevelConfig) *LevelDetector {
	return &LevelDetector{
		patterns: map[source.LogLevel][]string{
			source.LevelTrace: cfg.TracePatterns,
			source.LevelDebug: cfg.DebugPatterns,
			source.LevelInfo:  cfg.InfoPatterns,
			source.LevelWarn:  cfg.WarnPatterns,
			source.LevelError: cfg.ErrorPatterns,
			source.LevelFatal: cfg.FatalPatterns,
		},
	}
}

// Detect returns the log level for a line
func (d *LevelDetector) Detect(line string) source.LogLevel {
	for _, level := range severityOrder {
		for _, pattern := range d.patterns[level] {
			if pattern != "" && strings.Contains(line, pattern) {
				return level
			}
		}
	}
	return source.LevelUnknown
}
