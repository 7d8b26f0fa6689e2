package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BurntSushi/wgb"
	"github.com/BurntSushi/wgb/layout"
)

// Settings are read from the settings file; flags override them.
type Settings struct {
	EnumerationTimeout time.Duration `yaml:"enumeration_timeout"` // wait for the first snapshot
	ModeTimeout        time.Duration `yaml:"mode_timeout"`        // wait for a head's modes to complete
	ResultTimeout      time.Duration `yaml:"result_timeout"`      // wait for succeeded/failed/cancelled
	Tick               time.Duration `yaml:"tick"`                // dispatch slice while waiting
	TargetPPI          float64       `yaml:"target_ppi"`
	ScaleStep          float64       `yaml:"scale_step"`
	InternalPrefixes   []string      `yaml:"internal_prefixes"` // names of built-in panels, e.g. eDP
}

func DefaultSettings() Settings {
	return Settings{
		EnumerationTimeout: 2 * time.Second,
		ModeTimeout:        time.Second,
		ResultTimeout:      5 * time.Second,
		Tick:               wgb.DefaultTick,
		TargetPPI:          layout.DefaultTargetPPI,
		ScaleStep:          layout.DefaultScaleStep,
		InternalPrefixes:   append([]string(nil), layout.DefaultInternalPrefixes...),
	}
}

// DefaultPath is $XDG_CONFIG_HOME/wlr-outputs/config.yaml, falling back to
// ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "wlr-outputs", "config.yaml")
}

// Load reads the settings file at 'path' over the defaults. A missing file
// yields the defaults unless 'required' is set.
func Load(path string, required bool) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return s, nil
		}
		return s, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	if err := Validate(&s); err != nil {
		return s, fmt.Errorf("invalid settings %s: %w", path, err)
	}
	return s, nil
}

// Validate checks the settings for values no command can work with.
func Validate(s *Settings) error {
	if s.EnumerationTimeout <= 0 {
		return fmt.Errorf("enumeration_timeout must be positive, got %s", s.EnumerationTimeout)
	}
	if s.ModeTimeout <= 0 {
		return fmt.Errorf("mode_timeout must be positive, got %s", s.ModeTimeout)
	}
	if s.ResultTimeout <= 0 {
		return fmt.Errorf("result_timeout must be positive, got %s", s.ResultTimeout)
	}
	if s.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %s", s.Tick)
	}
	if s.TargetPPI <= 0 {
		return fmt.Errorf("target_ppi must be positive, got %v", s.TargetPPI)
	}
	if s.ScaleStep <= 0 || s.ScaleStep > 1 {
		return fmt.Errorf("scale_step must be in (0, 1], got %v", s.ScaleStep)
	}
	for _, p := range s.InternalPrefixes {
		if p == "" {
			return errors.New("internal_prefixes must not contain empty names")
		}
	}
	return nil
}

func (s Settings) layoutOptions() layout.Options {
	return layout.Options{
		TargetPPI:        s.TargetPPI,
		ScaleStep:        s.ScaleStep,
		InternalPrefixes: s.InternalPrefixes,
	}
}
