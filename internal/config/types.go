// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidSearchPath is returned when a search path entry is empty or whitespace-only.
	ErrInvalidSearchPath = errors.New("invalid search path")
	// ErrInvalidDistDir is returned when the dist_dir value is whitespace-only.
	ErrInvalidDistDir = errors.New("invalid dist dir")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// UIConfig holds terminal presentation settings.
	UIConfig struct {
		ColorScheme ColorScheme `mapstructure:"color_scheme"`
		Verbose     bool        `mapstructure:"verbose"`
	}

	// Config is the application configuration.
	Config struct {
		// SearchPaths are the roots searched, in order, for module package
		// directories.
		SearchPaths []string `mapstructure:"search_paths"`
		// DistDir is where built distribution artifacts live.
		DistDir string `mapstructure:"dist_dir"`
		// UI holds terminal presentation settings.
		UI UIConfig `mapstructure:"ui"`
	}
)

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("%v: %q (expected auto, dark, or light)", ErrInvalidColorScheme, e.Value)
}

// Unwrap returns the sentinel for errors.Is.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Validate checks that the scheme is one of the recognized values.
func (s ColorScheme) Validate() error {
	switch s {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: s}
	}
}

// Validate checks constraints the CUE schema cannot express: non-blank
// paths and a recognized color scheme after defaulting.
func (c *Config) Validate() error {
	for i, p := range c.SearchPaths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("search_paths[%d]: %w: empty or whitespace-only", i, ErrInvalidSearchPath)
		}
	}
	if c.DistDir != "" && strings.TrimSpace(c.DistDir) == "" {
		return fmt.Errorf("dist_dir: %w: whitespace-only", ErrInvalidDistDir)
	}
	return c.UI.ColorScheme.Validate()
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		SearchPaths: []string{"modules"},
		DistDir:     "dist",
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
