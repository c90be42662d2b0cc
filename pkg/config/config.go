// Package config loads compilium.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/compilium/compilium-go/pkg/optimizer"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no file is named.
const DefaultFile = "compilium.yaml"

// Config mirrors the YAML file.
type Config struct {
	IncludePaths []string `yaml:"include_paths"`
	LogLevel     string   `yaml:"log_level"`
	Optimize     Passes   `yaml:"optimize"`
}

// Passes toggles the optimizer passes. Fields left out of the file stay
// enabled.
type Passes struct {
	ConstantFolding   bool `yaml:"constant_folding"`
	StrengthReduction bool `yaml:"strength_reduction"`
	TailRecursion     bool `yaml:"tail_recursion"`
}

// Default returns the configuration used when there is no file: every
// pass on, info logging, no include paths.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Optimize: Passes{ConstantFolding: true, StrengthReduction: true, TailRecursion: true},
	}
}

// Load reads path over the defaults. An empty path reads DefaultFile if it
// exists and returns the defaults otherwise.
func Load(path string) (*Config, error) {
	c := Default()
	name := path
	if name == "" {
		name = DefaultFile
	}
	data, err := os.ReadFile(name)
	if err != nil {
		if path == "" && errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if _, err := c.Level(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// Optimizer returns the optimizer options the file selects. Scope and
// Logger are left for the caller.
func (c *Config) Optimizer() optimizer.Options {
	return optimizer.Options{
		ConstantFolding:   c.Optimize.ConstantFolding,
		StrengthReduction: c.Optimize.StrengthReduction,
		TailRecursion:     c.Optimize.TailRecursion,
	}
}
