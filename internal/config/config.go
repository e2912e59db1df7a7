package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the top-level configuration for pace-verify
type Config struct {
	// Suite is the path to the check-suite file
	Suite string `json:"suite,omitempty"`

	// FlagPath is the file printed verbatim when every step passes
	FlagPath string `json:"flagPath,omitempty"`

	// PolicyDir is the directory holding rego policies for rego steps
	PolicyDir string `json:"policyDir,omitempty"`

	// NoColor disables ANSI colors on the step verdict lines
	NoColor bool `json:"noColor,omitempty"`

	// Timing controls the per-step timing log
	Timing TimingConfig `json:"timing,omitempty"`
}

// TimingConfig controls timing capture for grading runs
type TimingConfig struct {
	// Enabled turns on the JSONL timing log
	Enabled *bool `json:"enabled,omitempty"`

	// Path is the timing output file (relative to the working directory
	// if not absolute)
	Path string `json:"path,omitempty"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Suite:     "verify.json",
		FlagPath:  "/flag",
		PolicyDir: "policies",
		Timing: TimingConfig{
			Enabled: boolPtr(false),
			Path:    "timing.jsonl",
		},
	}
}

func boolPtr(v bool) *bool {
	return &v
}

// Load finds and loads the configuration file
// Search order:
//  1. ./pace_verify.json (current working directory)
//  2. ./.pace_verify.json (current working directory)
//  3. <rootPath>/pace_verify.json (if different from cwd)
//  4. ~/.config/pace-verify/config.json
//
// Returns DefaultConfig if no config file is found
func Load(rootPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	searchPaths := []string{
		filepath.Join(cwd, "pace_verify.json"),
		filepath.Join(cwd, ".pace_verify.json"),
	}

	// If rootPath is a directory and different from cwd, also check there
	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			searchPaths = append(searchPaths,
				filepath.Join(rootPath, "pace_verify.json"),
				filepath.Join(rootPath, ".pace_verify.json"),
			)
		}
	}

	// Add user config path
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "pace-verify", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	// No config found, return defaults
	return DefaultConfig(), nil
}

// LoadFile loads configuration from a specific file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for missing fields
	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.Suite == "" {
		c.Suite = "verify.json"
	}
	if c.FlagPath == "" {
		c.FlagPath = "/flag"
	}
	if c.PolicyDir == "" {
		c.PolicyDir = "policies"
	}
	if c.Timing.Path == "" {
		c.Timing.Path = "timing.jsonl"
	}
	if c.Timing.Enabled == nil {
		c.Timing.Enabled = boolPtr(false)
	}
}

// Save writes the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// TimingEnabled reports whether timing capture is on
func (c *Config) TimingEnabled() bool {
	return c.Timing.Enabled != nil && *c.Timing.Enabled
}
