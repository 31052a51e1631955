package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models getmoredone.yml. Missing file means defaults; a present file
// is validated strictly.
type Config struct {
	Timer struct {
		BlockMinutes         int `yaml:"block_minutes"`
		BreakMinutes         int `yaml:"break_minutes"`
		WarnThresholdMinutes int `yaml:"warn_threshold_minutes"`
	} `yaml:"timer"`
	Schedule struct {
		IncludeSaturday *bool `yaml:"include_saturday"`
		IncludeSunday   *bool `yaml:"include_sunday"`
	} `yaml:"schedule"`
	Calendar struct {
		URL            string `yaml:"url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"calendar"`
}

// Default returns the built-in settings: a 50-minute block with a 10-minute
// break, a 5-minute warning, and weekends included.
func Default() *Config {
	c := &Config{}
	c.Timer.BlockMinutes = 50
	c.Timer.BreakMinutes = 10
	c.Timer.WarnThresholdMinutes = 5
	sat, sun := true, true
	c.Schedule.IncludeSaturday = &sat
	c.Schedule.IncludeSunday = &sun
	c.Calendar.TimeoutSeconds = 5
	return c
}

// Path returns the config file location for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, ".getmoredone", "getmoredone.yml")
}

// Load reads config from the workspace, falling back to defaults when no
// file exists.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config, filling unset fields from defaults.
func FromYAML(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Timer.BlockMinutes <= 0 {
		return fmt.Errorf("config.timer.block_minutes must be positive")
	}
	if c.Timer.BreakMinutes < 0 {
		return fmt.Errorf("config.timer.break_minutes must not be negative")
	}
	if c.Timer.WarnThresholdMinutes < 0 {
		return fmt.Errorf("config.timer.warn_threshold_minutes must not be negative")
	}
	if c.Calendar.TimeoutSeconds <= 0 {
		return fmt.Errorf("config.calendar.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) IncludeSaturday() bool {
	return c.Schedule.IncludeSaturday == nil || *c.Schedule.IncludeSaturday
}

func (c *Config) IncludeSunday() bool {
	return c.Schedule.IncludeSunday == nil || *c.Schedule.IncludeSunday
}
