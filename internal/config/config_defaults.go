package config

import (
	"gopkg.in/yaml.v3"
)

var defaults Config

func init() {
	yaml := []byte(`# Logging is disabled unless enabled here or with --log-level.
log:
  enabled: false
  level: info
  # "console" or "json".
  encoding: console
  # Empty path logs to stderr.
  path: ""

engine:
  # How text lengths and offsets are measured: utf16 (browser offsets),
  # rune or grapheme.
  length_unit: utf16
  id_length: 16
  # "short", "ulid" or "uuid".
  id_strategy: short

metrics:
  enabled: false
  namespace: blockstate
  output: ""
`)

	cfg, err := parseDefaults(yaml)
	if err != nil {
		panic(err)
	}
	defaults = *cfg
}

func parseDefaults(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a copy of the default configuration.
func Default() *Config {
	c := defaults
	return &c
}
