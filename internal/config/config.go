package config

import (
	"bytes"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Config is the configuration of the blockstate engine and CLI.
type Config struct {
	Log     Log     `yaml:"log" toml:"log"`
	Engine  Engine  `yaml:"engine" toml:"engine"`
	Metrics Metrics `yaml:"metrics" toml:"metrics"`
}

type Log struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Level    string `yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Encoding string `yaml:"encoding" toml:"encoding" validate:"oneof=console json"`
	// Path is a file path; empty means stderr.
	Path string `yaml:"path" toml:"path"`
}

type Engine struct {
	// LengthUnit is how text lengths are measured: utf16, rune or grapheme.
	LengthUnit string `yaml:"length_unit" toml:"length_unit" validate:"oneof=utf16 utf-16 rune codepoint grapheme"`
	// IDLength is the length of generated block ids.
	IDLength   int    `yaml:"id_length" toml:"id_length" validate:"gte=4,lte=64"`
	IDStrategy string `yaml:"id_strategy" toml:"id_strategy" validate:"oneof=short ulid uuid"`
}

type Metrics struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Namespace string `yaml:"namespace" toml:"namespace" validate:"required_if=Enabled true"`
	// Output is a file the metrics are written to in the text exposition
	// format after a command finishes.
	Output string `yaml:"output" toml:"output"`
}

// FormatFromPath returns the format implied by the file extension.
func FormatFromPath(name string) (string, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.Errorf("unsupported config file %q", name)
	}
}

// Parse parses data on top of the defaults and validates the result.
func Parse(data []byte, format string) (*Config, error) {
	cfg := Default()
	if err := ParseInto(cfg, data, format); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseInto decodes data over cfg, keeping the values of keys that data
// does not set, and validates the result.
func ParseInto(cfg *Config, data []byte, format string) error {
	switch format {
	case FormatYAML:
		if len(bytes.TrimSpace(data)) == 0 {
			break
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errors.Wrap(err, "failed to unmarshal yaml")
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return errors.Wrap(err, "failed to unmarshal toml")
		}
	default:
		return errors.Errorf("unknown config format: %s", format)
	}

	return errors.Wrap(validateConfig(cfg), "failed to validate config")
}

func validateConfig(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
