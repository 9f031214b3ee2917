package main

import (
	"os"

	"github.com/mewkiz/flacpic/meta"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the defaults of the embed command. Command line flags take
// precedence.
type Config struct {
	// Picture type; 3 is the front cover.
	Type uint32 `yaml:"type"`
	// Picture description.
	Desc string `yaml:"description"`
	// Color depth in bits-per-pixel.
	Depth uint32 `yaml:"color_depth"`
	// Number of colors of indexed-color pictures.
	Colors uint32 `yaml:"colors"`
	// Only inspect the image for MIME type, width and height not given on the
	// command line, accepting zero values.
	PerField bool `yaml:"per_field"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Type:  uint32(meta.PictureFrontCover),
		Depth: 24,
	}
}

// LoadConfig reads the YAML configuration file at path. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*Config, error) {
	conf := DefaultConfig()
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := yaml.Unmarshal(buf, conf); err != nil {
		return nil, errors.Wrapf(err, "invalid configuration file %q", path)
	}
	return conf, nil
}
