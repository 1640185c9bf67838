package config

import (
	"bytes"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Read reads a config from the given file. Environment variables in the file are substituted
// before parsing.
func Read(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf))
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from. Values
// absent from the document keep their defaults.
func FromReader(originalPath string, r io.Reader) (*Config, error) {
	cfg := Default()
	cfg.ConfigFilePath = originalPath

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to decode config from yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "failed to process config")
	}
	return cfg, nil
}
