package config

import (
	"bytes"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

// validate is the shared struct validator. Struct-tag rules only; no custom
// registrations, so a single instance is safe for concurrent use.
var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Load reads, decodes, and validates the configuration file at path within
// the given filesystem. Unknown YAML keys are rejected so typos fail loudly
// instead of silently disabling behavior.
func Load(fsys billy.Filesystem, path string) (*Config, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.CodeNotFound, "configuration file %s not found", path).
				WithHint("create " + DefaultFileName + " at the project root")
		}
		return nil, errors.Wrapf(err, errors.CodeInvalidConfig, "failed to read configuration file %s", path)
	}

	return Parse(data, path)
}

// Parse decodes and validates raw configuration bytes. The path is used only
// for error reporting.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidConfig, "failed to parse configuration file %s", path)
	}

	cfg.applyDefaults()

	if err := structValidator.Struct(&cfg); err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidConfig, "invalid configuration in %s", path).
			WithHint("check field values against the documented schema")
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied and the given
// project name. Used when no configuration file exists and by tests.
func Default(projectName string) *Config {
	cfg := &Config{}
	cfg.Project.Name = projectName
	cfg.applyDefaults()
	return cfg
}
