package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	pcErrors "github.com/bashhack/periodic-commit/internal/errors"
)

// Config file names searched for in the repository, in order.
var repoConfigNames = []string{
	".periodic-commit.toml",
	".periodic-commit.yaml",
	".periodic-commit.yml",
}

// fileConfig mirrors the config file layout. Pointer fields distinguish
// "absent" from zero values so a file only overrides what it sets.
//
//	period = 300
//	prefix_regex = '(INSTA-\d+)'
//
//	[model]
//	name = "llama3.1:8b"
//	temperature = 0.0
//	base_url = "http://localhost:11434"
//	timeout = "2m"
//
//	[log]
//	level = "info"
//	handler = "file"
type fileConfig struct {
	Period      *int    `toml:"period" yaml:"period"`
	Repo        *string `toml:"repo" yaml:"repo"`
	PrefixRegex *string `toml:"prefix_regex" yaml:"prefix_regex"`
	MaxRetries  *int    `toml:"max_retries" yaml:"max_retries"`
	Verbose     *bool   `toml:"verbose" yaml:"verbose"`
	Model       struct {
		Name        *string  `toml:"name" yaml:"name"`
		Temperature *float64 `toml:"temperature" yaml:"temperature"`
		BaseURL     *string  `toml:"base_url" yaml:"base_url"`
		Timeout     *string  `toml:"timeout" yaml:"timeout"`
		Prompt      *string  `toml:"prompt" yaml:"prompt"`
	} `toml:"model" yaml:"model"`
	Log struct {
		Level   *string `toml:"level" yaml:"level"`
		Handler *string `toml:"handler" yaml:"handler"`
		Format  *string `toml:"format" yaml:"format"`
		File    *string `toml:"file" yaml:"file"`
	} `toml:"log" yaml:"log"`
}

// GlobalConfigPath returns $XDG_CONFIG_HOME/periodic-commit/config.toml,
// or "" when no config directory can be determined.
func GlobalConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "periodic-commit", "config.toml")
}

// RepoConfigPath returns the first repository config file found in dir,
// or "".
func RepoConfigPath(dir string) string {
	for _, name := range repoConfigNames {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// ApplyFile reads a TOML or YAML config file, chosen by extension, and
// overrides the fields it sets.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return pcErrors.NewConfigError("config", path, pcErrors.Wrap(pcErrors.ErrInvalidConfiguration, err.Error()))
	}

	fc, err := decodeFile(path, data)
	if err != nil {
		return pcErrors.NewConfigError("config", path, pcErrors.Wrap(pcErrors.ErrInvalidConfiguration, err.Error()))
	}

	return c.applyFileConfig(path, fc)
}

func decodeFile(path string, data []byte) (*fileConfig, error) {
	var fc fileConfig

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		return nil, pcErrors.Errorf("unsupported config file type %q (use .toml, .yaml or .yml)", filepath.Ext(path))
	}

	return &fc, nil
}

func (c *Config) applyFileConfig(path string, fc *fileConfig) error {
	setInt(&c.Period, fc.Period)
	setString(&c.RepoPath, fc.Repo)
	setString(&c.PrefixRegex, fc.PrefixRegex)
	setInt(&c.MaxRetries, fc.MaxRetries)
	if fc.Verbose != nil {
		c.Verbose = *fc.Verbose
	}

	setString(&c.ModelName, fc.Model.Name)
	if fc.Model.Temperature != nil {
		c.ModelTemperature = *fc.Model.Temperature
	}
	setString(&c.ModelBaseURL, fc.Model.BaseURL)
	setString(&c.PromptTemplate, fc.Model.Prompt)
	if fc.Model.Timeout != nil {
		d, err := parseDuration(*fc.Model.Timeout)
		if err != nil {
			return pcErrors.NewConfigError("model.timeout", *fc.Model.Timeout,
				pcErrors.Wrapf(pcErrors.ErrInvalidConfiguration, "invalid duration in %s", path))
		}
		c.ModelTimeout = d
	}

	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogHandler, fc.Log.Handler)
	setString(&c.LogFormat, fc.Log.Format)
	setString(&c.LogFile, fc.Log.File)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
