package config

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	pcErrors "github.com/bashhack/periodic-commit/internal/errors"
	"github.com/bashhack/periodic-commit/internal/git"
	"github.com/bashhack/periodic-commit/internal/llm"
	"github.com/bashhack/periodic-commit/internal/logger"
)

const (
	// DefaultPrefixRegex extracts INSTA-style ticket IDs from branch names.
	DefaultPrefixRegex = git.DefaultPrefixRegex

	// DefaultModelName is the Ollama model used for commit messages.
	DefaultModelName = llm.DefaultModel

	// DefaultModelBaseURL is the local Ollama server.
	DefaultModelBaseURL = llm.DefaultBaseURL

	// DefaultModelTimeout bounds a single model call.
	DefaultModelTimeout = llm.DefaultTimeout

	// DefaultLogLevel traces every pipeline step.
	DefaultLogLevel = "debug"

	// DefaultMaxRetries is the number of consecutive identical errors
	// tolerated before exiting. Zero stops on the first error.
	DefaultMaxRetries = 0

	// MaxTemperature is the highest sampling temperature accepted.
	MaxTemperature = 2.0
)

// Environment variable names.
const (
	EnvPeriod           = "PERIOD"
	EnvPrefixRegex      = "PREFIX_REGEX"
	EnvModelName        = "MODEL_NAME"
	EnvModelTemperature = "MODEL_TEMPERATURE"
	EnvModelBaseURL     = "MODEL_BASE_URL"
	EnvModelTimeout     = "MODEL_TIMEOUT"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogHandler       = "LOG_HANDLER"
	EnvLogFormat        = "LOG_FORMAT"
	EnvLogFile          = "LOG_FILE"
	EnvRepoPath         = "REPO_PATH"
	EnvMaxRetries       = "MAX_RETRIES"
	EnvVerbose          = "VERBOSE"
	EnvConfigFile       = "PERIODIC_COMMIT_CONFIG"
)

// Config holds all periodic-commit settings.
// Values come from defaults, config files, the environment and command-line
// flags, in increasing order of precedence.
type Config struct {
	// RepoPath is the repository to commit in. Empty means the working directory.
	RepoPath string

	// Period is the number of seconds to wait before each cycle.
	Period int

	// PrefixRegex extracts the ticket ID (capture group 1) from the branch name.
	PrefixRegex string

	// Model settings

	ModelName        string
	ModelTemperature float64
	ModelBaseURL     string
	ModelTimeout     time.Duration

	// PromptTemplate replaces the built-in prompt when non-empty. It must
	// reference {{.Diff}}.
	PromptTemplate string

	// Logging

	// LogLevel is debug, info, warn or error.
	LogLevel string

	// LogHandler is "stream" (stderr), "file" (LogFile) or a log file path.
	LogHandler string

	// LogFormat is text or json.
	LogFormat string

	// LogFile is used by the "file" handler. Defaults to a per-repository
	// file under $XDG_DATA_HOME.
	LogFile string

	// Verbose shows warnings and no-change cycles on stdout.
	Verbose bool

	// Behaviour

	// Once runs a single cycle immediately and exits.
	Once bool

	// MaxRetries is how many consecutive identical errors are tolerated.
	MaxRetries int

	// ConfigFile is an explicit config file. When empty the default
	// locations are searched.
	ConfigFile string

	// LoadedFiles lists the config files applied, in order.
	LoadedFiles []string

	// Special flags

	// Version prints version information and exits.
	Version bool

	// ShowLogo prints the logo and exits.
	ShowLogo bool

	// VersionInfo contains version, commit, and build date information.
	VersionInfo VersionInfo

	// Set by Finalize

	// Prefix is the compiled PrefixRegex.
	Prefix *regexp.Regexp

	// Prompt is the compiled PromptTemplate (or the default prompt).
	Prompt *llm.Prompt
}

// VersionInfo contains build-time version metadata.
type VersionInfo struct {
	// Version is the semantic version number (e.g., "v1.2.3").
	Version string

	// Commit is the Git commit hash from which the binary was built.
	Commit string

	// Date is the build timestamp in human-readable format.
	Date string
}

// New creates a new Config with default values
func New() *Config {
	return &Config{
		PrefixRegex:      DefaultPrefixRegex,
		ModelName:        DefaultModelName,
		ModelTemperature: 0.0,
		ModelBaseURL:     DefaultModelBaseURL,
		ModelTimeout:     DefaultModelTimeout,
		LogLevel:         DefaultLogLevel,
		LogHandler:       logger.HandlerStream,
		LogFormat:        logger.FormatText,
		MaxRetries:       DefaultMaxRetries,

		// Default version info, will be overridden if provided
		VersionInfo: VersionInfo{
			Version: "dev",
			Commit:  "unknown",
			Date:    "unknown",
		},
	}
}

// LoadFromEnvironment updates config from environment variables
func (c *Config) LoadFromEnvironment() {
	c.Period = getEnvInt(EnvPeriod, c.Period)
	c.PrefixRegex = getEnvString(EnvPrefixRegex, c.PrefixRegex)
	c.ModelName = getEnvString(EnvModelName, c.ModelName)
	c.ModelTemperature = getEnvFloat(EnvModelTemperature, c.ModelTemperature)
	c.ModelBaseURL = getEnvString(EnvModelBaseURL, c.ModelBaseURL)
	c.ModelTimeout = getEnvDuration(EnvModelTimeout, c.ModelTimeout)
	c.LogLevel = getEnvString(EnvLogLevel, c.LogLevel)
	c.LogHandler = getEnvString(EnvLogHandler, c.LogHandler)
	c.LogFormat = getEnvString(EnvLogFormat, c.LogFormat)
	c.LogFile = getEnvString(EnvLogFile, c.LogFile)
	c.RepoPath = getEnvString(EnvRepoPath, c.RepoPath)
	c.MaxRetries = getEnvInt(EnvMaxRetries, c.MaxRetries)
	c.Verbose = getEnvBool(EnvVerbose, c.Verbose)
}

// SetupFlags defines the command-line flags on fs, bound to c. The current
// field values become the flag defaults.
func (c *Config) SetupFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.PrefixRegex, "prefix-regex", c.PrefixRegex, "Regular expression to extract ticket ID from branch name")
	fs.StringVar(&c.ModelName, "model-name", c.ModelName, "Name of the Ollama model to use")
	fs.Float64Var(&c.ModelTemperature, "temperature", c.ModelTemperature, "Sampling temperature for the model (0-2)")
	fs.StringVar(&c.ModelBaseURL, "base-url", c.ModelBaseURL, "Base URL of the Ollama server")
	fs.DurationVar(&c.ModelTimeout, "timeout", c.ModelTimeout, "Timeout for a single model request")
	fs.StringVarP(&c.RepoPath, "repo", "C", c.RepoPath, "Path to repository (default: current directory)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&c.LogHandler, "log-handler", c.LogHandler, "Log destination: stream, file or a file path")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: text or json")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Log file for the file handler (default: ~/.local/share/periodic-commit/logs/periodic-commit-{repo-hash}.log)")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "Show warnings and no-change cycles")
	fs.BoolVar(&c.Once, "once", c.Once, "Run a single cycle immediately and exit")
	fs.IntVar(&c.MaxRetries, "max-retries", c.MaxRetries, "Consecutive identical errors tolerated before exiting (0 = stop on first error)")
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "Path to a TOML or YAML config file")
	fs.BoolVar(&c.Version, "version", c.Version, "Print version information and exit")
	fs.BoolVar(&c.ShowLogo, "logo", c.ShowLogo, "Display ASCII logo and exit")
}

// flagAppliers copy a flag's value from the parsed config to the merged one.
var flagAppliers = map[string]func(dst, src *Config){
	"prefix-regex": func(dst, src *Config) { dst.PrefixRegex = src.PrefixRegex },
	"model-name":   func(dst, src *Config) { dst.ModelName = src.ModelName },
	"temperature":  func(dst, src *Config) { dst.ModelTemperature = src.ModelTemperature },
	"base-url":     func(dst, src *Config) { dst.ModelBaseURL = src.ModelBaseURL },
	"timeout":      func(dst, src *Config) { dst.ModelTimeout = src.ModelTimeout },
	"repo":         func(dst, src *Config) { dst.RepoPath = src.RepoPath },
	"log-level":    func(dst, src *Config) { dst.LogLevel = src.LogLevel },
	"log-handler":  func(dst, src *Config) { dst.LogHandler = src.LogHandler },
	"log-format":   func(dst, src *Config) { dst.LogFormat = src.LogFormat },
	"log-file":     func(dst, src *Config) { dst.LogFile = src.LogFile },
	"verbose":      func(dst, src *Config) { dst.Verbose = src.Verbose },
	"once":         func(dst, src *Config) { dst.Once = src.Once },
	"max-retries":  func(dst, src *Config) { dst.MaxRetries = src.MaxRetries },
	"config":       func(dst, src *Config) { dst.ConfigFile = src.ConfigFile },
	"version":      func(dst, src *Config) { dst.Version = src.Version },
	"logo":         func(dst, src *Config) { dst.ShowLogo = src.ShowLogo },
}

// Load merges every configuration source into c after fs has been parsed.
// Flags bound by SetupFlags hold their parsed values; only the flags the
// user actually set override config files and the environment. args holds
// the optional positional period.
func (c *Config) Load(fs *pflag.FlagSet, args []string) error {
	parsed := *c

	merged := New()
	merged.VersionInfo = c.VersionInfo

	paths, err := configFiles(fs, &parsed)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := merged.ApplyFile(path); err != nil {
			return err
		}
		merged.LoadedFiles = append(merged.LoadedFiles, path)
	}

	merged.LoadFromEnvironment()
	merged.ConfigFile = getEnvString(EnvConfigFile, merged.ConfigFile)

	fs.Visit(func(f *pflag.Flag) {
		if apply, ok := flagAppliers[f.Name]; ok {
			apply(merged, &parsed)
		}
	})

	if len(args) > 0 {
		period, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil {
			return pcErrors.NewConfigError("period", args[0],
				pcErrors.Wrap(pcErrors.ErrInvalidFlag, "period must be a whole number of seconds"))
		}
		merged.Period = period
	}

	*c = *merged
	return nil
}

// configFiles returns the config files to apply, lowest precedence first.
// An explicit file (flag or environment) replaces the default search and
// must exist.
func configFiles(fs *pflag.FlagSet, parsed *Config) ([]string, error) {
	explicit := os.Getenv(EnvConfigFile)
	if fs.Changed("config") {
		explicit = parsed.ConfigFile
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, pcErrors.NewConfigError("config", explicit,
				pcErrors.Wrap(pcErrors.ErrInvalidConfiguration, err.Error()))
		}
		return []string{explicit}, nil
	}

	var paths []string
	if global := GlobalConfigPath(); global != "" && fileExists(global) {
		paths = append(paths, global)
	}

	repo := getEnvString(EnvRepoPath, "")
	if fs.Changed("repo") {
		repo = parsed.RepoPath
	}
	if repo == "" {
		repo = "."
	}
	if local := RepoConfigPath(repo); local != "" {
		paths = append(paths, local)
	}

	return paths, nil
}

// Finalize validates and finalizes the configuration
func (c *Config) Finalize() error {
	if c.Period < 1 {
		return pcErrors.NewConfigError("period", c.Period, pcErrors.Wrap(pcErrors.ErrInvalidConfiguration,
			"period must be at least 1 second (positional argument, PERIOD or config file)"))
	}

	prefix, err := git.CompilePrefixRegex(c.PrefixRegex)
	if err != nil {
		return pcErrors.NewConfigError("prefix-regex", c.PrefixRegex,
			pcErrors.Wrap(pcErrors.ErrInvalidConfiguration, err.Error()))
	}
	c.Prefix = prefix

	if c.ModelName == "" {
		return pcErrors.NewConfigError("model-name", nil,
			pcErrors.Wrap(pcErrors.ErrInvalidConfiguration, "model name must not be empty"))
	}

	if c.ModelTemperature < 0 || c.ModelTemperature > MaxTemperature {
		return pcErrors.NewConfigError("temperature", c.ModelTemperature,
			pcErrors.Wrapf(pcErrors.ErrInvalidConfiguration, "temperature must be between 0 and %.0f", MaxTemperature))
	}

	base, err := url.Parse(c.ModelBaseURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return pcErrors.NewConfigError("base-url", c.ModelBaseURL,
			pcErrors.Wrap(pcErrors.ErrInvalidConfiguration, "base URL must be an http or https URL"))
	}

	if c.ModelTimeout <= 0 {
		return pcErrors.NewConfigError("timeout", c.ModelTimeout,
			pcErrors.Wrap(pcErrors.ErrInvalidConfiguration, "timeout must be positive"))
	}

	prompt, err := llm.NewPrompt(c.PromptTemplate)
	if err != nil {
		return pcErrors.NewConfigError("prompt", nil, pcErrors.Wrap(pcErrors.ErrInvalidConfiguration, err.Error()))
	}
	c.Prompt = prompt

	if c.MaxRetries < 0 {
		return pcErrors.NewConfigError("max-retries", c.MaxRetries,
			pcErrors.Wrap(pcErrors.ErrInvalidConfiguration, "max retries cannot be negative"))
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return pcErrors.NewConfigError("log-level", c.LogLevel, pcErrors.Wrap(pcErrors.ErrInvalidConfiguration, err.Error()))
	}

	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if !logger.ValidFormat(c.LogFormat) {
		return pcErrors.NewConfigError("log-format", c.LogFormat,
			pcErrors.Wrap(pcErrors.ErrInvalidConfiguration, "log format must be text or json"))
	}

	if c.LogHandler == "" {
		c.LogHandler = logger.HandlerStream
	}

	if c.RepoPath == "" {
		c.RepoPath, err = os.Getwd()
		if err != nil {
			return pcErrors.NewConfigError("repo", "", pcErrors.Wrap(err, "failed to get current directory"))
		}
	}

	absRepoPath, err := filepath.Abs(c.RepoPath)
	if err != nil {
		return pcErrors.NewConfigError("repo", c.RepoPath, pcErrors.Wrap(err, "failed to resolve absolute path"))
	}
	c.RepoPath = absRepoPath

	if c.LogHandler == logger.HandlerFile && c.LogFile == "" {
		c.LogFile = defaultLogFile(c.RepoPath)
	}

	return nil
}

// PeriodDuration returns Period as a time.Duration.
func (c *Config) PeriodDuration() time.Duration {
	return time.Duration(c.Period) * time.Second
}

// defaultLogFile follows the XDG Base Directory Specification:
// $XDG_DATA_HOME/periodic-commit/logs/periodic-commit-{repo-hash}.log
func defaultLogFile(repoPath string) string {
	logDir := os.Getenv("XDG_DATA_HOME")
	if logDir == "" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			logDir = filepath.Join(homeDir, ".local", "share")
		} else {
			logDir = os.TempDir()
		}
	}

	repoHash := fmt.Sprintf("%x", sha256OfString(repoPath)[:8])
	return filepath.Join(logDir, "periodic-commit", "logs", fmt.Sprintf("periodic-commit-%s.log", repoHash))
}

// EnvironmentHelp describes the environment variables for the help text.
func EnvironmentHelp() string {
	var b strings.Builder
	b.WriteString("Environment variables:\n")
	rows := [][2]string{
		{EnvPeriod, "Seconds between commits"},
		{EnvPrefixRegex, "Regular expression to extract ticket ID from branch name"},
		{EnvModelName, "Ollama model name"},
		{EnvModelTemperature, "Sampling temperature (0-2)"},
		{EnvModelBaseURL, "Ollama server URL"},
		{EnvModelTimeout, "Model request timeout (e.g. 90s, 2m)"},
		{EnvLogLevel, "debug, info, warn or error"},
		{EnvLogHandler, "stream, file or a log file path"},
		{EnvLogFormat, "text or json"},
		{EnvLogFile, "Log file for the file handler"},
		{EnvRepoPath, "Path to repository"},
		{EnvMaxRetries, "Consecutive identical errors tolerated"},
		{EnvVerbose, "Show warnings and no-change cycles (true/false)"},
		{EnvConfigFile, "Path to a TOML or YAML config file"},
	}
	for _, row := range rows {
		_, _ = fmt.Fprintf(&b, "  %-24s  %s\n", row[0], row[1])
	}
	return b.String()
}

// getEnvString returns an environment variable string or a default value
func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as int or a default value
func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(strings.TrimSpace(valueStr)); err == nil {
			return value
		}
	}
	return defaultValue
}

// getEnvFloat returns an environment variable as float64 or a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64); err == nil {
			return value
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if d, err := parseDuration(valueStr); err == nil {
		return d
	}
	return defaultValue
}

// getEnvBool returns an environment variable as bool or a default value
func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		valueLower := strings.ToLower(valueStr)
		if valueLower == "true" || valueLower == "1" || valueLower == "yes" {
			return true
		}
		if valueLower == "false" || valueLower == "0" || valueLower == "no" {
			return false
		}
		// For any other value, fall back to default
	}
	return defaultValue
}

// parseDuration parses a Go duration or a plain number of seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// sha256OfString returns the SHA256 hash of a string
func sha256OfString(input string) []byte {
	hash := sha256.Sum256([]byte(input))
	return hash[:]
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
