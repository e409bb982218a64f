package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Load when the file leaves a field unset.
const (
	DefaultBuilder       = "conda"
	DefaultWorkers       = 1
	DefaultRetryAttempts = 3
	DefaultRetryInterval = Duration(100 * time.Millisecond)
	DefaultGraceTimeout  = Duration(30 * time.Second)
)

// Duration wraps time.Duration so YAML values like "100ms" parse directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the top-level configuration for condamatrix.
type Config struct {
	// RecipesDir is the directory scanned for <name>/meta.yaml recipes.
	RecipesDir string `yaml:"recipes"`
	// Builder selects the registered build backend.
	Builder string `yaml:"builder"`
	// Channels are registered with the builder before a run so external
	// requirements resolve.
	Channels []string     `yaml:"channels"`
	Upload   UploadConfig `yaml:"upload"`
	// NumPy is the default numpy version pin passed to the builder.
	NumPy string `yaml:"numpy"`
	// Workers bounds the number of concurrent builds.
	Workers int         `yaml:"workers"`
	Retry   RetryConfig `yaml:"retry"`
	// GraceTimeout is how long an in-flight build may keep running after
	// cancellation before it is force-terminated.
	GraceTimeout Duration `yaml:"grace_timeout"`
	// Matrix is an optional HCL overlay file with per-package overrides.
	Matrix string `yaml:"matrix"`
	// PinRecipe names the recipe whose source.git_tag follows the branch
	// the run was triggered from.
	PinRecipe string `yaml:"pin_recipe"`
	// ValidateSources enables remote ref checks before building.
	ValidateSources bool `yaml:"validate_sources"`
}

// UploadConfig holds the branch-conditional artifact upload settings.
type UploadConfig struct {
	// Channel artifacts are uploaded to on success.
	Channel string `yaml:"channel"`
	// Branches allowed to upload. Runs triggered from other branches
	// never include the upload flags.
	Branches []string `yaml:"branches"`
	// Token is the upload credential: inline, ${ENV_VAR}, or file path.
	Token string `yaml:"token"`
}

// RetryConfig controls external command retries.
type RetryConfig struct {
	Attempts int      `yaml:"attempts"`
	Interval Duration `yaml:"interval"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Load reads and parses a configuration file, expanding environment variables,
// resolving token file paths, and applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg Config
	if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	cfg.Upload.Token = ResolveToken(cfg.Upload.Token)
	applyDefaults(&cfg)

	if validateErr := validate(&cfg); validateErr != nil {
		return nil, validateErr
	}

	return &cfg, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".condamatrix.yaml",
		".condamatrix.yml",
		"condamatrix.yaml",
		"condamatrix.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// ResolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func ResolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	// Expand ${ENV_VAR} references
	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	// If the resolved value is a path to an existing file, read the token from it
	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

func applyDefaults(cfg *Config) {
	if cfg.Builder == "" {
		cfg.Builder = DefaultBuilder
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry.Attempts = DefaultRetryAttempts
	}
	if cfg.Retry.Interval <= 0 {
		cfg.Retry.Interval = DefaultRetryInterval
	}
	if cfg.GraceTimeout <= 0 {
		cfg.GraceTimeout = DefaultGraceTimeout
	}
}

// validate checks for required configuration values.
func validate(cfg *Config) error {
	if cfg.RecipesDir == "" {
		return errors.New("recipes directory is required")
	}

	if len(cfg.Upload.Branches) > 0 {
		if cfg.Upload.Channel == "" {
			return errors.New(
				"upload.channel is required when upload branches are configured",
			)
		}
		if cfg.Upload.Token == "" {
			return errors.New(
				"upload.token is required when upload branches are configured " +
					"(set inline, via ${ENV_VAR}, or as file path)",
			)
		}
	}

	return nil
}
