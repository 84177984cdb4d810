package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Workspace WorkspaceConfig   `yaml:"workspace"`
	Specs     SpecsConfig       `yaml:"specs"`
	Suite     SuiteConfig       `yaml:"suite"`
	Analysis  AnalysisConfig    `yaml:"analysis"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	Watch     WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Specs.Validate(); err != nil {
		return err
	}
	if err := c.Suite.Validate(); err != nil {
		return err
	}
	if err := c.Analysis.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// WorkspaceConfig holds the root directory all input paths resolve against.
type WorkspaceConfig struct {
	Root string `yaml:"root"`
}

// SpecsConfig names the two specification documents under comparison,
// relative to the workspace root.
type SpecsConfig struct {
	Baseline string `yaml:"baseline"`
	Latest   string `yaml:"latest"`
}

// Validate validates the specs configuration.
func (c *SpecsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Baseline, validation.Required),
		validation.Field(&c.Latest, validation.Required),
	)
}

// SuiteConfig holds the path to the test-suite manifest, relative to the
// workspace root.
type SuiteConfig struct {
	Manifest string `yaml:"manifest"`
}

// Validate validates the suite configuration.
func (c *SuiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Manifest, validation.Required),
	)
}

// AnalysisConfig tunes coverage status classification.
type AnalysisConfig struct {
	// CoverageTarget is the minimum overall coverage percentage for GOOD
	// status.
	CoverageTarget float64 `yaml:"coverage_target"`
	// CriticalUncovered is the count of uncovered mandatory requirements
	// at which status escalates to CRITICAL.
	CriticalUncovered int `yaml:"critical_uncovered"`
}

// Validate validates the analysis configuration.
func (c *AnalysisConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CoverageTarget, validation.Required, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&c.CriticalUncovered, validation.Required, validation.Min(1)),
	)
}

// SQLiteConfig holds the run-archive database configuration. An empty path
// disables archiving.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// WatchConfig controls re-analysis on input file changes in serve mode.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Workspace: WorkspaceConfig{
			Root: ".",
		},
		Specs: SpecsConfig{
			Baseline: "specs/baseline.md",
			Latest:   "specs/latest.md",
		},
		Suite: SuiteConfig{
			Manifest: "tests/manifest.yaml",
		},
		Analysis: AnalysisConfig{
			CoverageTarget:    95.0,
			CriticalUncovered: 5,
		},
		SQLite: SQLiteConfig{
			Path: "./tck.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMS: 500,
		},
	}
}
