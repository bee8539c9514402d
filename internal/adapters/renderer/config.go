package renderer

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BrowserConfig holds the headless browser settings of one deployment environment.
type BrowserConfig struct {
	ExecPath      string        `yaml:"exec_path"`
	RemoteURL     string        `yaml:"remote_url"` // connect to a running Chrome instead of launching one
	Headless      bool          `yaml:"headless"`
	NoSandbox     bool          `yaml:"no_sandbox"`
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	Scale         float64       `yaml:"scale"`
	MaxTabs       int           `yaml:"max_tabs"`
	RenderTimeout time.Duration `yaml:"render_timeout"`
	ExtraFlags    []string      `yaml:"extra_flags"`
}

// DefaultBrowserConfig returns the settings used when no profile overrides them.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:      true,
		NoSandbox:     true,
		Width:         800,
		Height:        600,
		Scale:         1,
		MaxTabs:       1,
		RenderTimeout: 30 * time.Second,
	}
}

// rawBrowserFile represents the YAML structure: defaults plus per-environment overrides.
type rawBrowserFile struct {
	Defaults     yaml.Node            `yaml:"defaults"`
	Environments map[string]yaml.Node `yaml:"environments"`
}

// LoadBrowserConfig reads the profile for environment from a YAML file.
// Values under defaults apply first, then the environment's section.
// The result is resolved once at startup and handed to the pool.
func LoadBrowserConfig(filePath, environment string) (BrowserConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return BrowserConfig{}, err
	}
	return ParseBrowserConfig(data, environment)
}

// ParseBrowserConfig is LoadBrowserConfig over an in-memory document.
func ParseBrowserConfig(data []byte, environment string) (BrowserConfig, error) {
	var raw rawBrowserFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return BrowserConfig{}, fmt.Errorf("parse browser config: %w", err)
	}

	cfg := DefaultBrowserConfig()
	if !raw.Defaults.IsZero() {
		if err := raw.Defaults.Decode(&cfg); err != nil {
			return BrowserConfig{}, fmt.Errorf("decode browser defaults: %w", err)
		}
	}
	if node, ok := raw.Environments[environment]; ok {
		if err := node.Decode(&cfg); err != nil {
			return BrowserConfig{}, fmt.Errorf("decode browser profile %q: %w", environment, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return BrowserConfig{}, err
	}
	return cfg, nil
}

// Validate checks the settings are usable.
func (c BrowserConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("browser viewport must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("browser scale must be positive, got %v", c.Scale)
	}
	if c.MaxTabs <= 0 {
		return fmt.Errorf("browser max_tabs must be positive, got %d", c.MaxTabs)
	}
	if c.RenderTimeout <= 0 {
		return fmt.Errorf("browser render_timeout must be positive, got %v", c.RenderTimeout)
	}
	return nil
}
