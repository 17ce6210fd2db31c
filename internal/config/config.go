package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings of a generator or registration run.
type Config struct {
	// AddonsFile is the path to the JSON configuration listing.
	AddonsFile string `yaml:"addons_file"`
	// OutputDir is the directory that receives the generated repository.
	OutputDir string `yaml:"output_dir"`
	// RepositoryAddonDir holds the repository addon packed alongside the mirrored addons.
	RepositoryAddonDir string `yaml:"repository_addon_dir"`
	// APIURL is the base URL of the release API.
	APIURL string `yaml:"api_url"`
	// UpstreamRepo is the owner/name of the repository hosting the generator.
	// Scaffolded CI triggers dispatch to it.
	UpstreamRepo string `yaml:"upstream_repo"`
	// Timeout bounds every request made to the release API.
	Timeout time.Duration `yaml:"timeout"`
	// Concurrency is the number of addons resolved at the same time.
	Concurrency int `yaml:"concurrency"`
	// Mirror enables downloading assets and producing the Kodi index files.
	Mirror bool `yaml:"mirror"`
	// Strict turns a failure of a single addon into a failure of the whole run.
	Strict bool `yaml:"strict"`
	// Token authenticates release API requests. A token from the settings
	// file wins over the environment. Save never writes it.
	Token string `yaml:"token,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "addon-repository.yaml"

	// DefaultAddonsFilename is the default configuration listing.
	DefaultAddonsFilename = "addons.json"

	// DefaultOutputDir is the default directory for generated files.
	DefaultOutputDir = "dist"

	// DefaultRepositoryAddonDir is the default location of the repository addon sources.
	DefaultRepositoryAddonDir = "repository"

	// DefaultAPIURL is the GitHub REST API endpoint.
	DefaultAPIURL = "https://api.github.com"

	// DefaultTimeout is the default duration of a single release API request.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is the default number of parallel resolutions.
	DefaultConcurrency = 4

	// DefaultFilePermissions is the permission of written settings files.
	DefaultFilePermissions = 0o644
)

// TokenEnvironmentVariables are consulted in order for the release API token.
//
//nolint:gochecknoglobals // Read-only lookup list.
var TokenEnvironmentVariables = []string{"GITHUB_TOKEN", "GH_TOKEN"}

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInvalidUpstream is returned when the upstream repository is not owner/name.
	errInvalidUpstream = errors.New("upstream repository must be in owner/name form")
	// errInvalidConcurrency is returned for a negative worker count.
	errInvalidConcurrency = errors.New("concurrency must not be negative")
)

// Default returns settings populated with default values.
func Default() *Config {
	return &Config{
		AddonsFile:         DefaultAddonsFilename,
		OutputDir:          DefaultOutputDir,
		RepositoryAddonDir: DefaultRepositoryAddonDir,
		APIURL:             DefaultAPIURL,
		Timeout:            DefaultTimeout,
		Concurrency:        DefaultConcurrency,
		Mirror:             true,
	}
}

// Load reads settings from path on top of the defaults and validates them.
// A missing file yields an error wrapping os.ErrNotExist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings %s: %w", path, err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOptional behaves like Load but returns the defaults when path does not exist.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	persisted := *cfg
	persisted.Token = ""

	data, err := yaml.Marshal(&persisted)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the settings and fills zero values with defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.AddonsFile == "" {
		cfg.AddonsFile = DefaultAddonsFilename
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	if cfg.RepositoryAddonDir == "" {
		cfg.RepositoryAddonDir = DefaultRepositoryAddonDir
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}

	if _, err := url.ParseRequestURI(cfg.APIURL); err != nil {
		return fmt.Errorf("invalid api url: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.Concurrency < 0 {
		return errInvalidConcurrency
	}

	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	if cfg.UpstreamRepo != "" && !isOwnerName(cfg.UpstreamRepo) {
		return fmt.Errorf("%w: %q", errInvalidUpstream, cfg.UpstreamRepo)
	}

	return nil
}

// ApplyEnvironment fills the token from the first non-empty variable in
// TokenEnvironmentVariables, keeping a token that is already set.
func ApplyEnvironment(cfg *Config) {
	if cfg == nil || cfg.Token != "" {
		return
	}

	for _, name := range TokenEnvironmentVariables {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			cfg.Token = value
			return
		}
	}
}

// isOwnerName reports whether s has exactly two non-empty slash separated parts.
func isOwnerName(s string) bool {
	owner, name, found := strings.Cut(s, "/")

	return found && owner != "" && name != "" && !strings.Contains(name, "/")
}
