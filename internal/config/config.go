package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pelletier/go-toml/v2"

	"patientsearch/internal/directory"
	"patientsearch/internal/recents"
	"patientsearch/internal/storage"
)

const (
	appName        = "patientsearch"
	configFileName = "config.toml"
)

// Config represents the application configuration
type Config struct {
	Version   int             `toml:"version"`
	Directory DirectoryConfig `toml:"directory"`
	Search    SearchConfig    `toml:"search"`
	Recents   RecentsConfig   `toml:"recents"`
	Storage   StorageConfig   `toml:"storage"`
	Log       LogConfig       `toml:"log"`
}

// DirectoryConfig selects and configures the patient directory
type DirectoryConfig struct {
	Provider   string `toml:"provider" env:"PATIENTSEARCH_PROVIDER" env-description:"directory provider: http or local"`
	APIURL     string `toml:"api_url" env:"PATIENTSEARCH_API_URL" env-description:"base URL of the patient API"`
	Token      string `toml:"token" env:"PATIENTSEARCH_API_TOKEN" env-description:"bearer token for the patient API"`
	Timeout    string `toml:"timeout" env:"PATIENTSEARCH_API_TIMEOUT" env-description:"patient API request timeout"`
	RosterPath string `toml:"roster_path" env:"PATIENTSEARCH_ROSTER" env-description:"YAML roster for the local provider"`
	Limit      int    `toml:"limit" env:"PATIENTSEARCH_LIMIT" env-description:"maximum results from the local provider"`
}

// SearchConfig tunes the type-ahead behavior
type SearchConfig struct {
	Debounce    string `toml:"debounce" env:"PATIENTSEARCH_DEBOUNCE" env-description:"quiet period before a query is sent"`
	MinChars    int    `toml:"min_chars" env:"PATIENTSEARCH_MIN_CHARS" env-description:"shortest query that is searched"`
	ShowRecents bool   `toml:"show_recents" env:"PATIENTSEARCH_SHOW_RECENTS" env-description:"offer recent selections on focus"`
}

// RecentsConfig controls the recent selections cache
type RecentsConfig struct {
	Key      string `toml:"key" env:"PATIENTSEARCH_RECENTS_KEY" env-description:"storage key of the recent selections"`
	Capacity int    `toml:"capacity" env:"PATIENTSEARCH_RECENTS_CAPACITY" env-description:"number of recent selections kept"`
}

// StorageConfig selects the persistent store
type StorageConfig struct {
	Backend string `toml:"backend" env:"PATIENTSEARCH_STORAGE" env-description:"storage backend: leveldb, sqlite or memory"`
	Path    string `toml:"path" env:"PATIENTSEARCH_STORAGE_PATH" env-description:"storage location"`
}

// LogConfig controls logging
type LogConfig struct {
	Path  string `toml:"path" env:"PATIENTSEARCH_LOG" env-description:"log file, empty disables logging"`
	Debug bool   `toml:"debug" env:"PATIENTSEARCH_DEBUG" env-description:"enable debug logging"`
}

// DebounceDelay parses the debounce setting
func (c *Config) DebounceDelay() (time.Duration, error) {
	d, err := time.ParseDuration(c.Search.Debounce)
	if err != nil {
		return 0, fmt.Errorf("invalid search.debounce %q: %w", c.Search.Debounce, err)
	}
	return d, nil
}

// LookupTimeout parses the directory timeout setting
func (c *Config) LookupTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Directory.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid directory.timeout %q: %w", c.Directory.Timeout, err)
	}
	return d, nil
}

// Validate checks the configuration for values the application cannot use
func (c *Config) Validate() error {
	var errs []error

	switch c.Directory.Provider {
	case directory.KindHTTP:
		if c.Directory.APIURL == "" {
			errs = append(errs, errors.New("directory.api_url is required for the http provider"))
		}
	case directory.KindLocal:
		if c.Directory.RosterPath == "" {
			errs = append(errs, errors.New("directory.roster_path is required for the local provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown directory.provider %q", c.Directory.Provider))
	}

	switch c.Storage.Backend {
	case storage.BackendMemory:
	case storage.BackendLevelDB, storage.BackendSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}

	if _, err := c.DebounceDelay(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LookupTimeout(); err != nil {
		errs = append(errs, err)
	}
	if c.Search.MinChars < 1 {
		errs = append(errs, fmt.Errorf("search.min_chars must be positive, got %d", c.Search.MinChars))
	}
	if c.Recents.Capacity < 1 {
		errs = append(errs, fmt.Errorf("recents.capacity must be positive, got %d", c.Recents.Capacity))
	}

	return errors.Join(errs...)
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a config service reading filePath. An empty
// path selects config.toml in the user config directory.
func NewConfigService(filePath string) ConfigService {
	if filePath == "" {
		filePath = filepath.Join(appDir(os.UserConfigDir), configFileName)
	}
	return &configService{filePath: filePath}
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration from the service's file. A missing file
// yields the defaults; environment overrides apply either way.
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
		return cfg, nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// Save saves the configuration to the service's file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path. Keys missing from
// the file keep their defaults.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	cfg := DefaultConfig()
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold an API token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// EnvUsage describes the environment variables that override the file
func EnvUsage() (string, error) {
	header := "Environment overrides:"
	return cleanenv.GetDescription(DefaultConfig(), &header)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Directory: DirectoryConfig{
			Provider: directory.KindHTTP,
			APIURL:   "http://localhost:8080/api",
			Timeout:  directory.DefaultTimeout.String(),
			Limit:    directory.DefaultLimit,
		},
		Search: SearchConfig{
			Debounce:    "300ms",
			MinChars:    2,
			ShowRecents: true,
		},
		Recents: RecentsConfig{
			Key:      recents.DefaultKey,
			Capacity: recents.DefaultCapacity,
		},
		Storage: StorageConfig{
			Backend: storage.BackendLevelDB,
			Path:    filepath.Join(appDir(os.UserCacheDir), "recents.db"),
		},
		Log: LogConfig{
			Path: filepath.Join(appDir(os.UserCacheDir), appName+".log"),
		},
	}
}

// appDir returns the application's subdirectory of the directory base
// reports, falling back to ~/.config.
func appDir(base func() (string, error)) string {
	dir, err := base()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}
