package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Payload shapes a route can declare. See router for the request bodies
// they produce.
const (
	PayloadShapeParts = "parts"
	PayloadShapeFlat  = "flat"
)

// Storage backends.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

// RouteConfig binds a logical model id to a backend invocation.
type RouteConfig struct {
	ID           string `toml:"id"`
	Endpoint     string `toml:"endpoint"`
	Model        string `toml:"model"`
	PayloadShape string `toml:"payload_shape"`
	Referer      string `toml:"referer,omitempty"`
	Title        string `toml:"title,omitempty"`
}

type StorageConfig struct {
	Backend string `toml:"backend"`
}

type AuthConfig struct {
	URL    string `toml:"url,omitempty"`
	APIKey string `toml:"api_key,omitempty"`
}

type ImageConfig struct {
	Endpoint string `toml:"endpoint"`
}

type UserConfig struct {
	DefaultModel string        `toml:"default_model"`
	Theme        string        `toml:"theme"`
	LogLevel     string        `toml:"log_level"`
	Storage      StorageConfig `toml:"storage"`
	Auth         AuthConfig    `toml:"auth"`
	Image        ImageConfig   `toml:"image"`
	Routes       []RouteConfig `toml:"routes"`
}

// Config is the resolved runtime view of the system and user configuration.
type Config struct {
	DataDirectory string
	DefaultModel  string
	Theme         string
	LogLevel      string
	Storage       StorageConfig
	Auth          AuthConfig
	Image         ImageConfig
	Routes        []RouteConfig

	CredentialStore *CredentialStore
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// Route returns the route bound to the given model id, or nil.
func (c *Config) Route(id string) *RouteConfig {
	for i := range c.Routes {
		if c.Routes[i].ID == id {
			return &c.Routes[i]
		}
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("MOSEB_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if model := os.Getenv("MOSEB_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if level := os.Getenv("MOSEB_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

// Load reads settings.toml for the data directory, then the user config and
// credentials from the data directory. Missing files fall back to defaults;
// environment variables override both.
func Load() (*Config, error) {
	sys := DefaultSystemConfig()
	settingsPath := GetSettingsFilePath()
	if FileExists(settingsPath) {
		if _, err := toml.DecodeFile(settingsPath, sys); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", settingsPath, err)
		}
	}

	cfg := &Config{DataDirectory: sys.DataDirectory}
	cfg.applyEnvOverrides()

	user, err := LoadUserConfig(cfg.DataDir())
	if err != nil {
		return nil, err
	}
	cfg.DefaultModel = user.DefaultModel
	cfg.Theme = user.Theme
	cfg.LogLevel = user.LogLevel
	cfg.Storage = user.Storage
	cfg.Auth = user.Auth
	cfg.Image = user.Image
	cfg.Routes = user.Routes
	cfg.applyEnvOverrides()

	creds := NewCredentialStore()
	if err := creds.Load(cfg.DataDir()); err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	cfg.CredentialStore = creds

	return cfg, nil
}

// LoadUserConfig reads config.toml from the data directory, falling back to
// defaults when the file is missing. Unset fields take their default values.
func LoadUserConfig(dataDir string) (*UserConfig, error) {
	user := DefaultUserConfig()

	path := UserConfigPath(dataDir)
	if !FileExists(path) {
		return user, nil
	}

	loaded := &UserConfig{}
	if _, err := toml.DecodeFile(path, loaded); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if loaded.DefaultModel != "" {
		user.DefaultModel = loaded.DefaultModel
	}
	if loaded.Theme != "" {
		user.Theme = loaded.Theme
	}
	if loaded.LogLevel != "" {
		user.LogLevel = loaded.LogLevel
	}
	if loaded.Storage.Backend != "" {
		user.Storage = loaded.Storage
	}
	if loaded.Auth.URL != "" {
		user.Auth = loaded.Auth
	}
	if loaded.Image.Endpoint != "" {
		user.Image = loaded.Image
	}
	if len(loaded.Routes) > 0 {
		user.Routes = loaded.Routes
	}

	return user, nil
}

// SaveUserConfig writes config.toml to the data directory.
func SaveUserConfig(user *UserConfig, dataDir string) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	f, err := os.OpenFile(UserConfigPath(dataDir), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(user); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
