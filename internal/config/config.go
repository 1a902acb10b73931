package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultProfile       = "default"
	DefaultModel         = "gpt-4o-mini"
	DefaultWidth         = 120
	DefaultMaxToolRounds = 25
	DefaultQuitKeyword   = "quit"
	DefaultLogLevel      = "info"

	envPrefix = "CLANKER"
)

type Profile struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Model   string `mapstructure:"model" yaml:"model"`
}

// TerminalConfig describes the output terminal.
type TerminalConfig struct {
	Width int `mapstructure:"width" yaml:"width"`
}

// SessionConfig tunes the interactive session.
type SessionConfig struct {
	// HistoryLimit caps the transcript suffix sent with each prompt; 0 sends
	// everything.
	HistoryLimit  int    `mapstructure:"history_limit" yaml:"history_limit"`
	MaxToolRounds int    `mapstructure:"max_tool_rounds" yaml:"max_tool_rounds"`
	QuitKeyword   string `mapstructure:"quit_keyword" yaml:"quit_keyword"`
	SystemPrompt  string `mapstructure:"system_prompt" yaml:"system_prompt,omitempty"`
}

// LogConfig selects the log level and destination. File "-" means stderr,
// empty means clanker.log next to the config file.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file,omitempty"`
}

type Config struct {
	ActiveProfile string             `mapstructure:"active_profile" yaml:"active_profile"`
	Profiles      map[string]Profile `mapstructure:"profiles" yaml:"profiles"`
	Terminal      TerminalConfig     `mapstructure:"terminal" yaml:"terminal"`
	Session       SessionConfig      `mapstructure:"session" yaml:"session"`
	Log           LogConfig          `mapstructure:"log" yaml:"log"`

	path           string
	currentProfile *Profile
	override       Profile
}

// DefaultConfig returns the configuration written on first start.
func DefaultConfig() *Config {
	return &Config{
		ActiveProfile: DefaultProfile,
		Profiles: map[string]Profile{
			DefaultProfile: {Model: DefaultModel},
		},
		Terminal: TerminalConfig{Width: DefaultWidth},
		Session: SessionConfig{
			MaxToolRounds: DefaultMaxToolRounds,
			QuitKeyword:   DefaultQuitKeyword,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// DefaultPath returns $CLANKER_HOME/.clanker/config.yaml, falling back to the
// user's home directory when CLANKER_HOME is unset.
func DefaultPath() (string, error) {
	var configDir string

	if home := os.Getenv(envPrefix + "_HOME"); home != "" {
		configDir = home
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = homeDir
	}

	return filepath.Join(configDir, ".clanker", "config.yaml"), nil
}

// Load reads the configuration at path, creating it with defaults when it
// does not exist. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = defaultPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		cfg.path = path
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	defaults := DefaultConfig()
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("active_profile", defaults.ActiveProfile)
	v.SetDefault("terminal.width", defaults.Terminal.Width)
	v.SetDefault("session.history_limit", defaults.Session.HistoryLimit)
	v.SetDefault("session.max_tool_rounds", defaults.Session.MaxToolRounds)
	v.SetDefault("session.quit_keyword", defaults.Session.QuitKeyword)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.path = path
	cfg.override = Profile{
		APIKey:  os.Getenv(envPrefix + "_API_KEY"),
		BaseURL: os.Getenv(envPrefix + "_BASE_URL"),
		Model:   os.Getenv(envPrefix + "_MODEL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := cfg.setCurrentProfile(); err != nil {
		return nil, fmt.Errorf("failed to set current profile: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Terminal.Width < 2 {
		return fmt.Errorf("terminal.width must be at least 2, got %d", c.Terminal.Width)
	}
	if c.Session.HistoryLimit < 0 {
		return fmt.Errorf("session.history_limit must not be negative, got %d", c.Session.HistoryLimit)
	}
	if c.Session.MaxToolRounds <= 0 {
		c.Session.MaxToolRounds = DefaultMaxToolRounds
	}
	if strings.TrimSpace(c.Session.QuitKeyword) == "" {
		c.Session.QuitKeyword = DefaultQuitKeyword
	}
	return nil
}

func (c *Config) IsValid() bool {
	return c.currentProfile != nil && c.GetAPIKey() != ""
}

func (c *Config) GetAPIKey() string {
	if c.override.APIKey != "" {
		return c.override.APIKey
	}
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.APIKey
}

func (c *Config) GetModel() string {
	if c.override.Model != "" {
		return c.override.Model
	}
	if c.currentProfile == nil || c.currentProfile.Model == "" {
		return DefaultModel
	}
	return c.currentProfile.Model
}

func (c *Config) GetBaseURL() string {
	if c.override.BaseURL != "" {
		return c.override.BaseURL
	}
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.BaseURL
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// LogPath returns the log destination, "-" for stderr.
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(filepath.Dir(c.path), "clanker.log")
}

// ProfileNames returns the profile names sorted.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetActiveProfile switches to an existing profile.
func (c *Config) SetActiveProfile(name string) error {
	name = normalizeName(name)
	if _, exists := c.Profiles[name]; !exists {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	c.ActiveProfile = name
	return c.setCurrentProfile()
}

// AddProfile adds a new profile. Names are case-insensitive.
func (c *Config) AddProfile(name string, profile Profile) error {
	name = normalizeName(name)
	if name == "" {
		return errors.New("profile name must not be empty")
	}
	if _, exists := c.Profiles[name]; exists {
		return fmt.Errorf("profile '%s' already exists", name)
	}
	if c.Profiles == nil {
		c.Profiles = make(map[string]Profile)
	}
	c.Profiles[name] = profile
	return nil
}

// UpdateProfile replaces an existing profile.
func (c *Config) UpdateProfile(name string, profile Profile) error {
	name = normalizeName(name)
	if _, exists := c.Profiles[name]; !exists {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	c.Profiles[name] = profile
	if name == c.ActiveProfile {
		return c.setCurrentProfile()
	}
	return nil
}

// DeleteProfile removes a profile. Deleting the active profile activates the
// first remaining one, or a fresh default profile when none is left.
func (c *Config) DeleteProfile(name string) error {
	name = normalizeName(name)
	if _, exists := c.Profiles[name]; !exists {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	delete(c.Profiles, name)

	if len(c.Profiles) == 0 {
		c.Profiles[DefaultProfile] = Profile{Model: DefaultModel}
	}
	if c.ActiveProfile == name {
		c.ActiveProfile = c.ProfileNames()[0]
	}
	return c.setCurrentProfile()
}

// Save writes the configuration back to its file.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file path")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(c.path, data, 0o600)
}

func (c *Config) setCurrentProfile() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("no profiles defined")
	}

	profile, exists := c.Profiles[c.ActiveProfile]
	if !exists {
		// fall back to the first profile by name
		c.ActiveProfile = c.ProfileNames()[0]
		profile = c.Profiles[c.ActiveProfile]
	}

	c.currentProfile = &profile
	return nil
}

// viper lowercases map keys, so profile names are stored lowercase.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
