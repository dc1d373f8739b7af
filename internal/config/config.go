package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"

	"fwatch/internal/eventbus"
)

// DefaultFileName is the project-local config file picked up from the working directory
const DefaultFileName = ".fwatch.toml"

// DefaultLogFile receives log output while the pager owns the terminal
const DefaultLogFile = "fwatch.log"

var (
	ErrNoDirectories = errors.New("at least one directory to watch is required")
	ErrEmptyCommand  = errors.New("command template is empty")
)

// Config represents the application configuration
type Config struct {
	Version   int      `toml:"version"`
	Roots     []string `toml:"roots"`
	Command   []string `toml:"command"`
	Extension string   `toml:"extension,omitempty"`
	Regex     string   `toml:"regex,omitempty"`
	Pager     bool     `toml:"pager"`
	Ignore    []string `toml:"ignore"`
	LogFile   string   `toml:"log_file,omitempty"`
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
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a config service rooted at dir
func NewConfigService(dir string) ConfigService {
	if dir == "" {
		dir = "."
	}
	return &configService{
		filePath: filepath.Join(dir, DefaultFileName),
	}
}

// NewConfigServiceWithBus creates a config service with event bus support
func NewConfigServiceWithBus(dir string, bus eventbus.EventBus) ConfigService {
	cs := NewConfigService(dir).(*configService)
	cs.bus = bus
	return cs
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration from the default file, falling back to defaults
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// Save saves the configuration to the default file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Extension = NormalizeExtension(cfg.Extension)

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{Path: path})
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

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: path})
	}

	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Roots:   []string{},
		Command: []string{},
		Ignore:  []string{},
	}
}

// NormalizeExtension strips a single leading dot so ".go" and "go" mean the same
func NormalizeExtension(ext string) string {
	return strings.TrimPrefix(ext, ".")
}

// CompiledRegex returns the compiled path filter, or nil when none is configured
func (c *Config) CompiledRegex() (*regexp.Regexp, error) {
	if c.Regex == "" {
		return nil, nil
	}
	re, err := regexp.Compile(c.Regex)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", c.Regex, err)
	}
	return re, nil
}

// Validate reports the first configuration problem that would prevent a run
func (c *Config) Validate() error {
	if len(c.Roots) == 0 {
		return ErrNoDirectories
	}
	if len(c.Command) == 0 || c.Command[0] == "" {
		return ErrEmptyCommand
	}
	if _, err := c.CompiledRegex(); err != nil {
		return err
	}
	for _, pattern := range c.Ignore {
		if !doublestar.ValidatePattern(strings.TrimSuffix(pattern, "/")) {
			return fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	return nil
}

// LogPath returns where log output should go, or "" for stderr
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	if c.Pager {
		return DefaultLogFile
	}
	return ""
}
