package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/liveserve-dev/liveserve/internal/errors"
)

const (
	// ConfigFileName is the name of the optional configuration file.
	ConfigFileName = "liveserve.json"

	// DefaultHost is the default bind host.
	DefaultHost = "0.0.0.0"

	// DefaultPort is the default HTTP server port.
	DefaultPort = 4000

	// DefaultIndexFile is the file served for directory requests.
	DefaultIndexFile = "index.html"

	// DefaultDebounce is the watcher debounce window in milliseconds.
	DefaultDebounce = 100
)

// Config represents the complete liveserve configuration. It is resolved
// once at startup (file, then flag overrides) and treated as immutable by
// everything downstream.
type Config struct {
	// Root is the directory tree to serve, relative to the config directory.
	Root string `json:"root,omitempty"`

	// Server contains listener configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Watch contains embedded file watcher configuration.
	Watch WatchConfig `json:"watch,omitempty"`

	// configDir is the directory the config was resolved against.
	configDir string
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	// Host is the bind host for the HTTP listener.
	Host string `json:"host,omitempty"`

	// Port is the HTTP listener port.
	Port int `json:"port,omitempty"`

	// WSPort, when nonzero, starts a dedicated websocket listener on this
	// port in addition to the reload endpoint on the main listener.
	WSPort int `json:"wsPort,omitempty"`

	// TriggerPort is the port for the localhost-only reload trigger
	// listener (default: Port + 1).
	TriggerPort int `json:"triggerPort,omitempty"`
}

// WatchConfig contains embedded file watcher settings.
type WatchConfig struct {
	// Enabled turns on the embedded file watcher.
	Enabled bool `json:"enabled,omitempty"`

	// Paths are additional directories to watch. The root directory is
	// always watched.
	Paths []string `json:"paths,omitempty"`

	// Ignore contains patterns to skip during watch.
	Ignore []string `json:"ignore,omitempty"`

	// DebounceMS is the debounce window in milliseconds.
	DebounceMS int `json:"debounceMs,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Root: ".",
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Watch: WatchConfig{
			DebounceMS: DefaultDebounce,
		},
		configDir: ".",
	}
}

// Load reads configuration from the specified directory. A missing
// liveserve.json is not an error; defaults are used.
func Load(dir string) (*Config, error) {
	cfg := New()
	cfg.configDir = dir

	data, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, errors.New("E120").Wrap(err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Root == "" {
		c.Root = "."
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.TriggerPort == 0 && c.Server.Port > 0 {
		c.Server.TriggerPort = c.Server.Port + 1
	}
	if c.Watch.DebounceMS == 0 {
		c.Watch.DebounceMS = DefaultDebounce
	}
	if c.configDir == "" {
		c.configDir = "."
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	for _, port := range []int{c.Server.Port, c.Server.WSPort, c.Server.TriggerPort} {
		if port < 0 || port > 65535 {
			return errors.New("E122").
				WithDetail("Port " + strconv.Itoa(port) + " is out of range")
		}
	}

	ports := map[int]bool{}
	for _, port := range []int{c.Server.Port, c.Server.WSPort, c.Server.TriggerPort} {
		if port == 0 {
			continue
		}
		if ports[port] {
			return errors.New("E123").
				WithDetail("Port " + strconv.Itoa(port) + " is used by more than one listener").
				WithSuggestion("Give each listener a distinct port")
		}
		ports[port] = true
	}

	info, err := os.Stat(c.RootPath())
	if err != nil {
		return errors.New("E140").
			WithDetail("Cannot access " + c.RootPath()).
			WithSuggestion("Pass an existing directory: liveserve <dir>").
			Wrap(err)
	}
	if !info.IsDir() {
		return errors.New("E141").
			WithDetail(c.RootPath() + " is a file, not a directory")
	}

	return nil
}

// Address returns the address string for the HTTP listener.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// URL returns the full URL for the HTTP listener.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// WSAddress returns the address string for the dedicated websocket
// listener, or "" when the reload endpoint shares the main listener.
func (c *Config) WSAddress() string {
	if c.Server.WSPort == 0 {
		return ""
	}
	return c.Server.Host + ":" + strconv.Itoa(c.Server.WSPort)
}

// TriggerAddress returns the address string for the trigger listener.
// The trigger surface is local-only and always binds the loopback interface.
func (c *Config) TriggerAddress() string {
	return "127.0.0.1:" + strconv.Itoa(c.Server.TriggerPort)
}

// RootPath returns the absolute path to the served directory.
func (c *Config) RootPath() string {
	if filepath.IsAbs(c.Root) {
		return filepath.Clean(c.Root)
	}
	abs, err := filepath.Abs(filepath.Join(c.configDir, c.Root))
	if err != nil {
		return filepath.Join(c.configDir, c.Root)
	}
	return abs
}

// WatchPaths returns the absolute paths the embedded watcher should monitor.
func (c *Config) WatchPaths() []string {
	paths := []string{c.RootPath()}
	for _, p := range c.Watch.Paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(c.configDir, p)
		}
		paths = append(paths, filepath.Clean(p))
	}
	return paths
}

// Debounce returns the watcher debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}
