// Package config loads fab's settings from .fab.yml, FAB_* environment
// variables and command-line flags through viper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	fabErrors "github.com/conneroisu/fab/internal/errors"
	"github.com/conneroisu/fab/internal/logging"
)

// DefaultTrackingCapacity bounds how many constructed controllers are
// remembered when tracking is enabled.
const DefaultTrackingCapacity = 256

// Config is the root of fab's configuration.
type Config struct {
	Document DocumentConfig `mapstructure:"document" yaml:"document"`
	Manifest ManifestConfig `mapstructure:"manifest" yaml:"manifest"`
	Tracking TrackingConfig `mapstructure:"tracking" yaml:"tracking"`
	Models   ModelsConfig   `mapstructure:"models"   yaml:"models"`
	Server   ServerConfig   `mapstructure:"server"   yaml:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// DocumentConfig points at the HTML page controllers are built against.
// An empty path means an empty page.
type DocumentConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type ManifestConfig struct {
	Path     string        `mapstructure:"path"     yaml:"path"`
	Watch    bool          `mapstructure:"watch"    yaml:"watch"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type TrackingConfig struct {
	Enabled  bool `mapstructure:"enabled"  yaml:"enabled"`
	Capacity int  `mapstructure:"capacity" yaml:"capacity"`
}

// ModelsConfig toggles the model subsystem. When disabled, model specs
// are kept on the controller as plain data.
type ModelsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host"            yaml:"host"`
	Port           int      `mapstructure:"port"            yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	// Dir enables a rotated log file alongside stderr.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// SetDefaults registers every key with v so that environment variables
// are picked up by Unmarshal even when no config file mentions them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("document.path", "")
	v.SetDefault("manifest.path", "fab.yml")
	v.SetDefault("manifest.watch", true)
	v.SetDefault("manifest.debounce", 300*time.Millisecond)
	v.SetDefault("tracking.enabled", true)
	v.SetDefault("tracking.capacity", DefaultTrackingCapacity)
	v.SetDefault("models.enabled", true)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.dir", "")
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadFrom(v)
	if err != nil {
		panic(fmt.Sprintf("config: defaults do not validate: %v", err))
	}
	return cfg
}

// Load reads the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom decodes and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fabErrors.WrapConfig(err, fabErrors.ErrCodeConfigInvalid, "failed to decode configuration")
	}

	// an explicit empty string still means the default manifest
	if config.Manifest.Path == "" {
		config.Manifest.Path = "fab.yml"
	}
	if config.Server.AllowedOrigins == nil {
		config.Server.AllowedOrigins = []string{}
	}
	config.Logging.Level = strings.ToLower(config.Logging.Level)
	config.Logging.Format = strings.ToLower(config.Logging.Format)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs fabErrors.ValidationErrorCollection

	if c.Document.Path != "" {
		if err := validatePath(c.Document.Path); err != nil {
			errs.AddField("document.path", c.Document.Path, err.Error())
		}
	}
	if err := validatePath(c.Manifest.Path); err != nil {
		errs.AddField("manifest.path", c.Manifest.Path, err.Error())
	}
	if c.Manifest.Debounce < 0 {
		errs.AddField("manifest.debounce", c.Manifest.Debounce, "must not be negative")
	}
	if c.Tracking.Capacity < 0 {
		errs.AddField("tracking.capacity", c.Tracking.Capacity, "must not be negative",
			fmt.Sprintf("the default is %d", DefaultTrackingCapacity))
	}

	validateServerConfig(&c.Server, &errs)

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs.AddField("logging.level", c.Logging.Level, err.Error(),
			"use one of debug, info, warn, error, fatal")
	}
	switch c.Logging.Format {
	case "text", "json", "pretty":
	default:
		errs.AddField("logging.format", c.Logging.Format, "unknown log format",
			"use one of text, json, pretty")
	}
	if c.Logging.Dir != "" {
		if err := validatePath(c.Logging.Dir); err != nil {
			errs.AddField("logging.dir", c.Logging.Dir, err.Error())
		}
	}

	if !errs.HasErrors() {
		return nil
	}
	fe := errs.ToFabError(fabErrors.ErrCodeConfigInvalid)
	fe.Type = fabErrors.ErrorTypeConfig
	return fe
}

func validateServerConfig(config *ServerConfig, errs *fabErrors.ValidationErrorCollection) {
	// 0 lets the system pick a port
	if config.Port < 0 || config.Port > 65535 {
		errs.AddField("server.port", config.Port, fmt.Sprintf("port %d is not in valid range 0-65535", config.Port))
	}

	if config.Host != "" {
		if char, ok := dangerousChar(config.Host, `\`); ok {
			errs.AddField("server.host", config.Host, "host contains dangerous character: "+char)
		}
	}

	for _, origin := range config.AllowedOrigins {
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs.AddField("server.allowed_origins", origin, "origin must be an http or https URL",
				"for example http://localhost:3000")
		}
	}
}

func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}
	if char, ok := dangerousChar(cleanPath); ok {
		return fmt.Errorf("path contains dangerous character: %s", char)
	}
	return nil
}

func dangerousChar(s string, extra ...string) (string, bool) {
	chars := append([]string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}, extra...)
	for _, char := range chars {
		if strings.Contains(s, char) {
			return char, true
		}
	}
	return "", false
}

// LoggerConfig translates the logging section for the logging package.
func (c *LoggingConfig) LoggerConfig() (*logging.LoggerConfig, error) {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		return nil, fabErrors.WrapConfig(err, fabErrors.ErrCodeConfigInvalid, "invalid log level")
	}
	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = c.Format
	return lc, nil
}

// Save writes c as YAML, refusing to overwrite an existing file.
func (c *Config) Save(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fabErrors.WrapIO(err, fabErrors.ErrCodeConfigInvalid, "failed to create config file").WithFile(path)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fabErrors.WrapIO(err, fabErrors.ErrCodeConfigInvalid, "failed to write config file").WithFile(path)
	}
	return enc.Close()
}
