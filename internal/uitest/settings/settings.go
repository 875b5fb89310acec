// Package settings loads the framework configuration from defaults, an
// optional YAML file, a .env file and UITEST_* environment variables, in
// that order.
package settings

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/grez-lucas/uitest/internal/uitest/logger"
)

var ErrInvalidSettings = errors.New("invalid settings")

// DriverKind selects the browser driver backend.
type DriverKind string

const (
	DriverSelenium DriverKind = "selenium"
	DriverRod      DriverKind = "rod"
	DriverHTML     DriverKind = "html"
)

const envPrefix = "UITEST_"

type Settings struct {
	Driver           DriverKind `yaml:"driver"`
	RemoteURL        string     `yaml:"remote_url"`
	Browser          string     `yaml:"browser"`
	Headless         bool       `yaml:"headless"`
	Stealth          bool       `yaml:"stealth"`
	ChromeDriverPath string     `yaml:"chromedriver_path"`
	ChromeDriverPort int        `yaml:"chromedriver_port"`

	BaseURL     string `yaml:"base_url"`
	FixturesDir string `yaml:"fixtures_dir"`

	Timeout       time.Duration `yaml:"timeout"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	// StrictSearch makes single-element lookups fail when the locator
	// matches more than one element.
	StrictSearch bool `yaml:"strict_search"`

	LogLevel              string   `yaml:"log_level"`
	LogInfoTypes          []string `yaml:"log_info_types"`
	LogFindElementLocator bool     `yaml:"log_find_element_locator"`
	LogFormat             string   `yaml:"log_format"` // console or json

	ScreenshotDir string `yaml:"screenshot_dir"`
}

func Default() Settings {
	return Settings{
		Driver:           DriverRod,
		Browser:          "chrome",
		Headless:         true,
		ChromeDriverPort: 9515,
		Timeout:          10 * time.Second,
		RetryInterval:    100 * time.Millisecond,
		LogLevel:         "info",
		LogInfoTypes:     []string{"business", "framework", "technical"},
		LogFormat:        "console",
	}
}

// Load builds settings from defaults, the YAML file at path (skipped when
// path is empty), the .env file in the working directory when present, and
// the process environment.
func Load(path string) (Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("read settings file: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse settings file %s: %w", path, err)
		}
	}

	// Variables already set in the environment win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return s, fmt.Errorf("load .env: %w", err)
	}

	if err := s.applyEnv(os.LookupEnv); err != nil {
		return s, err
	}

	return s, s.Validate()
}

func (s *Settings) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(envPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidSettings, envPrefix, key, v, err)
		}
		*dst = b
		return nil
	}
	duration := func(key string, dst *time.Duration) error {
		v, ok := lookup(envPrefix + key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidSettings, envPrefix, key, v, err)
		}
		*dst = d
		return nil
	}

	var driver string
	str("DRIVER", &driver)
	if driver != "" {
		s.Driver = DriverKind(strings.ToLower(driver))
	}
	str("REMOTE_URL", &s.RemoteURL)
	str("BROWSER", &s.Browser)
	str("CHROMEDRIVER_PATH", &s.ChromeDriverPath)
	str("BASE_URL", &s.BaseURL)
	str("FIXTURES_DIR", &s.FixturesDir)
	str("LOG_LEVEL", &s.LogLevel)
	str("LOG_FORMAT", &s.LogFormat)
	str("SCREENSHOT_DIR", &s.ScreenshotDir)

	if v, ok := lookup(envPrefix + "LOG_INFO_TYPES"); ok {
		s.LogInfoTypes = strings.Split(v, ",")
	}
	if v, ok := lookup(envPrefix + "CHROMEDRIVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sCHROMEDRIVER_PORT=%q: %v", ErrInvalidSettings, envPrefix, v, err)
		}
		s.ChromeDriverPort = port
	}

	return errors.Join(
		boolean("HEADLESS", &s.Headless),
		boolean("STEALTH", &s.Stealth),
		boolean("STRICT_SEARCH", &s.StrictSearch),
		boolean("LOG_FIND_ELEMENT_LOCATOR", &s.LogFindElementLocator),
		duration("TIMEOUT", &s.Timeout),
		duration("RETRY_INTERVAL", &s.RetryInterval),
	)
}

func (s Settings) Validate() error {
	var errs []error

	switch s.Driver {
	case DriverSelenium:
		if s.RemoteURL == "" && s.ChromeDriverPath == "" {
			errs = append(errs, errors.New("selenium driver needs remote_url or chromedriver_path"))
		}
	case DriverRod:
	case DriverHTML:
		if s.FixturesDir == "" {
			errs = append(errs, errors.New("html driver needs fixtures_dir"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown driver %q", s.Driver))
	}

	if s.Timeout < 0 {
		errs = append(errs, fmt.Errorf("negative timeout %s", s.Timeout))
	}
	if s.RetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("retry interval must be positive, got %s", s.RetryInterval))
	}
	if _, err := logger.ParseLevel(s.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseInfoTypes(s.LogInfoTypes...); err != nil {
		errs = append(errs, err)
	}
	if s.LogFormat != "console" && s.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", s.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
	}
	return nil
}

// Level returns the parsed log level, Info when unparsable.
func (s Settings) Level() logger.Level {
	l, _ := logger.ParseLevel(s.LogLevel)
	return l
}

// InfoTypes returns the parsed info type set, all types when empty.
func (s Settings) InfoTypes() logger.InfoType {
	t, err := logger.ParseInfoTypes(s.LogInfoTypes...)
	if err != nil || t == 0 {
		return logger.AllInfoTypes
	}
	return t
}
