package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/natefinch/atomic"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	AppName               = "moiratui"
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "moiratui.db"
	DefaultAPIURL         = "http://localhost:8081/api"
	DefaultPageSize       = 20
	DefaultTimeout        = "15s"
)

type Keymap struct {
	Quit         string `toml:"quit"`
	Up           string `toml:"up"`
	Down         string `toml:"down"`
	NextPage     string `toml:"next_page"`
	PrevPage     string `toml:"prev_page"`
	OnlyProblems string `toml:"only_problems"`
	Tags         string `toml:"tags"`
	ToggleTag    string `toml:"toggle_tag"`
	ClearTags    string `toml:"clear_tags"`
	Search       string `toml:"search"`
	Back         string `toml:"back"`
	Forward      string `toml:"forward"`
	Refresh      string `toml:"refresh"`
	Confirm      string `toml:"confirm"`
	Cancel       string `toml:"cancel"`
	// Trigger detail view.
	Events           string `toml:"events"`
	Maintenance      string `toml:"maintenance"`
	RemoveMetric     string `toml:"remove_metric"`
	RemoveThrottling string `toml:"remove_throttling"`
}

type Auth struct {
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type Config struct {
	APIURL         string            `toml:"api_url"`
	DBPath         string            `toml:"db_path"`
	PageSize       int               `toml:"page_size"`
	RequestTimeout string            `toml:"request_timeout"`
	LogLevel       string            `toml:"log_level"`
	Auth           Auth              `toml:"auth"`
	Headers        map[string]string `toml:"headers,omitempty"`
	Keys           Keymap            `toml:"keys"`
}

// ResolveConfigPath returns $MOIRATUI_CONFIG or the XDG config location.
func ResolveConfigPath() string {
	if p := os.Getenv("MOIRATUI_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, AppName, DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing the defaults there first
// when the file does not exist.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath()
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.RequestTimeout == "" {
		cfg.RequestTimeout = DefaultTimeout
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the values the program cannot run without.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("api_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url: scheme must be http or https, got %q", u.Scheme)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("request_timeout: %w", err)
	}
	return nil
}

// Timeout is the per-request API timeout.
func (c Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// Level maps log_level to a slog level; unknown values mean info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

func defaultDBPath() string {
	return filepath.Join(xdg.DataHome, AppName, DefaultDBName)
}

func defaultConfig() Config {
	return Config{
		APIURL:         DefaultAPIURL,
		DBPath:         defaultDBPath(),
		PageSize:       DefaultPageSize,
		RequestTimeout: DefaultTimeout,
		LogLevel:       "info",
		Keys: Keymap{
			Quit:         "q",
			Up:           "k",
			Down:         "j",
			NextPage:     "]",
			PrevPage:     "[",
			OnlyProblems: "p",
			Tags:         "t",
			ToggleTag:    " ",
			ClearTags:    "x",
			Search:       "/",
			Back:         "b",
			Forward:      "f",
			Refresh:      "r",
			Confirm:      "enter",
			Cancel:       "esc",

			Events:           "e",
			Maintenance:      "m",
			RemoveMetric:     "d",
			RemoveThrottling: "u",
		},
	}
}
