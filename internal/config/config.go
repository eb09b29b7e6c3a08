package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server ServerConfig `toml:"server"`
	Serve  ServeConfig  `toml:"serve"`
	UI     UIConfig     `toml:"ui"`
}

// ServerConfig points the client at a backend.
type ServerConfig struct {
	BaseURL string `toml:"base_url"`
}

// ServeConfig configures the bundled development API server.
type ServeConfig struct {
	Bind      string `toml:"bind"`
	DBPath    string `toml:"db_path"`
	JWTSecret string `toml:"jwt_secret"`
	Seed      bool   `toml:"seed"`
}

type UIConfig struct {
	ShowGlyphs bool   `toml:"show_glyphs"`
	DateFormat string `toml:"date_format"`
}

func Default(dbPath string) Config {
	return Config{
		Server: ServerConfig{
			BaseURL: "http://127.0.0.1:8080",
		},
		Serve: ServeConfig{
			Bind:   "127.0.0.1:8080",
			DBPath: dbPath,
			Seed:   true,
		},
		UI: UIConfig{
			ShowGlyphs: true,
			DateFormat: "2006-01-02 15:04",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	base := strings.TrimSpace(c.Server.BaseURL)
	if base == "" {
		return errors.New("server.base_url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("server.base_url must be an absolute URL: %q", c.Server.BaseURL)
	}

	if strings.TrimSpace(c.Serve.DBPath) == "" {
		return errors.New("serve.db_path is required")
	}
	if strings.TrimSpace(c.UI.DateFormat) == "" {
		return errors.New("ui.date_format is required")
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
