package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Server    Server    `yaml:"server"`
	Output    Output    `yaml:"output"`
	Logging   Logging   `yaml:"logging"`
	Brand     Brand     `yaml:"brand"`
	Cards     Cards     `yaml:"cards"`
	Theme     Theme     `yaml:"theme"`
	KeepAlive KeepAlive `yaml:"keepalive"`
}

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// Brand is printed on exported cards and captions.
type Brand struct {
	Name   string `yaml:"name"`
	Domain string `yaml:"domain"`
}

type Cards struct {
	ToneMarkers []string `yaml:"tone_markers"`
}

// Theme holds the colors used to render stamps and score rings.
type Theme struct {
	Stamps map[string]StampStyle `yaml:"stamps"`
	Scores ScoreColors           `yaml:"scores"`
}

type StampStyle struct {
	Background string `yaml:"background" json:"background"`
	Text       string `yaml:"text" json:"text"`
	Border     string `yaml:"border" json:"border"`
}

type ScoreColors struct {
	Low    ScoreColor `yaml:"low"`
	Medium ScoreColor `yaml:"medium"`
	High   ScoreColor `yaml:"high"`
}

type ScoreColor struct {
	Stroke string `yaml:"stroke" json:"stroke"`
	Text   string `yaml:"text" json:"text"`
}

type KeepAlive struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"`
	URL      string `yaml:"url"`
}

// Every parses the keep-alive interval.
func (k KeepAlive) Every() (time.Duration, error) {
	d, err := time.ParseDuration(k.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid keepalive interval %q: %w", k.Interval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("keepalive interval must be positive, got %s", d)
	}
	return d, nil
}

// ConfigDir returns the XDG config directory for hintaro.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "hintaro")
}

// DataDir returns the XDG data directory for hintaro.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "hintaro")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/hintaro/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'hintaro init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg, err := parse(nil)
	if err != nil {
		panic(err)
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Server:  Server{Host: "127.0.0.1", Port: 8000},
		Logging: Logging{Level: "INFO"},
		Brand:   Brand{Name: "Hintaro", Domain: "hintaro.com"},
		Cards: Cards{
			ToneMarkers: []string{"flirty", "teasing", "playful", "suggestive", "cheeky", "bold"},
		},
		Theme: defaultTheme(),
		KeepAlive: KeepAlive{
			Interval: "5m",
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Every stamp keeps a style, even when the file clears the map.
	for stamp, style := range defaultTheme().Stamps {
		if _, ok := cfg.Theme.Stamps[stamp]; !ok {
			if cfg.Theme.Stamps == nil {
				cfg.Theme.Stamps = make(map[string]StampStyle)
			}
			cfg.Theme.Stamps[stamp] = style
		}
	}

	return cfg, nil
}

func defaultTheme() Theme {
	return Theme{
		Stamps: map[string]StampStyle{
			"GREEN SIGNAL": {Background: "rgba(16,185,129,0.2)", Text: "#34d399", Border: "rgba(16,185,129,0.5)"},
			"MIXED SIGNAL": {Background: "rgba(245,158,11,0.2)", Text: "#fbbf24", Border: "rgba(245,158,11,0.5)"},
			"RED FLAG":     {Background: "rgba(239,68,68,0.2)", Text: "#f87171", Border: "rgba(239,68,68,0.5)"},
		},
		Scores: ScoreColors{
			Low:    ScoreColor{Stroke: "#ef4444", Text: "#f87171"},
			Medium: ScoreColor{Stroke: "#f59e0b", Text: "#fbbf24"},
			High:   ScoreColor{Stroke: "#10b981", Text: "#34d399"},
		},
	}
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// KeepAliveURL returns the URL pinged by the keep-alive job. It defaults to
// the local health endpoint.
func (c *Config) KeepAliveURL() string {
	if c.KeepAlive.URL != "" {
		return c.KeepAlive.URL
	}
	return fmt.Sprintf("http://127.0.0.1:%d/health", c.Server.Port)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
