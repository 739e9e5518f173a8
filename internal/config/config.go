// Package config loads settings from flags, RETROCOUCH_* environment
// variables and an optional config file, in that order of precedence.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Gamepad backends.
const (
	GamepadsWeb  = "web"
	GamepadsSDL  = "sdl"
	GamepadsNone = "none"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "RETROCOUCH"

// Config is the resolved configuration.
type Config struct {
	Listen     string `mapstructure:"listen"`
	Store      string `mapstructure:"store"`
	TickRate   int    `mapstructure:"tick-rate"`
	Tray       bool   `mapstructure:"tray"`
	Debug      bool   `mapstructure:"debug"`
	ConfigFile string `mapstructure:"config"`
	Input      Input  `mapstructure:"input"`
	Canvas     Canvas `mapstructure:"canvas"`
}

type Input struct {
	Gamepads string `mapstructure:"gamepads"`
}

type Canvas struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// DefaultStorePath is where settings are saved when no path is configured.
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "retrocouch.json"
	}
	return filepath.Join(dir, "retrocouch", "settings.json")
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("retrocouch", pflag.ContinueOnError)
	fs.String("listen", ":8080", "HTTP listen address")
	fs.String("store", DefaultStorePath(), "settings file")
	fs.Int("tick-rate", 60, "frame loop ticks per second")
	fs.String("gamepads", GamepadsWeb, "gamepad backend: web, sdl or none")
	fs.Bool("tray", runtime.GOOS == "windows", "show a system tray icon")
	fs.Bool("debug", false, "verbose logging")
	fs.Int("canvas-width", 800, "initial game canvas width")
	fs.Int("canvas-height", 480, "initial game canvas height")
	fs.StringP("config", "c", "", "config file (json, yaml or toml)")
	return fs
}

// Load parses args on top of the environment and the config file.
func Load(args []string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), args)
}

// LoadFs is Load reading the config file from fsys.
func LoadFs(fsys afero.Fs, args []string) (*Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, "cannot parse flags")
	}

	v := viper.New()
	v.SetFs(fsys)
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Wrap(err, "cannot bind flags")
	}
	// nested keys keep their own flag names
	for key, flag := range map[string]string{
		"input.gamepads": "gamepads",
		"canvas.width":   "canvas-width",
		"canvas.height":  "canvas-height",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, errors.Wrapf(err, "cannot bind %s", flag)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "cannot read config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "cannot decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Input.Gamepads {
	case GamepadsWeb, GamepadsSDL, GamepadsNone:
	default:
		return errors.Errorf("unknown gamepad backend %q", c.Input.Gamepads)
	}
	if c.TickRate <= 0 || c.TickRate > 1000 {
		return errors.Errorf("tick-rate must be in 1..1000, got %d", c.TickRate)
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return errors.Errorf("invalid canvas size %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Store == "" {
		return errors.New("store path is required")
	}
	return nil
}

// URL is the address the frontend is reachable at from this machine.
func (c *Config) URL() string {
	host := c.Listen
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host
}
