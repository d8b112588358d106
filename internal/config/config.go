// Package config reads junctionbox settings from the environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the runner settings. Every field can be overridden by a
// command-line flag.
type Config struct {
	Width  float64 `env:"JUNCTIONBOX_WIDTH"  envDefault:"1024"`
	Height float64 `env:"JUNCTIONBOX_HEIGHT" envDefault:"768"`

	TargetHost string `env:"JUNCTIONBOX_TARGET_HOST" envDefault:"127.0.0.1"`
	TargetPort int    `env:"JUNCTIONBOX_TARGET_PORT" envDefault:"9000"`
	ListenAddr string `env:"JUNCTIONBOX_LISTEN_ADDR"`

	Scene   string `env:"JUNCTIONBOX_SCENE"`
	Watch   bool   `env:"JUNCTIONBOX_WATCH"`
	Script  string `env:"JUNCTIONBOX_SCRIPT"`
	TakesDB string `env:"JUNCTIONBOX_TAKES_DB"`
	Window  bool   `env:"JUNCTIONBOX_WINDOW"`
	Peers   string `env:"JUNCTIONBOX_PEERS"`
	Debug   bool   `env:"JUNCTIONBOX_DEBUG"`

	Connect  string `env:"JUNCTIONBOX_CONNECT"`
	SaveTake string `env:"JUNCTIONBOX_SAVE_TAKE"`
	LoadTake string `env:"JUNCTIONBOX_LOAD_TAKE"`
	// ListTakes prints the take library and exits. Flag only.
	ListTakes bool

	LogLevel  string `env:"JUNCTIONBOX_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"JUNCTIONBOX_LOG_FORMAT" envDefault:"text"`
}

// Load reads envFile when it exists, then parses the environment. Variables
// already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	cfg, err := parseEnv(envFile)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseConfig loads envFile and the environment, then lets flags in args
// override the result.
func ParseConfig(flags *flag.FlagSet, args []string, envFile string) (Config, error) {
	cfg, err := parseEnv(envFile)
	if err != nil {
		return Config{}, err
	}
	cfg.BindFlags(flags)
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseEnv(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// BindFlags registers a flag for every field, defaulting to the current
// value.
func (c *Config) BindFlags(flags *flag.FlagSet) {
	flags.Float64Var(&c.Width, "width", c.Width, "bounding box width")
	flags.Float64Var(&c.Height, "height", c.Height, "bounding box height")
	flags.StringVar(&c.TargetHost, "target-host", c.TargetHost, "OSC target host")
	flags.IntVar(&c.TargetPort, "target-port", c.TargetPort, "OSC target port")
	flags.StringVar(&c.ListenAddr, "listen", c.ListenAddr, "NDEF listen address, empty disables")
	flags.StringVar(&c.Scene, "scene", c.Scene, "scene document (.yaml, .json or .xml)")
	flags.BoolVar(&c.Watch, "watch", c.Watch, "reload the scene when it changes")
	flags.StringVar(&c.Script, "script", c.Script, "JSON script to run")
	flags.StringVar(&c.TakesDB, "takes", c.TakesDB, "SQLite take library path")
	flags.BoolVar(&c.Window, "window", c.Window, "open an input window")
	flags.StringVar(&c.Peers, "peers", c.Peers, "YAML peer registry to load and save")
	flags.BoolVar(&c.Debug, "debug", c.Debug, "enable hierarchy debug checks")
	flags.StringVar(&c.Connect, "connect", c.Connect, "send a connection request to the target under this label")
	flags.StringVar(&c.SaveTake, "save-take", c.SaveTake, "save the timeline as a take with this name on exit")
	flags.StringVar(&c.LoadTake, "load-take", c.LoadTake, "restore the take with this id at startup")
	flags.BoolVar(&c.ListTakes, "list-takes", c.ListTakes, "list stored takes and exit")
	flags.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	flags.StringVar(&c.LogFormat, "log-format", c.LogFormat, "text or json")
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("bounding box %gx%g must be positive", c.Width, c.Height))
	}
	if c.TargetPort <= 0 || c.TargetPort > 65535 {
		errs = append(errs, fmt.Errorf("target port %d out of range", c.TargetPort))
	}
	if strings.TrimSpace(c.TargetHost) == "" {
		errs = append(errs, errors.New("target host is required"))
	}
	if c.Watch && c.Scene == "" {
		errs = append(errs, errors.New("watch requires a scene"))
	}
	if (c.SaveTake != "" || c.LoadTake != "" || c.ListTakes) && c.TakesDB == "" {
		errs = append(errs, errors.New("take options require a take library"))
	}
	return errors.Join(errs...)
}
