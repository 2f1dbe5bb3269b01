package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v2"

	"github.com/matt-g-everett/spritetx/sprite"
	"github.com/matt-g-everett/spritetx/stream"
)

// Config is the daemon configuration. It is read from YAML and then
// overridden from SPRITETX_* environment variables.
type Config struct {
	Mqtt struct {
		URL      string        `yaml:"url" env:"MQTT_URL"`
		Username string        `yaml:"username" env:"MQTT_USERNAME"`
		Password string        `yaml:"password" env:"MQTT_PASSWORD"`
		ClientID string        `yaml:"clientID" env:"MQTT_CLIENT_ID"`
		Topics   stream.Topics `yaml:"topics"`
	} `yaml:"mqtt"`

	HTTP struct {
		Addr string `yaml:"addr" env:"HTTP_ADDR"`
	} `yaml:"http"`

	Assets struct {
		Dir          string        `yaml:"dir" env:"ASSET_DIR"`
		FetchTimeout time.Duration `yaml:"fetchTimeout" env:"ASSET_FETCH_TIMEOUT"`
	} `yaml:"assets"`

	Actor struct {
		ID        string `yaml:"id" env:"ACTOR_ID"`
		IdleLoops int    `yaml:"idleLoops"`
		// States maps a state name to its asset and timing.
		States map[string]StateConfig `yaml:"states"`
	} `yaml:"actor"`

	Splash struct {
		Enabled bool          `yaml:"enabled"`
		Fade    time.Duration `yaml:"fade"`
		Surface string        `yaml:"surface"`
	} `yaml:"splash"`
}

// StateConfig is the per-state asset locator and timing.
type StateConfig struct {
	Source   string        `yaml:"source"`
	Fallback time.Duration `yaml:"fallback"`
	Minimum  time.Duration `yaml:"minimum"`
}

// Default returns a Config with every optional field filled in.
func Default() Config {
	var c Config
	c.Mqtt.ClientID = "spritetx"
	c.Mqtt.Topics = stream.Topics{
		Playback:   "spritetx/playback",
		Ack:        "spritetx/ack",
		Pointer:    "spritetx/pointer",
		Visibility: "spritetx/visibility",
	}
	c.HTTP.Addr = ":3000"
	c.Assets.Dir = "assets"
	c.Assets.FetchTimeout = 10 * time.Second
	c.Actor.IdleLoops = 2
	c.Splash.Enabled = true
	c.Splash.Fade = 500 * time.Millisecond
	c.Splash.Surface = "#0f172a"
	return c
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides.
func Load(path string) (Config, error) {
	c := Default()

	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&c); err != nil {
		return c, fmt.Errorf("decode config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(&c, env.Options{Prefix: "SPRITETX_"}); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}

	return c, c.Validate()
}

// Validate checks the fields the daemon cannot run without.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.Sources(); err != nil {
		errs = append(errs, err)
	}
	if c.Actor.IdleLoops < 1 {
		errs = append(errs, errors.New("actor.idleLoops must be at least 1"))
	}
	if _, err := colorful.Hex(c.Splash.Surface); err != nil {
		errs = append(errs, fmt.Errorf("splash.surface: %w", err))
	}
	return errors.Join(errs...)
}

// Sources returns the locator for each configured state.
func (c Config) Sources() (sprite.Sources, error) {
	sources := make(sprite.Sources, len(c.Actor.States))
	for name, sc := range c.Actor.States {
		state, err := sprite.ParseState(name)
		if err != nil {
			return nil, fmt.Errorf("actor.states: %w", err)
		}
		sources[state] = sc.Source
	}
	for _, s := range []sprite.State{sprite.Idle, sprite.LookAround, sprite.Acknowledge} {
		if sources[s] == "" {
			return nil, fmt.Errorf("actor.states.%s.source is required", s)
		}
	}
	return sources, nil
}

// Timings returns the configured fallback and minimum durations by state.
// States without a value are left out.
func (c Config) Timings() (fallbacks, minimums map[sprite.State]time.Duration) {
	fallbacks = make(map[sprite.State]time.Duration)
	minimums = make(map[sprite.State]time.Duration)
	for name, sc := range c.Actor.States {
		state, err := sprite.ParseState(name)
		if err != nil {
			continue
		}
		if sc.Fallback > 0 {
			fallbacks[state] = sc.Fallback
		}
		if sc.Minimum > 0 {
			minimums[state] = sc.Minimum
		}
	}
	return fallbacks, minimums
}

// SurfaceColor returns the splash surface colour.
func (c Config) SurfaceColor() colorful.Color {
	col, err := colorful.Hex(c.Splash.Surface)
	if err != nil {
		return colorful.Color{}
	}
	return col
}
