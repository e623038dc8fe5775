// Package config loads client tunables from a yaml file, with sane defaults
// when the file or individual fields are absent.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mossgate/voxelgarden/controller"
)

// Config is the client configuration file.
type Config struct {
	ServerURL       string  `yaml:"serverUrl"`
	AvatarID        string  `yaml:"avatarId"`
	MoveSpeed       float64 `yaml:"moveSpeed"`
	LookSensitivity float64 `yaml:"lookSensitivity"`
	EyeHeight       float64 `yaml:"eyeHeight"`
	Bindings        Keys    `yaml:"bindings"`
}

// Keys maps actions to DOM-style key codes. Empty fields keep their default.
type Keys struct {
	Forward string `yaml:"forward"`
	Back    string `yaml:"back"`
	Left    string `yaml:"left"`
	Right   string `yaml:"right"`
	Up      string `yaml:"up"`
	Down    string `yaml:"down"`
	Chat    string `yaml:"chat"`
	Build   string `yaml:"build"`
	Cancel  string `yaml:"cancel"`
}

// Default returns the reference configuration.
func Default() Config {
	s := controller.DefaultSettings()
	b := s.Bindings
	return Config{
		ServerURL:       "ws://localhost:8080/ws",
		MoveSpeed:       s.MoveSpeed,
		LookSensitivity: s.LookSensitivity,
		EyeHeight:       s.EyeHeight,
		Bindings: Keys{
			Forward: b.Forward, Back: b.Back, Left: b.Left, Right: b.Right,
			Up: b.Up, Down: b.Down, Chat: b.Chat, Build: b.Build, Cancel: b.Cancel,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error; it just
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.MoveSpeed <= 0 || cfg.LookSensitivity <= 0 || cfg.EyeHeight <= 0 {
		return Default(), fmt.Errorf("parse config %s: speeds and eye height must be positive", path)
	}
	return cfg, nil
}

// ControllerSettings converts the file form into controller tunables.
func (c Config) ControllerSettings() controller.Settings {
	s := controller.DefaultSettings()
	s.MoveSpeed = c.MoveSpeed
	s.LookSensitivity = c.LookSensitivity
	s.EyeHeight = c.EyeHeight
	s.Bindings = c.Bindings.bindings()
	return s
}

func (k Keys) bindings() controller.Bindings {
	b := controller.DefaultBindings()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&b.Forward, k.Forward)
	set(&b.Back, k.Back)
	set(&b.Left, k.Left)
	set(&b.Right, k.Right)
	set(&b.Up, k.Up)
	set(&b.Down, k.Down)
	set(&b.Chat, k.Chat)
	set(&b.Build, k.Build)
	set(&b.Cancel, k.Cancel)
	return b
}
