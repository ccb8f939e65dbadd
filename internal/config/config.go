// Package config loads the compositor's configuration using Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the compositor's configuration.
type Config struct {
	Log     LogConfig      `mapstructure:"log"`
	Startup []string       `mapstructure:"startup"`
	Caps    CapsConfig     `mapstructure:"caps"`

	LayerShell LayerShellConfig `mapstructure:"layer_shell"`

	Focus   FocusConfig    `mapstructure:"focus"`
	Outputs []OutputConfig `mapstructure:"outputs"`
	Keymod  []KeymodConfig `mapstructure:"keymod"`

	// SnapshotDir is where layered snapshots are saved.
	SnapshotDir string `mapstructure:"snapshot_dir"`
}

type LogConfig struct {
	Level string `mapstructure:"level"` // Overrides LOG_LEVEL if set.
}

type CapsConfig struct {
	// ExitOnFirstClientExit shuts the compositor down when the first
	// client to connect, usually the startup command, disconnects.
	ExitOnFirstClientExit bool `mapstructure:"exit_on_first_client_exit"`

	// LayerShell lists the capabilities that the startup command passes
	// on to layer shell clients.
	LayerShell []string `mapstructure:"layer_shell"`
}

type LayerShellConfig struct {
	// Layer is the band that layer surfaces are placed in.
	Layer string `mapstructure:"layer"`
}

// FocusConfig controls the order in which activation handlers see
// clicks and touches.
type FocusConfig struct {
	LayerPriority int      `mapstructure:"layer_priority"`
	WMPriority    int      `mapstructure:"wm_priority"`
	Buttons       []uint32 `mapstructure:"buttons"`
}

// OutputConfig describes how a named output should be laid out. An X
// and Y of -1 places the output automatically.
type OutputConfig struct {
	Name      string  `mapstructure:"name"`
	X         int     `mapstructure:"x"`
	Y         int     `mapstructure:"y"`
	Width     int     `mapstructure:"width"`
	Height    int     `mapstructure:"height"`
	Scale     float32 `mapstructure:"scale"`
	Transform int     `mapstructure:"transform"`
}

// KeymodConfig binds a tap of Key to Emit. Both are Linux input event
// codes.
type KeymodConfig struct {
	Key  uint32 `mapstructure:"key"`
	Emit uint32 `mapstructure:"emit"`
}

var Default = Config{
	Startup:     []string{"alacritty"},
	SnapshotDir: ".",
	Caps: CapsConfig{
		ExitOnFirstClientExit: true,
		LayerShell:            []string{"layer-shell"},
	},
	LayerShell: LayerShellConfig{
		Layer: "top",
	},
	Focus: FocusConfig{
		LayerPriority: 100,
		WMPriority:    0,
		Buttons:       []uint32{0x110, 0x111},
	},
	Keymod: []KeymodConfig{
		{Key: 58, Emit: 1},   // Caps Lock -> Escape
		{Key: 42, Emit: 179}, // Left Shift -> (
		{Key: 54, Emit: 180}, // Right Shift -> )
	},
}

// Load reads the configuration. If path is empty, strata.toml is
// searched for in the user's config directory and then in the current
// directory, and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("strata")
	v.SetConfigType("toml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		for _, dir := range searchPaths() {
			v.AddConfigPath(dir)
		}
	}

	v.SetDefault("log.level", Default.Log.Level)
	v.SetDefault("startup", Default.Startup)
	v.SetDefault("caps.exit_on_first_client_exit", Default.Caps.ExitOnFirstClientExit)
	v.SetDefault("caps.layer_shell", Default.Caps.LayerShell)
	v.SetDefault("layer_shell.layer", Default.LayerShell.Layer)
	v.SetDefault("focus.layer_priority", Default.Focus.LayerPriority)
	v.SetDefault("focus.wm_priority", Default.Focus.WMPriority)
	v.SetDefault("focus.buttons", Default.Focus.Buttons)
	v.SetDefault("keymod", Default.Keymod)
	v.SetDefault("snapshot_dir", Default.SnapshotDir)

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	err = v.Unmarshal(&c)
	if err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	for i := range c.Outputs {
		if c.Outputs[i].Name == "" {
			return nil, fmt.Errorf("output %v: missing name", i)
		}
	}

	return &c, nil
}

func searchPaths() []string {
	var paths []string
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, "strata"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "strata"))
	}
	return append(paths, ".")
}
