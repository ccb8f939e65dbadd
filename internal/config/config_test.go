package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "strata.toml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default.Startup, c.Startup)
	assert.True(t, c.Caps.ExitOnFirstClientExit)
	assert.Equal(t, []string{"layer-shell"}, c.Caps.LayerShell)
	assert.Equal(t, "top", c.LayerShell.Layer)
	assert.Equal(t, 100, c.Focus.LayerPriority)
	assert.Equal(t, []uint32{0x110, 0x111}, c.Focus.Buttons)
	assert.Len(t, c.Keymod, 3)
	assert.Empty(t, c.Outputs)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
startup = ["foot", "--server"]

[log]
level = "debug"

[caps]
layer_shell = ["layer-shell", "layer-shell-overlay"]

[layer_shell]
layer = "bottom"

[focus]
layer_priority = 5
wm_priority = 10
buttons = [272]

[[outputs]]
name = "HDMI-A-1"
x = 1920
y = 0
width = 2560
height = 1440
scale = 1.5

[[keymod]]
key = 58
emit = 1
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, []string{"foot", "--server"}, c.Startup)
	assert.Equal(t, []string{"layer-shell", "layer-shell-overlay"}, c.Caps.LayerShell)
	assert.True(t, c.Caps.ExitOnFirstClientExit)
	assert.Equal(t, "bottom", c.LayerShell.Layer)
	assert.Equal(t, 5, c.Focus.LayerPriority)
	assert.Equal(t, 10, c.Focus.WMPriority)
	assert.Equal(t, []uint32{272}, c.Focus.Buttons)
	assert.Equal(t, []OutputConfig{{
		Name:   "HDMI-A-1",
		X:      1920,
		Width:  2560,
		Height: 1440,
		Scale:  1.5,
	}}, c.Outputs)
	assert.Equal(t, []KeymodConfig{{Key: 58, Emit: 1}}, c.Keymod)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "InvalidTOML", data: "[log\nlevel = 3"},
		{name: "UnnamedOutput", data: "[[outputs]]\nx = 3"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, test.data))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
