package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/lightdimmer/internal/config"
	"github.com/coreman2200/lightdimmer/internal/encoder"
	"github.com/coreman2200/lightdimmer/internal/led"
)

func writeConfig(t *testing.T, mutate func(c *config.Config)) string {
	t.Helper()
	dir := t.TempDir()
	c := config.Default()
	c.Patches.Path = filepath.Join(dir, "patches.eeprom")
	c.Log.Level = "error"
	if mutate != nil {
		mutate(&c)
	}
	path := filepath.Join(dir, "dimmer.yaml")
	require.NoError(t, config.Save(path, &c))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPatchesSetAndList(t *testing.T) {
	cfg := writeConfig(t, nil)

	out, err := execute(t, "patches", "set", "3", "#102030ff", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "patch 3 = #102030ff")

	// six digits keep the stored main level
	out, err = execute(t, "patches", "set", "3", "#AABBCC", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "patch 3 = #aabbccff")

	out, err = execute(t, "patches", "list", "--config", cfg)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 11)
	assert.Contains(t, lines[4], "#aabbccff")
	assert.Contains(t, lines[1], "#00000000")
}

func TestPatchesSetRejectsBadInput(t *testing.T) {
	cfg := writeConfig(t, nil)
	_, err := execute(t, "patches", "set", "10", "#000000", "--config", cfg)
	assert.Error(t, err)
	_, err = execute(t, "patches", "set", "1", "#GG0000", "--config", cfg)
	assert.Error(t, err)
	_, err = execute(t, "patches", "set", "x", "#000000", "--config", cfg)
	assert.Error(t, err)
}

func TestExplicitMissingConfigFails(t *testing.T) {
	_, err := execute(t, "patches", "list", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func loadWith(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	o := &options{}
	cmd := &cobra.Command{Use: "check"}
	o.bind(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return o.load(cmd)
}

func TestFlagsOverrideOnlyWhenSet(t *testing.T) {
	path := writeConfig(t, func(c *config.Config) {
		c.Hardware = "real"
		c.Log.Format = "json"
	})

	got, err := loadWith(t, "--config", path, "--log-level", "debug")
	require.NoError(t, err)
	assert.Equal(t, "real", got.Hardware, "--sim not given")
	assert.Equal(t, "json", got.Log.Format)
	assert.Equal(t, "debug", got.Log.Level)

	got, err = loadWith(t, "--config", path, "--sim", "--log-format", "console")
	require.NoError(t, err)
	assert.Equal(t, "sim", got.Hardware)
	assert.Equal(t, "console", got.Log.Format)
}

func TestMissingDefaultConfigUsesDefaults(t *testing.T) {
	got, err := loadWith(t, "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, config.Default().Movement, got.Movement)
}

func TestInvalidConfigRejected(t *testing.T) {
	path := writeConfig(t, func(c *config.Config) { c.Movement.AverageSamples = 0 })
	_, err := loadWith(t, "--config", path)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestCommandBytes(t *testing.T) {
	assert.Equal(t, []byte("g"), commandBytes("g"))
	assert.Equal(t, []byte{'\a'}, commandBytes("credits"))
	assert.Equal(t, []byte("#AABBCC\n"), commandBytes("#AABBCC"))
}

func TestSettingsFromConfig(t *testing.T) {
	c := config.Default()
	c.Channels.EnableMain = false
	c.Movement.MaxDeviation = 9
	c.Boot.Authors = []string{"Ada"}
	s := settings(&c)
	assert.False(t, s.EnableMain)
	assert.Equal(t, uint8(9), s.MaxDeviation)
	assert.Contains(t, s.Banner, "Author(s): Ada\r\n")
	assert.Contains(t, s.CreditsText, "Ada")

	c.Boot.Banner = false
	assert.Empty(t, settings(&c).Banner)
}

func TestSimPeripherals(t *testing.T) {
	c := config.Default()
	c.Hardware = "sim"
	p, err := openPeripherals(&c, encoder.NewQueue(1))
	require.NoError(t, err)
	defer p.Close()
	assert.True(t, p.sim)
	assert.Nil(t, p.encoder)
	assert.IsType(t, &led.Fake{}, p.strip)
	require.NotNil(t, p.main)

	c.Channels.EnableMain = false
	p, err = openPeripherals(&c, encoder.NewQueue(1))
	require.NoError(t, err)
	assert.Nil(t, p.main)
}
