package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fineterm/internal/autostart"
	"fineterm/internal/config"
	"fineterm/internal/workspace"
	"fineterm/internal/workspace/workspacetest"
)

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

func TestRootCommandLayout(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "fineterm", root.Use)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"check", "config", "autostart", "version"}, names)
	assert.NotNil(t, root.Flags().Lookup("no-tray"))
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "fineterm version "+version+"\n", out)
}

func TestConfigPathAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := execute(t, "config", "path", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, path, strings.TrimSpace(out))

	out, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "[activation]")
	assert.Contains(t, out, `terminal = "com.apple.Terminal"`)
}

func TestConfigSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := execute(t, "config", "set", config.KeyPasteOnRightClick, "false", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "mouse.paste_on_right_click = false")

	m := config.NewManagerAt(path)
	require.NoError(t, m.Load())
	assert.False(t, m.Get().Mouse.PasteOnRightClick)
}

func TestConfigSetRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	_, err := execute(t, "config", "set", "general.nope", "true", "--config", path)
	assert.ErrorIs(t, err, config.ErrUnknownKey)

	_, err = execute(t, "config", "set", config.KeyDebug, "maybe", "--config", path)
	assert.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	fake := workspacetest.New("com.fineterm.app")
	newWorkspace = func() workspace.Workspace { return fake }
	t.Cleanup(func() { newWorkspace = workspace.New })

	out, err := execute(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Accessibility: granted")

	fake.SetTrusted(false)
	out, err = execute(t, "check")
	assert.Error(t, err)
	assert.Contains(t, out, "not granted")
}

func TestAutostartPersistsStartAtLogin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	agent := &autostart.LaunchAgent{Dir: filepath.Join(dir, "LaunchAgents"), Executable: "/usr/local/bin/fineterm"}
	newLaunchAgent = func() (*autostart.LaunchAgent, error) { return agent, nil }
	t.Cleanup(func() { newLaunchAgent = autostart.Default })

	out, err := execute(t, "autostart", "enable", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "enabled")
	assert.True(t, agent.IsEnabled())

	m := config.NewManagerAt(path)
	require.NoError(t, m.Load())
	assert.True(t, m.Get().General.StartAtLogin)

	out, err = execute(t, "autostart", "status")
	require.NoError(t, err)
	assert.Equal(t, "enabled\n", out)

	_, err = execute(t, "autostart", "disable", "--config", path)
	require.NoError(t, err)
	assert.False(t, agent.IsEnabled())

	m = config.NewManagerAt(path)
	require.NoError(t, m.Load())
	assert.False(t, m.Get().General.StartAtLogin)
}
