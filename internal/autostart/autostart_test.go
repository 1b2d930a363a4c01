package autostart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunchAgentLifecycle(t *testing.T) {
	a := &LaunchAgent{
		Dir:        filepath.Join(t.TempDir(), "LaunchAgents"),
		Executable: "/Applications/FineTerm.app/Contents/MacOS/fineterm",
	}
	assert.False(t, a.IsEnabled())

	require.NoError(t, a.Enable())
	assert.True(t, a.IsEnabled())
	assert.Equal(t, "com.fineterm.agent.plist", filepath.Base(a.Path()))

	data, err := os.ReadFile(a.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "<string>com.fineterm.agent</string>")
	assert.Contains(t, string(data), "<string>/Applications/FineTerm.app/Contents/MacOS/fineterm</string>")
	assert.Contains(t, string(data), "<key>RunAtLoad</key>\n    <true/>")

	require.NoError(t, a.Disable())
	assert.False(t, a.IsEnabled())
	require.NoError(t, a.Disable(), "disabling twice is fine")
}
