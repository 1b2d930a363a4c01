package workspace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fineterm/internal/workspace"
	"fineterm/internal/workspace/workspacetest"
)

func TestProcessIDString(t *testing.T) {
	assert.Equal(t, "<none>", workspace.ProcessID("").String())
	assert.Equal(t, "com.apple.Terminal", workspace.ProcessID("com.apple.Terminal").String())
	assert.True(t, workspace.ProcessID("").IsZero())
}

func TestIsRunning(t *testing.T) {
	ws := workspacetest.New("com.fineterm.tool")
	ws.Launch("com.apple.Terminal")

	assert.True(t, workspace.IsRunning(ws, "com.apple.Terminal"))
	assert.True(t, workspace.IsRunning(ws, "com.fineterm.tool"))
	assert.False(t, workspace.IsRunning(ws, "com.apple.Safari"))
	assert.False(t, workspace.IsRunning(ws, ""))

	ws.Quit("com.apple.Terminal")
	assert.False(t, workspace.IsRunning(ws, "com.apple.Terminal"))
}

func TestFakeActivateMovesFocus(t *testing.T) {
	ws := workspacetest.New("tool")
	ws.Launch("term")

	assert.NoError(t, ws.Activate("term"))
	assert.Equal(t, workspace.ProcessID("term"), ws.Frontmost())
	assert.Error(t, ws.Activate("missing"))

	ws.StickyFocus = true
	assert.NoError(t, ws.Activate("tool"))
	assert.Equal(t, workspace.ProcessID("term"), ws.Frontmost())
	assert.Equal(t, []workspace.ProcessID{"term", "missing", "tool"}, ws.Activations())
}
