// Package autostart registers the process as a per-user login item.
package autostart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"text/template"
)

// Label is the launchd job label.
const Label = "com.fineterm.agent"

// ErrUnsupported is returned on platforms without launchd.
var ErrUnsupported = errors.New("start at login is only supported on macOS")

const macLaunchAgentPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
    <key>ProcessType</key>
    <string>Interactive</string>
</dict>
</plist>
`

var plistTemplate = template.Must(template.New("plist").Parse(macLaunchAgentPlist))

// LaunchAgent manages one plist in a LaunchAgents directory.
type LaunchAgent struct {
	Dir        string
	Executable string
}

// Default returns the agent for the current user and executable.
func Default() (*LaunchAgent, error) {
	if runtime.GOOS != "darwin" {
		return nil, ErrUnsupported
	}
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &LaunchAgent{
		Dir:        filepath.Join(home, "Library", "LaunchAgents"),
		Executable: execPath,
	}, nil
}

// Path returns the plist location.
func (a *LaunchAgent) Path() string {
	return filepath.Join(a.Dir, Label+".plist")
}

// Enable writes the plist.
func (a *LaunchAgent) Enable() error {
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return err
	}
	f, err := os.Create(a.Path())
	if err != nil {
		return err
	}
	defer f.Close()

	return plistTemplate.Execute(f, struct {
		Label          string
		ExecutablePath string
	}{Label, a.Executable})
}

// Disable removes the plist; a missing plist is not an error.
func (a *LaunchAgent) Disable() error {
	if err := os.Remove(a.Path()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsEnabled reports whether the plist exists.
func (a *LaunchAgent) IsEnabled() bool {
	_, err := os.Stat(a.Path())
	return err == nil
}

// Enable enables auto-start on login
func Enable() error {
	a, err := Default()
	if err != nil {
		return err
	}
	return a.Enable()
}

// Disable disables auto-start on login
func Disable() error {
	a, err := Default()
	if err != nil {
		return err
	}
	return a.Disable()
}

// Apply makes the login item match want.
func Apply(want bool) error {
	if want {
		return Enable()
	}
	if runtime.GOOS != "darwin" {
		return nil
	}
	return Disable()
}
