// Package config provides configuration management for FineTerm.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// ErrUnknownKey is returned by keyed accessors for keys that do not exist.
var ErrUnknownKey = errors.New("unknown config key")

// Modifier names the single modifier a shortcut is bound to.
type Modifier string

const (
	ModCommand Modifier = "command" // primary
	ModControl Modifier = "control" // secondary
	ModOption  Modifier = "option"  // tertiary
)

// Scope controls where a shortcut is honoured.
type Scope string

const (
	// ScopeTerminal only honours the shortcut while the Terminal is frontmost.
	ScopeTerminal Scope = "terminal"
	// ScopeGlobal honours the shortcut in every application.
	ScopeGlobal Scope = "global"
)

// Shortcut is a configured trigger: one key character plus one modifier.
type Shortcut struct {
	Key      string   `toml:"key"`
	Modifier Modifier `toml:"modifier"`
	Scope    Scope    `toml:"scope"`
}

func (s Shortcut) String() string {
	return string(s.Modifier) + "+" + strings.ToLower(s.Key)
}

// Same reports whether s and o describe the same physical key combination.
func (s Shortcut) Same(o Shortcut) bool {
	return strings.EqualFold(s.Key, o.Key) && s.Modifier == o.Modifier
}

// Settings represents the application configuration
type Settings struct {
	Activation ActivationConfig `toml:"activation"`
	Overlay    OverlayConfig    `toml:"overlay"`
	Mouse      MouseConfig      `toml:"mouse"`
	Apps       AppsConfig       `toml:"apps"`
	General    GeneralConfig    `toml:"general"`
}

// ActivationConfig holds the focus-loop shortcut and its behaviour flags
type ActivationConfig struct {
	Shortcut

	// LoopToTerminal moves focus from the tool to the Terminal on a second press
	LoopToTerminal bool `toml:"loop_to_terminal"`

	// LoopBackToOrigin returns focus from the Terminal to the origin app on a third press
	LoopBackToOrigin bool `toml:"loop_back_to_origin"`
}

// OverlayConfig holds the clipboard overlay shortcut
type OverlayConfig struct {
	Shortcut

	Enabled bool `toml:"enabled"`
}

// MouseConfig holds the clipboard automation settings for the Terminal
type MouseConfig struct {
	CopyOnSelect      bool    `toml:"copy_on_select"`
	PasteOnRightClick bool    `toml:"paste_on_right_click"`
	DragThreshold     float64 `toml:"drag_threshold"`
	SettleDelayMS     int     `toml:"settle_delay_ms"`
}

// AppsConfig identifies the processes taking part in the focus loop
type AppsConfig struct {
	// Terminal is the bundle identifier of the target terminal application
	Terminal string `toml:"terminal"`

	// Tool is this utility's identity; empty means the running process' own identity
	Tool string `toml:"tool"`

	// TransparentOwners are extra window owners hit-testing looks through
	TransparentOwners []string `toml:"transparent_owners"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug           bool `toml:"debug"`
	ReassertDelayMS int  `toml:"reassert_delay_ms"`
	StartAtLogin    bool `toml:"start_at_login"`
}

// DefaultSettings returns a new Settings with the stock behaviour
func DefaultSettings() Settings {
	return Settings{
		Activation: ActivationConfig{
			Shortcut:         Shortcut{Key: "n", Modifier: ModCommand, Scope: ScopeTerminal},
			LoopToTerminal:   true,
			LoopBackToOrigin: true,
		},
		Overlay: OverlayConfig{
			Shortcut: Shortcut{Key: "u", Modifier: ModCommand, Scope: ScopeGlobal},
			Enabled:  false,
		},
		Mouse: MouseConfig{
			CopyOnSelect:      true,
			PasteOnRightClick: true,
			DragThreshold:     5.0,
			SettleDelayMS:     250,
		},
		Apps: AppsConfig{
			Terminal: "com.apple.Terminal",
		},
		General: GeneralConfig{
			ReassertDelayMS: 50,
		},
	}
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.RWMutex
	configPath string
	settings   Settings
	onChanged  []func(Settings)
}

// NewManager creates a configuration manager for the default path
func NewManager() (*Manager, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath), nil
}

// NewManagerAt creates a configuration manager backed by path
func NewManagerAt(path string) *Manager {
	return &Manager{
		configPath: path,
		settings:   DefaultSettings(),
	}
}

// DefaultPath returns the path to the configuration file
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Dir returns the per-user configuration directory, creating it if needed
func Dir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "FineTerm")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "FineTerm")
	default:
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			base = filepath.Join(home, ".config")
		}
		configDir = filepath.Join(base, "fineterm")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// Path returns the file backing this manager
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk. A missing file is created with defaults.
func (m *Manager) Load() error {
	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		if err := m.Save(); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
		return nil
	}

	settings := DefaultSettings()
	if _, err := toml.DecodeFile(m.configPath, &settings); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	m.mu.Lock()
	prev := m.settings
	m.mu.Unlock()

	// Keep the previous value for every field that fails validation.
	if err := settings.Validate(); err != nil {
		slog.Warn("Config: invalid values, keeping previous ones", "path", m.configPath, "error", err)
		settings = settings.repair(prev)
	}
	if other, ok := settings.Conflicts(); ok {
		slog.Warn("Config: overlay shortcut aliases the activation shortcut; activation wins",
			"shortcut", other.String())
	}

	m.Set(settings)
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	settings := m.settings
	m.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}

	tmp := m.configPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(settings); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	slog.Debug("Config: saved", "path", m.configPath)
	return os.Rename(tmp, m.configPath)
}

// Get returns a snapshot of the current settings
func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.settings
	s.Apps.TransparentOwners = append([]string(nil), m.settings.Apps.TransparentOwners...)
	return s
}

// Set replaces the settings and notifies change callbacks
func (m *Manager) Set(settings Settings) {
	m.mu.Lock()
	m.settings = settings
	callbacks := append([]func(Settings){}, m.onChanged...)
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(settings)
	}
}

// Update applies fn to a copy of the settings and stores the result
func (m *Manager) Update(fn func(*Settings)) Settings {
	s := m.Get()
	fn(&s)
	m.Set(s)
	return s
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func(Settings)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = append(m.onChanged, fn)
}
