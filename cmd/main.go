// FineTerm - Terminal focus loop and clipboard helper
// A macOS menu bar utility driving global shortcuts and mouse gestures in Terminal
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"fineterm/internal/autostart"
	"fineterm/internal/config"
	"fineterm/internal/logging"
	"fineterm/internal/service"
	"fineterm/internal/singleinstance"
	"fineterm/internal/tray"
	"fineterm/internal/workspace"
)

var version = "0.3.0"

// The menu bar loop must own the main thread.
func init() {
	runtime.LockOSThread()
}

type rootOptions struct {
	configPath string
	debug      bool
	noTray     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "fineterm",
		Short:        "Focus loop and copy/paste gestures for Terminal",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(cmd.Context(), opts)
		},
		DisableAutoGenTag: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is the per-user config directory)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "force debug logging")
	root.Flags().BoolVar(&opts.noTray, "no-tray", false, "run without the menu bar item until interrupted")

	root.AddCommand(newCheckCmd())
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newAutostartCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// openConfig loads the config selected by --config or the default one.
func openConfig(opts *rootOptions) (*config.Manager, error) {
	var cfgMgr *config.Manager
	if opts.configPath != "" {
		cfgMgr = config.NewManagerAt(opts.configPath)
	} else {
		m, err := config.NewManager()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize config: %w", err)
		}
		cfgMgr = m
	}
	if err := cfgMgr.Load(); err != nil {
		slog.Warn("failed to load config, using defaults", "path", cfgMgr.Path(), "error", err)
	}
	return cfgMgr, nil
}

func runService(ctx context.Context, opts *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logging.Setup(os.Stderr, opts.debug)

	cfgMgr, err := openConfig(opts)
	if err != nil {
		return err
	}
	dir := filepath.Dir(cfgMgr.Path())

	if f, err := logging.OpenFile(dir, "fineterm.log"); err == nil {
		defer f.Close()
		logging.Setup(io.MultiWriter(os.Stderr, f), opts.debug)
	}
	applyDebug := func(s config.Settings) {
		logging.SetDebug(opts.debug || s.General.Debug)
	}
	applyDebug(cfgMgr.Get())
	cfgMgr.RegisterChangeCallback(applyDebug)

	lock, err := singleinstance.Acquire(dir)
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		return fmt.Errorf("%w (pid %d)", err, singleinstance.Owner(dir))
	}
	if err != nil {
		return err
	}
	defer lock.Release()

	slog.Info("FineTerm starting", "version", version, "config", cfgMgr.Path())

	ws := workspace.New()
	if !ws.Trusted(true) {
		slog.Warn("accessibility permission not granted; grant it in System Settings > Privacy & Security > Accessibility")
	}

	svc := service.New(service.Options{Config: cfgMgr, Workspace: ws})
	svc.OnToggleOverlay(func() {
		slog.Info("overlay shortcut pressed")
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := svc.Start(runCtx); err != nil {
		return err
	}
	defer svc.Stop()

	if err := cfgMgr.Watch(runCtx); err != nil {
		slog.Warn("config hot reload unavailable", "error", err)
	}

	if err := autostart.Apply(cfgMgr.Get().General.StartAtLogin); err != nil {
		slog.Warn("failed to apply start at login", "error", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if opts.noTray {
		slog.Info("FineTerm running headless. Press Ctrl+C to stop.")
		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		slog.Info("Shutting down...")
		return nil
	}

	t := tray.New(cfgMgr)
	t.SetStatus(statusLine(svc))
	t.OnChange(func(old, updated config.Settings) {
		if old.General.StartAtLogin != updated.General.StartAtLogin {
			if err := autostart.Apply(updated.General.StartAtLogin); err != nil {
				slog.Warn("failed to apply start at login", "error", err)
			}
		}
	})
	// systray.Quit terminates the process on macOS without returning from
	// Run, so the deferred cleanup above only runs through OnExit.
	t.OnExit(func() {
		cancel()
		svc.Stop()
		lock.Release()
		slog.Info("FineTerm stopped")
	})
	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		slog.Info("Shutting down...")
		t.Stop()
	}()

	slog.Info("FineTerm running")
	t.Run()
	return nil
}

func statusLine(svc *service.Service) string {
	if svc.Warning() != nil && !svc.Intercepting() {
		return "Accessibility permission missing"
	}
	if svc.Warning() != nil {
		return "Interception partially active"
	}
	return "Interception active"
}
