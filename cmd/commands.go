package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"fineterm/internal/autostart"
	"fineterm/internal/config"
	"fineterm/internal/workspace"
)

// Swapped out by tests.
var (
	newWorkspace   = workspace.New
	newLaunchAgent = autostart.Default
)

func newCheckCmd() *cobra.Command {
	var prompt bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether the accessibility permission is granted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := newWorkspace()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Process:       %s\n", ws.Self())
			if ws.Trusted(prompt) {
				fmt.Fprintln(out, "Accessibility: granted")
				return nil
			}
			fmt.Fprintln(out, "Accessibility: not granted")
			fmt.Fprintln(out, "Open System Settings > Privacy & Security > Accessibility and enable FineTerm.")
			return errors.New("accessibility permission not granted")
		},
	}
	cmd.Flags().BoolVar(&prompt, "prompt", false, "show the system permission prompt")
	return cmd
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change the configuration file",
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgMgr, err := openConfig(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfgMgr.Path())
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgMgr, err := openConfig(opts)
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfgMgr.Get())
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <true|false>",
		Short: "Change a boolean setting",
		Long: `Change a boolean setting and save it. Supported keys:
  ` + strings.Join(config.BoolKeys(), "\n  "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid value %q: want true or false", args[1])
			}
			cfgMgr, err := openConfig(opts)
			if err != nil {
				return err
			}
			if err := cfgMgr.SetBool(args[0], value); err != nil {
				return err
			}
			if err := cfgMgr.Save(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %t\n", args[0], value)
			return nil
		},
	}

	configCmd.AddCommand(pathCmd, showCmd, setCmd)
	return configCmd
}

// setStartAtLogin updates the login item and records the choice in the
// config, so the next launch does not undo it.
func setStartAtLogin(opts *rootOptions, enabled bool) error {
	agent, err := newLaunchAgent()
	if err != nil {
		return err
	}
	if enabled {
		err = agent.Enable()
	} else {
		err = agent.Disable()
	}
	if err != nil {
		return err
	}

	cfgMgr, err := openConfig(opts)
	if err != nil {
		return err
	}
	if err := cfgMgr.SetBool(config.KeyStartAtLogin, enabled); err != nil {
		return err
	}
	if err := cfgMgr.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func newAutostartCmd(opts *rootOptions) *cobra.Command {
	autostartCmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage the login item",
	}
	autostartCmd.AddCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Start FineTerm at login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := setStartAtLogin(opts, true); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Start at login enabled")
				return nil
			},
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Stop starting FineTerm at login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := setStartAtLogin(opts, false); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Start at login disabled")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether the login item is installed",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				agent, err := newLaunchAgent()
				if err == nil && agent.IsEnabled() {
					fmt.Fprintln(cmd.OutOrStdout(), "enabled")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "disabled")
				}
			},
		},
	)
	return autostartCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fineterm version %s\n", version)
		},
	}
}
