// Package cli provides the command-line interface for verixfer.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/verixfer/internal/cli/commands"
	"github.com/ccollicutt/verixfer/internal/cli/plugins"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	return run(NewRootCommand(), os.Args[1:])
}

func run(rootCmd *cobra.Command, args []string) int {
	// An unknown first word may name a plugin.
	if len(args) > 0 && isCommandWord(args[0]) && !isBuiltinCommand(rootCmd, args[0]) {
		if pluginPath, err := plugins.FindPlugin(args[0]); err == nil {
			return plugins.Execute(pluginPath, args[1:])
		}
		_, _ = fmt.Fprintln(rootCmd.ErrOrStderr(), plugins.FormatNotFoundError(args[0]))
		return 2
	}

	commands.ExitCode = 0
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors prevents Cobra from printing this itself.
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return 2
	}
	return commands.ExitCode
}

func isCommandWord(s string) bool {
	return s != "" && s[0] != '-'
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	// Cobra adds help and completion lazily.
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "verixfer",
		Short: "Validate xferlog FTP transfer logs",
		Long: `verixfer checks FTP transfer logs in the xferlog format used by wu-ftpd,
ProFTPD, vsftpd and others, and reports every line that is malformed.

For each invalid line it prints the line number, the first field that
failed (1-20) and the original line:

  <line>-<field>: <original line>

Run 'verixfer fields' for the field table and 'verixfer diagnose' to see
why a line was rejected.

PLUGINS:
  Unknown commands are looked up as standalone binaries named
  verixfer-<command>.

  Plugin locations (searched in order):
    1. Same directory as the verixfer binary
    2. ~/.verixfer/plugins/
    3. Anywhere in PATH`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewFieldsCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
