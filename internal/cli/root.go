// Package cli implements the heapoverflow command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/heapoverflow/internal/config"
	"github.com/mesh-intelligence/heapoverflow/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// loadConfig resolves the config directory and loads the configuration,
// writing a default config.yaml on first run.
func (f *rootFlags) loadConfig() (*config.Config, error) {
	dir, err := paths.ResolveConfigDir(f.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	return config.Load(dir, f.dataDir)
}

// NewRootCmd creates the top-level "heapoverflow" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "heapoverflow",
		Short: "A help-desk bot for Discord guilds",
		Long: "heapoverflow lets members open questions in dedicated threads, picked\n" +
			"from staff-managed categories, and lets staff close them with a reason.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/heapoverflow)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/heapoverflow)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(flags))
	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newCategoriesCmd(flags))
	root.AddCommand(newQuestionsCmd(flags))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// userError marks failures caused by bad invocation rather than the system.
type userError struct{ error }

func (e userError) Unwrap() error { return e.error }

func exitCode(err error) int {
	if _, ok := err.(userError); ok {
		return exitUserError
	}
	return exitSysError
}
