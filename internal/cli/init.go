package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/heapoverflow/pkg/store"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

func newInitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long:  "Create the configuration and data directories, write a default config.yaml\nif none exists, and create the storage schema.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			if cfg.Store.Backend == types.BackendSQLite {
				if err := os.MkdirAll(cfg.Store.DataDir, 0o755); err != nil {
					return fmt.Errorf("create data directory: %w", err)
				}
			}

			s, err := store.Open(cmd.Context(), cfg.Store)
			if err != nil {
				return fmt.Errorf("initialize storage: %w", err)
			}
			if err := s.Close(); err != nil {
				return fmt.Errorf("finalize storage: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config: %s\n", cfg.ConfigDir)
			if cfg.Store.Backend == types.BackendSQLite {
				fmt.Fprintf(out, "data:   %s\n", cfg.Store.DataDir)
			}
			fmt.Fprintln(out, "heapoverflow initialized successfully")
			return nil
		},
	}
}
