package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dominic-sylvester/trilium/internal/platform"
	"github.com/dominic-sylvester/trilium/pkg/adapters/fs"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the vault scan index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Remote.URL != "" {
			return fmt.Errorf("reindex needs a local vault, not %s", cfg.Remote.URL)
		}

		repo, err := platform.Init(cmd.Context(), cfg.Vault.Path, platform.FromConfig(cfg, nil)...)
		if err != nil {
			return err
		}
		vault, ok := repo.(*fs.Repository)
		if !ok {
			return fmt.Errorf("unexpected repository %T", repo)
		}
		if err := vault.Reindex(cmd.Context()); err != nil {
			return err
		}

		state := vault.State().(fs.RepositoryState)
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d files, %d notes\n", state.IndexSize, state.Notes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
