package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dominic-sylvester/trilium/internal/platform"
	"github.com/dominic-sylvester/trilium/pkg/adapters/lifecycle"
	"github.com/dominic-sylvester/trilium/pkg/core"
)

var watchTypes []string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print note changes in the vault until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		types := make([]core.EventType, 0, len(watchTypes))
		for _, t := range watchTypes {
			typ := core.EventType(strings.ToUpper(t))
			switch typ {
			case core.EventCreate, core.EventModify, core.EventDelete:
				types = append(types, typ)
			default:
				return fmt.Errorf("unknown change type %q", t)
			}
		}

		repo, err := platform.Init(ctx, cfg.Source(), platform.FromConfig(cfg, nil)...)
		if err != nil {
			return err
		}
		w, ok := repo.(core.Watchable)
		if !ok {
			return errors.New("this repository cannot report changes")
		}
		src := lifecycle.NewSource(w, lifecycle.OnlyTypes(types...))
		if err := src.Start(ctx); err != nil {
			return err
		}
		for e := range src.Events() {
			fmt.Fprintln(cmd.OutOrStdout(), e.String())
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().StringSliceVar(&watchTypes, "type", nil, "Only changes of these types (create, modify, delete)")
	rootCmd.AddCommand(watchCmd)
}
