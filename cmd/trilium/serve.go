package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dominic-sylvester/trilium/internal/platform"
	"github.com/dominic-sylvester/trilium/pkg/server"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the note tree over HTTP",
	Long: `Serve the note tree over HTTP. Other trilium processes can open the
served tree with --remote.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		watch := cfg.Cache.Watch || serveWatch

		cache, err := openCache(ctx, platform.WithWatch(watch))
		if err != nil {
			return err
		}

		srv := server.New(cache, server.WithLogger(slog.Default()))
		return srv.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "Follow vault changes")
	rootCmd.AddCommand(serveCmd)
}
