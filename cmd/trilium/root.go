package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dominic-sylvester/trilium/internal/config"
	"github.com/dominic-sylvester/trilium/internal/platform"
	"github.com/dominic-sylvester/trilium/pkg/treecache"
)

var (
	verbose    bool
	configPath string
	vaultPath  string
	remoteURL  string
	output     string

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trilium",
	Short: "Browse a note tree of labels, relations and templates",
	Long: `trilium loads a note tree from a vault of Markdown files or from a
remote trilium server and resolves inherited and templated attributes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(".env"); err != nil {
			return err
		}

		path := configPath
		if path == "" {
			path = config.FileName
			if root, err := platform.FindRoot("."); err == nil {
				path = filepath.Join(root, config.FileName)
			}
		}

		var err error
		if configPath != "" {
			cfg, err = config.Load(path)
		} else {
			cfg, err = config.LoadOptional(path)
		}
		if err != nil {
			return err
		}
		if err := cfg.ApplyEnv(); err != nil {
			return err
		}
		if vaultPath != "" {
			cfg.Vault.Path = vaultPath
		}
		if remoteURL != "" {
			cfg.Remote.URL = remoteURL
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		level, _ := config.ParseLevel(cfg.Log.Level)
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: trilium.toml at the vault root)")
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", "", "Vault directory")
	rootCmd.PersistentFlags().StringVar(&remoteURL, "remote", "", "Base URL of a trilium server")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
}

// openCache opens the tree configured for this invocation.
func openCache(ctx context.Context, extra ...platform.Option) (*treecache.TreeCache, error) {
	opts := append(platform.FromConfig(cfg, slog.Default()), extra...)
	cache, err := platform.New(ctx, cfg.Source(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Source(), err)
	}
	return cache, nil
}

// printValue writes v in the structured --output format. It reports false
// for text output, leaving the caller to print.
func printValue(w io.Writer, v any) (bool, error) {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return true, enc.Encode(v)
	case "text", "":
		return false, nil
	}
	return true, fmt.Errorf("unknown output format %q", output)
}
