package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zurustar/mwscript/pkg/cli"
	"github.com/zurustar/mwscript/pkg/logger"
	"github.com/zurustar/mwscript/pkg/lsp"
	"github.com/zurustar/mwscript/pkg/manifest"
	"github.com/zurustar/mwscript/pkg/world"
)

func newLSPCmd() *cobra.Command {
	config := cli.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Finish(cmd.Flags(), nil, nil); err != nil {
				return err
			}

			// stdout carries the protocol
			if err := logger.InitLogger(config.LogLevel, os.Stderr); err != nil {
				return err
			}
			lsp.Configure(logger.Verbosity(config.LogLevel))

			ctx := world.New(nil)
			var m *manifest.Manifest
			if config.ManifestPath != "" {
				var err error
				m, err = manifest.Load(os.DirFS(filepath.Dir(config.ManifestPath)), filepath.Base(config.ManifestPath))
				if err != nil {
					return err
				}
				if ctx, err = world.FromManifest(m, nil); err != nil {
					return fmt.Errorf("failed to build world context: %w", err)
				}
			}

			logger.GetLogger().Info("Starting language server", "version", version, "manifest", config.ManifestPath)
			return lsp.NewServer(version, ctx, m, config.Warnings()).RunStdio()
		},
	}

	cmd.Flags().StringVarP(&config.ManifestPath, "manifest", "m", "", "declaration manifest (globals, objects, script locals)")
	cmd.Flags().StringVarP(&config.LogLevel, "log-level", "l", config.LogLevel, "log level: debug, info, warn, error")
	cmd.Flags().StringVarP(&config.WarningsMode, "warnings", "w", config.WarningsMode, "warnings mode: ignore, normal, error")
	return cmd
}
