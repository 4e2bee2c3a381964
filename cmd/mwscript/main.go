package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "mwscript",
		Short:        "Compiler and language server for Morrowind-style game scripts",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newCompileCmd())
	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newLSPCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
