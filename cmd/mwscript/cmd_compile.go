package main

import (
	"github.com/spf13/cobra"

	"github.com/zurustar/mwscript/pkg/app"
	"github.com/zurustar/mwscript/pkg/cli"
)

func newCompileCmd() *cobra.Command {
	return newPipelineCmd("compile [dir|file.mwscript]", "Compile scripts and report diagnostics", false)
}

func newDumpCmd() *cobra.Command {
	return newPipelineCmd("dump [dir|file.mwscript]", "Compile scripts and print their disassembly", true)
}

// newPipelineCmd builds a command running the compile pipeline. dump forces
// the disassembly output.
func newPipelineCmd(use, short string, dump bool) *cobra.Command {
	config := cli.DefaultConfig()

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Finish(cmd.Flags(), args, nil); err != nil {
				return err
			}
			if dump {
				config.Dump = true
			}

			_, err := app.New(config, cmd.OutOrStdout(), cmd.ErrOrStderr()).Run()
			return err
		},
	}

	config.BindFlags(cmd.Flags())
	return cmd
}
