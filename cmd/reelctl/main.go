package main

import (
	"os"

	"github.com/reelforge/reelforge/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	command := NewReelCtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewReelCtlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reelctl [flags] [options]",
		Short: "reelctl inspects video jobs of a reelforge service.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdGet())
	cmd.AddCommand(cli.NewCmdWatch())
	cmd.AddCommand(cli.NewCmdQuote())
	cmd.AddCommand(cli.NewCmdRefresh())
	cmd.AddCommand(cli.NewCmdConfigure())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
