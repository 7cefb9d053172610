package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/reelforge/reelforge/pkg/version"
	"github.com/spf13/cobra"
)

type VersionOptions struct {
	Output string
}

func DefaultVersionOptions() *VersionOptions {
	return &VersionOptions{
		Output: "",
	}
}

func NewCmdVersion() *cobra.Command {
	o := DefaultVersionOptions()
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print reelctl version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (json, yaml).")
	return cmd
}

func (o *VersionOptions) Run(ctx context.Context, out io.Writer, args []string) error {
	versionInfo := version.Get()
	if o.Output != "" {
		return printOutput(out, versionInfo, o.Output)
	}
	fmt.Fprintf(out, "reelctl version: %s\n", versionInfo.String())
	return nil
}
