package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type RefreshOptions struct {
	GlobalOptions

	Output string
}

func DefaultRefreshOptions() *RefreshOptions {
	return &RefreshOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdRefresh() *cobra.Command {
	o := DefaultRefreshOptions()
	cmd := &cobra.Command{
		Use:   "refresh JOB_ID",
		Short: "Renew the expiring media URLs of a completed video.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd.OutOrStdout(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *RefreshOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (json, yaml).")
}

func (o *RefreshOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	return validateOutput(o.Output)
}

func (o *RefreshOptions) Run(ctx context.Context, out io.Writer, args []string) error {
	c, err := o.Client()
	if err != nil {
		return err
	}

	video, err := c.Refresh(ctx, args[0])
	if err != nil {
		return fmt.Errorf("refreshing video/%s: %w", args[0], err)
	}

	if o.Output != "" {
		return printOutput(out, video, o.Output)
	}
	return printTable(out, video)
}
