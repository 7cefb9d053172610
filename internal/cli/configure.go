package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/reelforge/reelforge/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type ConfigureOptions struct {
	GlobalOptions

	TimeoutSeconds int
}

func DefaultConfigureOptions() *ConfigureOptions {
	return &ConfigureOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdConfigure() *cobra.Command {
	o := DefaultConfigureOptions()
	cmd := &cobra.Command{
		Use:   "configure --server-url URL",
		Short: "Write the client config file used by the other commands.",
		Args:  cobra.NoArgs,
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

func (o *ConfigureOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.IntVar(&o.TimeoutSeconds, "timeout-seconds", o.TimeoutSeconds, "HTTP timeout of API calls")
}

func (o *ConfigureOptions) Validate(args []string) error {
	if o.ServerUrl == "" {
		return fmt.Errorf("--server-url is required")
	}
	return o.GlobalOptions.Validate(args)
}

func (o *ConfigureOptions) Run(ctx context.Context, out io.Writer, args []string) error {
	service := client.Service{
		Server:         o.ServerUrl,
		Token:          o.Token,
		User:           o.User,
		TimeoutSeconds: o.TimeoutSeconds,
	}
	if err := client.WriteConfig(o.ConfigFilePath, service); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s\n", o.ConfigFilePath)
	return nil
}
