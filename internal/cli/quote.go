package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type QuoteOptions struct {
	GlobalOptions

	Output string
}

func DefaultQuoteOptions() *QuoteOptions {
	return &QuoteOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdQuote() *cobra.Command {
	o := DefaultQuoteOptions()
	cmd := &cobra.Command{
		Use:   "quote [DURATION]",
		Short: "Show what each video duration costs against the account balance.",
		Args:  cobra.MaximumNArgs(1),
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

func (o *QuoteOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (json, yaml).")
}

func (o *QuoteOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	return validateOutput(o.Output)
}

func (o *QuoteOptions) Run(ctx context.Context, out io.Writer, args []string) error {
	c, err := o.Client()
	if err != nil {
		return err
	}

	var duration string
	if len(args) == 1 {
		duration = args[0]
	}

	quote, err := c.Quote(ctx, duration)
	if err != nil {
		return fmt.Errorf("quoting: %w", err)
	}

	if o.Output != "" {
		return printOutput(out, quote, o.Output)
	}
	if err := printTable(out, quote); err != nil {
		return err
	}
	if quote.Requested != nil {
		verdict := "affordable"
		if !quote.Requested.Affordable {
			verdict = "not affordable"
		}
		fmt.Fprintf(out, "%s costs %d credits: %s\n", quote.Requested.Duration, quote.Requested.Cost, verdict)
	}
	return nil
}

