package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"github.com/reelforge/reelforge/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type WatchOptions struct {
	GlobalOptions

	Output   string
	Interval time.Duration
	Timeout  time.Duration
}

func DefaultWatchOptions() *WatchOptions {
	return &WatchOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Interval:      10 * time.Second,
		Timeout:       30 * time.Minute,
	}
}

func NewCmdWatch() *cobra.Command {
	o := DefaultWatchOptions()
	cmd := &cobra.Command{
		Use:   "watch JOB_ID",
		Short: "Poll a video job until it completes or fails.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
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

func (o *WatchOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format of the final status. One of: (json, yaml).")
	fs.DurationVar(&o.Interval, "interval", o.Interval, "Time between two status checks")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "Give up after this long, 0 waits forever")
}

func (o *WatchOptions) Complete(cmd *cobra.Command, args []string) error {
	return o.GlobalOptions.Complete(cmd, args)
}

func (o *WatchOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if o.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return validateOutput(o.Output)
}

func (o *WatchOptions) Run(ctx context.Context, out io.Writer, args []string) error {
	c, err := o.Client()
	if err != nil {
		return err
	}
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	status, err := watchJob(ctx, c, args[0], o.Interval, func(s *client.Status) {
		if o.Output == "" {
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", time.Now().Format(time.TimeOnly), s.Status, s.Stage, s.VendorStatus)
		}
	})
	if err != nil {
		return fmt.Errorf("watching video/%s: %w", args[0], err)
	}

	if o.Output != "" {
		if err := printOutput(out, status, o.Output); err != nil {
			return err
		}
	} else if err := printTable(out, status); err != nil {
		return err
	}

	if status.Status == "error" {
		return fmt.Errorf("video/%s failed: %s", status.JobID, status.Error)
	}
	return nil
}

// watchJob checks the job right away and then on every tick until the job
// is terminal. Transient API errors are retried on the next tick.
func watchJob(ctx context.Context, c *client.Client, jobID string, interval time.Duration, onStatus func(*client.Status)) (*client.Status, error) {
	ticker := jitterbug.New(interval, &jitterbug.Norm{Stdev: interval / 10, Mean: 0})
	defer ticker.Stop()

	var lastErr error
	for {
		status, err := c.Status(ctx, jobID)
		switch {
		case err == nil:
			lastErr = nil
			onStatus(status)
			if status.Terminal() {
				return status, nil
			}
		case isPermanent(err):
			return nil, err
		default:
			lastErr = err
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return nil, errors.Join(ctx.Err(), lastErr)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// isPermanent reports client errors that another poll will not fix.
func isPermanent(err error) bool {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
	}
	return false
}
