package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/reelforge/reelforge/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var (
	legalOutputTypes = []string{jsonFormat, yamlFormat}
)

type GetOptions struct {
	GlobalOptions

	Output string
	Status string
}

func DefaultGetOptions() *GetOptions {
	return &GetOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdGet() *cobra.Command {
	o := DefaultGetOptions()
	cmd := &cobra.Command{
		Use:   "get (TYPE | TYPE/ID)",
		Short: "Display one or many resources.",
		Example: "  reelctl get videos --status generating\n" +
			"  reelctl get video/1b4e28ba-2fa1-11d2-883f-0016d3cca427 -o yaml\n" +
			"  reelctl get account",
		Args: cobra.ExactArgs(1),
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

func (o *GetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
	fs.StringVar(&o.Status, "status", o.Status, "Only list videos in this status")
}

func (o *GetOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	return nil
}

func (o *GetOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	_, _, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}

	return validateOutput(o.Output)
}

func (o *GetOptions) Run(ctx context.Context, out io.Writer, args []string) error {
	c, err := o.Client()
	if err != nil {
		return err
	}

	kind, id, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}

	var response any
	switch {
	case kind == VideoKind && id != "":
		response, err = c.GetVideo(ctx, id)
	case kind == VideoKind:
		response, err = c.ListVideos(ctx, o.Status)
	case kind == AccountKind:
		response, err = c.Account(ctx)
	default:
		return fmt.Errorf("unsupported resource kind: %s", kind)
	}
	if err != nil {
		if id != "" {
			return fmt.Errorf("reading %s/%s: %w", kind, id, err)
		}
		return fmt.Errorf("listing %s: %w", plural(kind), err)
	}

	if o.Output != "" {
		return printOutput(out, response, o.Output)
	}
	return printTable(out, response)
}

func validateOutput(output string) error {
	if len(output) > 0 && !funk.Contains(legalOutputTypes, output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	return nil
}

func printOutput(out io.Writer, v any, output string) error {
	var (
		marshalled []byte
		err        error
	)
	switch output {
	case jsonFormat:
		marshalled, err = json.Marshal(v)
	case yamlFormat:
		marshalled, err = yaml.Marshal(v)
	default:
		return fmt.Errorf("unknown output format %s", output)
	}
	if err != nil {
		return fmt.Errorf("marshalling resource: %w", err)
	}
	fmt.Fprintf(out, "%s\n", strings.TrimSuffix(string(marshalled), "\n"))
	return nil
}

func printTable(out io.Writer, response any) error {
	w := tabwriter.NewWriter(out, 0, 8, 1, '\t', 0)
	switch r := response.(type) {
	case *client.VideoList:
		printVideosTable(w, r.Videos...)
	case *client.Video:
		printVideosTable(w, *r)
	case *client.Account:
		fmt.Fprintln(w, "USER\tPLAN\tCREDITS\tAFFORDABLE\tVOICES")
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\n", r.UserID, r.Plan, r.Credits, strings.Join(r.Affordable, ","), r.VoiceLimit)
	case *client.Quote:
		fmt.Fprintf(w, "PLAN: %s\tBALANCE: %d\n", r.Plan, r.Balance)
		fmt.Fprintln(w, "DURATION\tCOST\tAFFORDABLE")
		for _, d := range r.Durations {
			fmt.Fprintf(w, "%s\t%d\t%t\n", d.Duration, d.Cost, d.Affordable)
		}
	case *client.Status:
		printStatusTable(w, *r)
	default:
		return fmt.Errorf("unknown resource type %T", response)
	}
	return w.Flush()
}

func printVideosTable(w *tabwriter.Writer, videos ...client.Video) {
	fmt.Fprintln(w, "ID\tSTATUS\tDURATION\tTITLE\tVIDEO URL")
	for _, v := range videos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.Status, v.Duration, v.Title, v.VideoURL)
	}
}

func printStatusTable(w *tabwriter.Writer, statuses ...client.Status) {
	fmt.Fprintln(w, "JOB\tSTATUS\tSTAGE\tVENDOR STATUS\tVIDEO URL\tERROR")
	for _, s := range statuses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", s.JobID, s.Status, s.Stage, s.VendorStatus, s.VideoURL, s.Error)
	}
}
