package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pagesel/internal/fetch"
	"github.com/roach88/pagesel/internal/ir"
	"github.com/roach88/pagesel/internal/schema"
	"github.com/roach88/pagesel/internal/store"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Database string
	Server   string
	Limit    int
}

// ResolveResult is the output of the resolve command.
type ResolveResult struct {
	Fingerprint string        `json:"fingerprint"`
	Mode        ir.Mode       `json:"mode"`
	Total       int           `json:"total"`
	Count       int           `json:"count"`
	IDs         []ir.RecordID `json:"ids"`
	Truncated   bool          `json:"truncated,omitempty"`
	FirstSeen   *bool         `json:"first_seen,omitempty"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <descriptor.json>",
		Short: "Evaluate a selection descriptor",
		Long: `Evaluate a selection descriptor against the collection: how many records
it selects and which ones, in collection order.

The descriptor is validated first. Against the local database the
resolution is also logged under the descriptor's fingerprint. With --server
the running server does both.

Examples:
  pagesel resolve selection.json
  pagesel resolve selection.json --limit 20 --format json
  pagesel resolve selection.json --server http://127.0.0.1:8080`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Server, "server", "", "base URL of a pagesel server")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", 0, "maximum ids to list (default from config)")

	return cmd
}

func runResolve(opts *ResolveOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read descriptor", err)
	}
	d, err := schema.DecodeDescriptor(data)
	if err != nil {
		_ = out.Error("E_INVALID_DESCRIPTOR", err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid descriptor", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = opts.Config.ResolveLimit
	}

	var res ResolveResult
	if opts.Server != "" {
		res, err = resolveRemote(opts, d, limit, cmd)
	} else {
		res, err = resolveLocal(opts, d, limit, cmd)
	}
	if err != nil {
		return err
	}

	return out.Emit(res, func(w io.Writer) {
		fmt.Fprintf(w, "Descriptor %s (%s)\n", shortFingerprint(res.Fingerprint), res.Mode)
		fmt.Fprintf(w, "Selects %d of %d records\n", res.Count, res.Total)
		for _, id := range res.IDs {
			fmt.Fprintf(w, "  %s\n", id)
		}
		if res.Truncated {
			fmt.Fprintf(w, "  ... %d more\n", res.Count-len(res.IDs))
		}
	})
}

func resolveLocal(opts *ResolveOptions, d ir.Descriptor, limit int, cmd *cobra.Command) (ResolveResult, error) {
	st, err := store.Open(firstNonEmpty(opts.Database, opts.Config.Database))
	if err != nil {
		return ResolveResult{}, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	res, err := st.Resolve(ctx, d, limit)
	if err != nil {
		return ResolveResult{}, WrapExitError(ExitFailure, "failed to resolve descriptor", err)
	}
	first, err := st.RecordResolution(ctx, res)
	if err != nil {
		return ResolveResult{}, WrapExitError(ExitFailure, "failed to log resolution", err)
	}

	return ResolveResult{
		Fingerprint: res.Fingerprint,
		Mode:        res.Descriptor.Mode,
		Total:       res.Total,
		Count:       res.Count,
		IDs:         res.IDs,
		Truncated:   res.Truncated,
		FirstSeen:   &first,
	}, nil
}

func resolveRemote(opts *ResolveOptions, d ir.Descriptor, limit int, cmd *cobra.Command) (ResolveResult, error) {
	client := fetch.NewClient(opts.Server, opts.Config.RequestTimeout.Std())
	resp, err := client.Resolve(cmd.Context(), d, limit)
	if err != nil {
		fe := fetch.Classify(err)
		_ = opts.formatter(cmd).Error("E_SERVER", fe.UserMessage(), fe.Error())
		return ResolveResult{}, WrapExitError(ExitFailure, "server resolve failed", err)
	}
	return ResolveResult{
		Fingerprint: resp.Fingerprint,
		Mode:        d.Mode,
		Total:       resp.Total,
		Count:       resp.Count,
		IDs:         resp.IDs,
		Truncated:   resp.Truncated,
	}, nil
}

// shortFingerprint abbreviates a fingerprint for text output.
func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
