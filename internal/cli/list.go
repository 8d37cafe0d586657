package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pagesel/internal/fetch"
	"github.com/roach88/pagesel/internal/session"
	"github.com/roach88/pagesel/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Database string
	Server   string
	Page     int
	PageSize int
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of the collection",
		Long: `Load one page the way a list view does and print it with checkbox state.

Pages come from the local database, or from a running server with --server.

Examples:
  pagesel list --page 3
  pagesel list --server http://127.0.0.1:8080 --page-size 25 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Server, "server", "", "base URL of a pagesel server")
	cmd.Flags().IntVarP(&opts.Page, "page", "p", 0, "zero-based page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "records per page (default from config)")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	if opts.Page < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("page must be non-negative, got %d", opts.Page))
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = opts.Config.PageSize
	}

	var source fetch.Source
	if opts.Server != "" {
		source = fetch.NewClient(opts.Server, opts.Config.RequestTimeout.Std())
	} else {
		st, err := store.Open(firstNonEmpty(opts.Database, opts.Config.Database))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		source = st
	}

	ctrl := session.New(source, pageSize, session.WithLogger(opts.newLogger(cmd.ErrOrStderr())))
	defer ctrl.Close()
	if err := ctrl.GoToPage(cmd.Context(), opts.Page); err != nil {
		fe := fetch.Classify(err)
		_ = opts.formatter(cmd).Error("E_FETCH_FAILED", fe.UserMessage(), fe.Error())
		return WrapExitError(ExitFailure, "failed to load page", err)
	}

	view := ctrl.View()
	return opts.formatter(cmd).Emit(view, func(w io.Writer) {
		renderView(w, view)
	})
}

// renderView draws a list page as text.
func renderView(w io.Writer, v session.View) {
	header := "[ ]"
	switch {
	case v.HeaderChecked:
		header = "[x]"
	case v.HeaderIndeterminate:
		header = "[-]"
	}
	fmt.Fprintf(w, "%s Page %d of %d (%d records, %d selected)\n",
		header, v.Page+1, max(v.PageCount, 1), v.TotalRecords, v.SelectedCount)
	for _, r := range v.Rows {
		mark := "[ ]"
		if r.Selected {
			mark = "[x]"
		}
		fmt.Fprintf(w, "%s %6d  %-8s %s\n", mark, r.Index, r.ID, r.Label)
	}
	if len(v.Rows) == 0 {
		fmt.Fprintln(w, "    (no records on this page)")
	}
}
