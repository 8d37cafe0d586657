package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pagesel/internal/store"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Database string
	Count    int
}

// SeedResult is the output of the seed command.
type SeedResult struct {
	Database string `json:"database"`
	Records  int    `json:"records"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the record collection",
		Long: `Replace the collection with N records: ids "1".."N" at positions 0..N-1.

Seeding a smaller count after a larger one shrinks the collection, which is
how a running list sees its total change.

Examples:
  pagesel seed --count 1000
  pagesel seed --db /tmp/records.db --count 30`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 1000, "number of records")

	return cmd
}

func runSeed(opts *SeedOptions, cmd *cobra.Command) error {
	if opts.Count < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("count must be non-negative, got %d", opts.Count))
	}
	dbPath := firstNonEmpty(opts.Database, opts.Config.Database)

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if err := st.Seed(cmd.Context(), opts.Count); err != nil {
		return WrapExitError(ExitFailure, "failed to seed records", err)
	}

	res := SeedResult{Database: dbPath, Records: opts.Count}
	return opts.formatter(cmd).Emit(res, func(w io.Writer) {
		fmt.Fprintf(w, "Seeded %d records into %s\n", res.Records, res.Database)
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
