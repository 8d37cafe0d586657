package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pagesel/internal/ir"
	"github.com/roach88/pagesel/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// DescriptorCheck is the validation outcome of one descriptor file.
type DescriptorCheck struct {
	File        string  `json:"file"`
	Valid       bool    `json:"valid"`
	Mode        ir.Mode `json:"mode,omitempty"`
	Fingerprint string  `json:"fingerprint,omitempty"`
	Field       string  `json:"field,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// ValidateResult is the output of the validate command.
type ValidateResult struct {
	Files   []DescriptorCheck `json:"files"`
	Valid   int               `json:"valid"`
	Invalid int               `json:"invalid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <descriptor.json>...",
		Short: "Validate selection descriptors",
		Long: `Check descriptor files against the descriptor schema.

Each mode admits only the overrides it can carry: NONE takes none, EXPLICIT
takes inclusions, ALL takes exclusions, RANGE takes both plus a required
rangeCount. Valid descriptors are printed with their fingerprint.

Exit codes:
  0 - All descriptors valid
  1 - One or more descriptors invalid
  2 - Command error (unreadable file, etc.)

Examples:
  pagesel validate selection.json
  pagesel validate a.json b.json --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	result := ValidateResult{Files: make([]DescriptorCheck, 0, len(paths))}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read descriptor", err)
		}
		check := checkDescriptor(path, data)
		if check.Valid {
			result.Valid++
		} else {
			result.Invalid++
		}
		result.Files = append(result.Files, check)
	}

	if err := opts.formatter(cmd).Emit(result, func(w io.Writer) {
		renderValidate(w, result)
	}); err != nil {
		return err
	}

	if result.Invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d descriptor(s) invalid", result.Invalid))
	}
	return nil
}

func checkDescriptor(path string, data []byte) DescriptorCheck {
	check := DescriptorCheck{File: path}

	d, err := schema.DecodeDescriptor(data)
	if err != nil {
		check.Error = err.Error()
		var serr *schema.Error
		if errors.As(err, &serr) {
			check.Field = serr.Field
		}
		return check
	}

	fp, err := ir.DescriptorFingerprint(d)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	check.Valid = true
	check.Mode = d.Mode
	check.Fingerprint = fp
	return check
}

func renderValidate(w io.Writer, result ValidateResult) {
	for _, c := range result.Files {
		if c.Valid {
			fmt.Fprintf(w, "✓ %s: %s %s\n", c.File, c.Mode, shortFingerprint(c.Fingerprint))
			continue
		}
		fmt.Fprintf(w, "✗ %s: %s\n", c.File, c.Error)
	}
	fmt.Fprintf(w, "\n%d valid, %d invalid\n", result.Valid, result.Invalid)
}
