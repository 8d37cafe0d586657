package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pagesel/internal/harness"
	"github.com/roach88/pagesel/internal/ir"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Action string // optional - filter to one step kind
}

// TraceResult is the output of the trace command.
type TraceResult struct {
	Scenario string               `json:"scenario"`
	Pass     bool                 `json:"pass"`
	Timeline []harness.TraceEvent `json:"timeline"`
	Stats    TraceStats           `json:"stats"`
	Errors   []string             `json:"errors,omitempty"`
}

// TraceStats summarizes a run.
type TraceStats struct {
	Steps         int            `json:"steps"`
	Requests      int            `json:"requests"`
	FetchFailures int            `json:"fetch_failures"`
	ByAction      map[string]int `json:"by_action"`
	FinalMode     ir.Mode        `json:"final_mode"`
	FinalSelected int            `json:"final_selected"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <scenario.yaml>",
		Short: "Show the step-by-step trace of a scenario",
		Long: `Run one scenario and print its timeline: after each step, the loaded
page, the collection total, the selection mode, the selected count and the
descriptor a bulk operation would receive.

Examples:
  pagesel trace testdata/scenarios/retry_after_failure.yaml
  pagesel trace testdata/scenarios/range_edits_across_pages.yaml --action toggle
  pagesel trace testdata/scenarios/select_all_then_exclude.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", "", "show only steps of this kind")

	return cmd
}

func runTrace(opts *TraceOptions, path string, cmd *cobra.Command) error {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	result, err := harness.Run(scenario, harness.WithLogger(opts.newLogger(cmd.ErrOrStderr())))
	if err != nil {
		return WrapExitError(ExitFailure, "scenario execution failed", err)
	}

	out := TraceResult{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Timeline: filterTrace(result.Trace, opts.Action),
		Stats:    traceStats(result.Trace),
		Errors:   result.Errors,
	}

	if err := opts.formatter(cmd).Emit(out, func(w io.Writer) {
		renderTrace(w, out)
	}); err != nil {
		return err
	}
	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func filterTrace(trace []harness.TraceEvent, action string) []harness.TraceEvent {
	if action == "" {
		return trace
	}
	filtered := []harness.TraceEvent{}
	for _, ev := range trace {
		if ev.Action == action {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}

func traceStats(trace []harness.TraceEvent) TraceStats {
	stats := TraceStats{Steps: len(trace), ByAction: map[string]int{}}
	requests := map[string]bool{}
	for _, ev := range trace {
		stats.ByAction[ev.Action]++
		if ev.RequestID != "" {
			requests[ev.RequestID] = true
		}
		if ev.Error != "" {
			stats.FetchFailures++
		}
	}
	stats.Requests = len(requests)
	if n := len(trace); n > 0 {
		stats.FinalMode = trace[n-1].Mode
		stats.FinalSelected = trace[n-1].Selected
	}
	return stats
}

func renderTrace(w io.Writer, out TraceResult) {
	fmt.Fprintf(w, "Scenario: %s\n\n", out.Scenario)
	for _, ev := range out.Timeline {
		fmt.Fprintf(w, "[%d] %-14s%s\n", ev.Step, ev.Action, formatArgs(ev.Args))
		fmt.Fprintf(w, "     page %d, total %d, %s, %d selected\n", ev.Page, ev.Total, ev.Mode, ev.Selected)
		fmt.Fprintf(w, "     descriptor %s\n", formatDescriptor(ev.Descriptor))
		if ev.Error != "" {
			fmt.Fprintf(w, "     fetch failed: %s (%s)\n", ev.Error, ev.RequestID)
		}
	}

	actions := make([]string, 0, len(out.Stats.ByAction))
	for a := range out.Stats.ByAction {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = fmt.Sprintf("%s=%d", a, out.Stats.ByAction[a])
	}

	fmt.Fprintf(w, "\nStats: %d steps, %d requests, %d fetch failures\n",
		out.Stats.Steps, out.Stats.Requests, out.Stats.FetchFailures)
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, " "))
	fmt.Fprintf(w, "Final: %s, %d selected\n", out.Stats.FinalMode, out.Stats.FinalSelected)

	if !out.Pass {
		fmt.Fprintln(w, "\nAssertions failed:")
		for _, e := range out.Errors {
			fmt.Fprintf(w, "  %s\n", strings.TrimRight(e, "\n"))
		}
	}
}

func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, args[k])
	}
	return " " + strings.Join(parts, " ")
}

func formatDescriptor(d ir.Descriptor) string {
	data, err := ir.MarshalCanonical(d.Canonical())
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}
