package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pagesel/internal/ir"
)

// Scenario defines a conformance scenario: a seeded collection, a sequence
// of list interactions, and assertions on the resulting selection.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Total is the number of records seeded before the first step.
	Total int `yaml:"total"`

	// PageSize is the list page size. Zero uses session.DefaultPageSize.
	PageSize int `yaml:"page_size,omitempty"`

	// Steps run in order after the first page is mounted.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and trace.
	Assertions []Assertion `yaml:"assertions"`

	// RequestPrefix prefixes the deterministic request ids. Defaults to "req".
	RequestPrefix string `yaml:"request_prefix,omitempty"`
}

// Step is one list interaction.
type Step struct {
	// Do is the step kind, one of the Step* constants.
	Do string `yaml:"do"`

	// ID addresses a record by id (toggle).
	ID string `yaml:"id,omitempty"`

	// Index addresses a record by absolute index (toggle).
	Index *int `yaml:"index,omitempty"`

	// Page is the target page (goto_page).
	Page *int `yaml:"page,omitempty"`

	// Count is the number of leading records (bulk_select).
	Count *int `yaml:"count,omitempty"`

	// Total is the new collection size (resize, update_total).
	Total *int `yaml:"total,omitempty"`

	// Selected is the target membership (sync_page).
	Selected *bool `yaml:"selected,omitempty"`

	// Expect checks the state right after this step.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Step kinds.
const (
	StepGotoPage     = "goto_page"
	StepToggle       = "toggle"
	StepSelectPage   = "select_page"
	StepDeselectPage = "deselect_page"
	StepToggleHeader = "toggle_header"
	StepSyncPage     = "sync_page"
	StepBulkSelect   = "bulk_select"
	StepSelectAll    = "select_all"
	StepClear        = "clear"
	StepUpdateTotal  = "update_total"
	StepResize       = "resize"
	StepFailNext     = "fail_next"
	StepRetry        = "retry"
)

// Expect is a per-step check. Only set fields are compared.
type Expect struct {
	// Count is the expected selected count.
	Count *int `yaml:"count,omitempty"`

	// Mode is the expected selection mode.
	Mode string `yaml:"mode,omitempty"`

	// Error is the expected fetch error kind, or "none".
	Error string `yaml:"error,omitempty"`

	// FullySelected and Indeterminate are the expected header state of the
	// loaded page.
	FullySelected *bool `yaml:"fully_selected,omitempty"`
	Indeterminate *bool `yaml:"indeterminate,omitempty"`
}

// Assertion validates the final state or the trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// IDs lists records by id (selected, not_selected).
	IDs []string `yaml:"ids,omitempty"`

	// Indices lists records by absolute index (selected, not_selected).
	Indices []int `yaml:"indices,omitempty"`

	// Count is the expected selected count (count) or number of trace
	// entries (trace_count).
	Count *int `yaml:"count,omitempty"`

	// Mode is the expected selection mode (mode).
	Mode string `yaml:"mode,omitempty"`

	// RangeCount is the expected RANGE parameter (mode).
	RangeCount *int `yaml:"range_count,omitempty"`

	// Descriptor is the exact expected descriptor (descriptor).
	Descriptor map[string]any `yaml:"descriptor,omitempty"`

	// FullySelected and Indeterminate are the expected header state of the
	// loaded page (page_state).
	FullySelected *bool `yaml:"fully_selected,omitempty"`
	Indeterminate *bool `yaml:"indeterminate,omitempty"`

	// Action names the step kind counted by trace_count.
	Action string `yaml:"action,omitempty"`
}

// Assertion types.
const (
	AssertSelected    = "selected"
	AssertNotSelected = "not_selected"
	AssertCount       = "count"
	AssertMode        = "mode"
	AssertDescriptor  = "descriptor"
	AssertPageState   = "page_state"
	AssertResolved    = "resolved"
	AssertTraceCount  = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Total < 0 {
		return fmt.Errorf("total must be non-negative, got %d", s.Total)
	}
	if s.PageSize < 0 {
		return fmt.Errorf("page_size must be non-negative, got %d", s.PageSize)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks that a step carries the fields its kind needs.
func validateStep(index int, st *Step) error {
	switch st.Do {
	case "":
		return fmt.Errorf("steps[%d]: do is required", index)
	case StepGotoPage:
		if st.Page == nil || *st.Page < 0 {
			return fmt.Errorf("steps[%d]: goto_page requires a non-negative page", index)
		}
	case StepToggle:
		if st.ID == "" && st.Index == nil {
			return fmt.Errorf("steps[%d]: toggle requires id or index", index)
		}
		if st.Index != nil && *st.Index < 0 {
			return fmt.Errorf("steps[%d]: toggle index must be non-negative", index)
		}
	case StepSyncPage:
		if st.Selected == nil {
			return fmt.Errorf("steps[%d]: sync_page requires selected", index)
		}
	case StepBulkSelect:
		if st.Count == nil {
			return fmt.Errorf("steps[%d]: bulk_select requires count", index)
		}
	case StepUpdateTotal, StepResize:
		if st.Total == nil || *st.Total < 0 {
			return fmt.Errorf("steps[%d]: %s requires a non-negative total", index, st.Do)
		}
	case StepSelectPage, StepDeselectPage, StepToggleHeader, StepSelectAll,
		StepClear, StepFailNext, StepRetry:
	default:
		return fmt.Errorf("steps[%d]: unknown step %q", index, st.Do)
	}

	if st.Expect != nil && st.Expect.Mode != "" {
		if err := ir.ValidateMode(st.Expect.Mode); err != nil {
			return fmt.Errorf("steps[%d].expect: %w", index, err)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertSelected, AssertNotSelected:
		if len(a.IDs) == 0 && len(a.Indices) == 0 {
			return fmt.Errorf("assertions[%d]: %s requires ids or indices", index, a.Type)
		}
	case AssertCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count requires count", index)
		}
	case AssertMode:
		if err := ir.ValidateMode(a.Mode); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertDescriptor:
		if a.Descriptor == nil {
			return fmt.Errorf("assertions[%d]: descriptor requires descriptor", index)
		}
	case AssertPageState:
		if a.FullySelected == nil && a.Indeterminate == nil {
			return fmt.Errorf("assertions[%d]: page_state requires fully_selected or indeterminate", index)
		}
	case AssertResolved:
	case AssertTraceCount:
		if a.Action == "" || a.Count == nil {
			return fmt.Errorf("assertions[%d]: trace_count requires action and count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
