// Package schema validates and decodes selection descriptors received from
// outside the process against an embedded CUE schema.
package schema

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/pagesel/internal/ir"
)

//go:embed descriptor.cue
var descriptorSchema []byte

// definitions maps each mode to the closed CUE definition it must satisfy.
var definitions = map[ir.Mode]string{
	ir.ModeNone:     "#None",
	ir.ModeExplicit: "#Explicit",
	ir.ModeRange:    "#Range",
	ir.ModeAll:      "#All",
}

// A cue.Context is not safe for concurrent use; every decode holds mu.
var (
	mu       sync.Mutex
	ctx      *cue.Context
	compiled cue.Value
	initErr  error
	initOnce sync.Once
)

func load() (cue.Value, error) {
	initOnce.Do(func() {
		ctx = cuecontext.New()
		compiled = ctx.CompileBytes(descriptorSchema, cue.Filename("descriptor.cue"))
		if err := compiled.Err(); err != nil {
			initErr = fmt.Errorf("compile descriptor schema: %w", err)
		}
	})
	return compiled, initErr
}

// Error describes why a descriptor was rejected.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DecodeDescriptor validates JSON input against the schema for its mode and
// returns the normalized descriptor.
func DecodeDescriptor(data []byte) (ir.Descriptor, error) {
	schema, err := load()
	if err != nil {
		return ir.Descriptor{}, err
	}

	mu.Lock()
	defer mu.Unlock()

	// Extract accepts JSON only; CUE syntax in the input is rejected here.
	expr, err := cuejson.Extract("descriptor.json", data)
	if err != nil {
		out := &Error{Field: "descriptor", Message: "must be valid JSON"}
		if positions := cueerrors.Positions(err); len(positions) > 0 {
			out.Pos = positions[0]
		}
		return ir.Descriptor{}, out
	}
	v := ctx.BuildExpr(expr)
	if err := v.Err(); err != nil {
		return ir.Descriptor{}, formatCUEError(err)
	}
	if v.IncompleteKind() != cue.StructKind {
		return ir.Descriptor{}, &Error{
			Field:   "descriptor",
			Message: "must be a JSON object",
			Pos:     v.Pos(),
		}
	}

	modeVal := v.LookupPath(cue.ParsePath("mode"))
	if !modeVal.Exists() {
		return ir.Descriptor{}, &Error{
			Field:   "mode",
			Message: "mode is required",
			Pos:     v.Pos(),
		}
	}
	mode, err := modeVal.String()
	if err != nil {
		return ir.Descriptor{}, &Error{
			Field:   "mode",
			Message: "mode must be a string",
			Pos:     modeVal.Pos(),
		}
	}
	if err := ir.ValidateMode(mode); err != nil {
		return ir.Descriptor{}, &Error{
			Field:   "mode",
			Message: err.Error(),
			Pos:     modeVal.Pos(),
		}
	}

	def := schema.LookupPath(cue.ParsePath(definitions[ir.Mode(mode)]))
	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return ir.Descriptor{}, formatCUEError(err)
	}

	raw, err := unified.MarshalJSON()
	if err != nil {
		return ir.Descriptor{}, formatCUEError(err)
	}
	var d ir.Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return ir.Descriptor{}, fmt.Errorf("decode descriptor: %w", err)
	}
	return d.Normalize(), nil
}

// formatCUEError keeps the first CUE error, with its field path and source
// position when CUE reports them.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := strings.Join(first.Path(), ".")
	if field == "" {
		field = "descriptor"
	}
	format, args := first.Msg()
	out := &Error{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		for _, p := range positions {
			if p.Filename() == "descriptor.json" {
				out.Pos = p
				break
			}
		}
		if !out.Pos.IsValid() {
			out.Pos = positions[0]
		}
	}
	return out
}

// IsSchemaError reports whether err is a descriptor validation error.
func IsSchemaError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
