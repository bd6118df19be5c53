package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"portal-compare/internal/comparison/domain/model"

	"github.com/google/cel-go/cel"
)

// FilterOptions narrows a ComparisonResult for presentation.
type FilterOptions struct {
	Statuses      []model.DiffStatus
	HideIdentical bool
	// Expression is a CEL predicate over field_path, status, value_a, value_b
	// and detail, all strings.
	Expression string
}

// IsZero reports whether the options keep every entry.
func (o FilterOptions) IsZero() bool {
	return len(o.Statuses) == 0 && !o.HideIdentical && o.Expression == ""
}

// ResultFilter applies FilterOptions. Compiled programs are cached by
// expression text.
type ResultFilter struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewResultFilter creates the CEL environment used for filter predicates.
func NewResultFilter() (*ResultFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("field_path", cel.StringType),
		cel.Variable("status", cel.StringType),
		cel.Variable("value_a", cel.StringType),
		cel.Variable("value_b", cel.StringType),
		cel.Variable("detail", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter environment: %w", err)
	}
	return &ResultFilter{env: env, programs: make(map[string]cel.Program)}, nil
}

// Compile validates expression and caches its program.
func (f *ResultFilter) Compile(expression string) (cel.Program, error) {
	f.mu.RLock()
	prg, ok := f.programs[expression]
	f.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := f.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidFilter, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: expression must evaluate to a bool, got %s", model.ErrInvalidFilter, ast.OutputType())
	}
	prg, err := f.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidFilter, err)
	}

	f.mu.Lock()
	f.programs[expression] = prg
	f.mu.Unlock()
	return prg, nil
}

// Apply returns a copy of result holding only the entries that pass opts.
// Counts are recomputed; the overall status and item statuses are kept.
func (f *ResultFilter) Apply(result model.ComparisonResult, opts FilterOptions) (model.ComparisonResult, error) {
	if opts.IsZero() {
		return result, nil
	}

	var prg cel.Program
	if opts.Expression != "" {
		var err error
		if prg, err = f.Compile(opts.Expression); err != nil {
			return model.ComparisonResult{}, err
		}
	}

	allowed := make(map[model.DiffStatus]struct{}, len(opts.Statuses))
	for _, s := range opts.Statuses {
		allowed[s] = struct{}{}
	}

	out := result
	out.Entries = make([]model.DiffEntry, 0, len(result.Entries))
	for _, e := range result.Entries {
		if opts.HideIdentical && e.Status == model.StatusIdentical {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[e.Status]; !ok {
				continue
			}
		}
		if prg != nil {
			keep, err := evalEntry(prg, e)
			if err != nil {
				return model.ComparisonResult{}, err
			}
			if !keep {
				continue
			}
		}
		out.Entries = append(out.Entries, e)
	}

	out.Items = nil
	for _, it := range result.Items {
		for _, e := range out.Entries {
			if it.Owns(e) {
				out.Items = append(out.Items, it)
				break
			}
		}
	}

	status := result.Status
	out.Summarize()
	out.Status = status
	return out, nil
}

func evalEntry(prg cel.Program, e model.DiffEntry) (bool, error) {
	val, _, err := prg.Eval(map[string]interface{}{
		"field_path": e.FieldPath,
		"status":     string(e.Status),
		"value_a":    RenderValue(e.ValueA),
		"value_b":    RenderValue(e.ValueB),
		"detail":     e.Detail,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", model.ErrInvalidFilter, err)
	}
	keep, ok := val.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: expression did not return a bool", model.ErrInvalidFilter)
	}
	return keep, nil
}

// RenderValue turns a diff value into the string used by filters and text
// output.
func RenderValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
