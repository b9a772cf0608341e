package filter

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/hejijunhao/triage/internal/model"
)

// Env is the environment a filter expression is evaluated against, one
// record at a time. Unstructured records expose only raw and structured=false.
type Env struct {
	Timestamp  string `expr:"timestamp"`
	ECU        string `expr:"ecu"`
	Context    string `expr:"context"`
	Severity   string `expr:"severity"`
	Message    string `expr:"message"`
	Raw        string `expr:"raw"`
	Structured bool   `expr:"structured"`
}

// Filter is a compiled boolean expression over log records, for example
//
//	severity in ["ERROR", "FATAL"] && ecu != "GW"
//
// A nil *Filter keeps every record.
type Filter struct {
	source  string
	program *vm.Program
}

// Compile parses and type-checks a filter expression. An empty source yields
// a nil filter.
func Compile(source string) (*Filter, error) {
	if source == "" {
		return nil, nil
	}
	program, err := expr.Compile(source, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("filter: compile %q: %w", source, err)
	}
	return &Filter{source: source, program: program}, nil
}

// String returns the expression source.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

// Keep reports whether the record passes the filter.
func (f *Filter) Keep(r model.LogRecord) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, err := expr.Run(f.program, envFor(r))
	if err != nil {
		return false, fmt.Errorf("filter: run %q: %w", f.source, err)
	}
	keep, _ := out.(bool)
	return keep, nil
}

// Apply returns the records that pass the filter, preserving order.
func (f *Filter) Apply(records []model.LogRecord) ([]model.LogRecord, error) {
	if f == nil {
		return records, nil
	}
	kept := make([]model.LogRecord, 0, len(records))
	for _, r := range records {
		ok, err := f.Keep(r)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

func envFor(r model.LogRecord) Env {
	return Env{
		Timestamp:  r.Timestamp,
		ECU:        r.ECU,
		Context:    r.Context,
		Severity:   r.Severity,
		Message:    r.Message,
		Raw:        r.Raw,
		Structured: r.IsStructured(),
	}
}
