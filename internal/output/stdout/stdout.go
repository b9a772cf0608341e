package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hejijunhao/triage/internal/model"
	"github.com/hejijunhao/triage/internal/output"
)

// Output writes reports to stdout, as JSON (one document per report) or as
// human-readable text.
type Output struct {
	mu     sync.Mutex
	w      io.Writer
	enc    *json.Encoder
	text   bool
	detail output.Detail
}

// New creates a stdout Output. format is "json" or "text"; pretty indents
// JSON and is ignored for text.
func New(format string, detail output.Detail, pretty bool) *Output {
	return NewWriter(os.Stdout, format, detail, pretty)
}

// NewWriter is New writing to w instead of stdout.
func NewWriter(w io.Writer, format string, detail output.Detail, pretty bool) *Output {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Output{w: w, enc: enc, text: format == "text", detail: detail}
}

func (o *Output) Write(_ context.Context, report model.Report) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	formatted := output.FormatReport(report, o.detail)
	if o.text {
		if err := output.WriteText(o.w, formatted); err != nil {
			return fmt.Errorf("stdout output: %w", err)
		}
		return nil
	}
	if err := o.enc.Encode(formatted); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
