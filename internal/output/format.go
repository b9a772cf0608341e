package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hejijunhao/triage/internal/engine/summary"
	"github.com/hejijunhao/triage/internal/model"
)

// Detail controls how much of a report reaches an output.
type Detail int

const (
	// Summary drops per-line predictions and the raw text preview, keeping
	// counts, matches, the per-label summary and the sequence label.
	Summary Detail = iota
	// Full keeps every field.
	Full
)

// ParseDetail maps "summary" or "full" to a Detail. Unknown strings map to Full.
func ParseDetail(s string) Detail {
	if strings.EqualFold(s, "summary") {
		return Summary
	}
	return Full
}

// FormatReport returns a copy of the report with fields stripped according
// to detail. Stripped fields are omitted from JSON.
func FormatReport(r model.Report, detail Detail) model.Report {
	if detail == Summary {
		r.Predictions = nil
		r.Preview = ""
	}
	return r
}

// WriteText renders a report for a terminal: matched defects, the
// per-label prediction summary and the whole-file ticket.
func WriteText(w io.Writer, r model.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s (run %s)\n", r.SourceFile, r.RunID)
	fmt.Fprintf(&b, "Records: %d (%d structured, %d unstructured)\n\n",
		r.Records.Total, r.Records.Structured, r.Records.Unstructured)

	b.WriteString("Detected defects (rule-based):\n")
	if len(r.Matches) == 0 {
		b.WriteString("  No known defect patterns matched.\n")
	}
	for _, m := range r.Matches {
		fmt.Fprintf(&b, "  %s - %s (Team: %s)\n", m.DefectID, m.Description, m.Team)
	}

	b.WriteString("\nDefect prediction summary (per line):\n")
	if len(r.Summary) == 0 {
		b.WriteString("  No predictions.\n")
	} else {
		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  LABEL\tCOUNT\tSAMPLE")
		for _, s := range r.Summary {
			fmt.Fprintf(tw, "  %s\t%d\t%s\n", s.Label, s.Count, s.Sample)
		}
		tw.Flush()
	}

	if r.SequenceLabel != "" {
		b.WriteString("\nWhole-file prediction:\n")
		b.WriteString(summary.SequenceTicket(r.SequenceLabel, r.SourceFile, r.AnalyzedAt))
		b.WriteString("\n")
	}
	if r.Preview != "" {
		fmt.Fprintf(&b, "\nPreview:\n%s\n", r.Preview)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
