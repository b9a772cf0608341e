package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/hejijunhao/triage/internal/model"
)

// TimeLayout is the timestamp format used in tickets and confirmation records.
const TimeLayout = "2006-01-02 15:04:05"

// DefaultPreviewLen is the number of bytes of a log file shown in previews.
const DefaultPreviewLen = 300

// Summarize groups line predictions by label. Labels are returned in
// first-occurrence order, each with its count and the first message that
// received it.
func Summarize(predictions []model.Prediction) []model.LabelSummary {
	if len(predictions) == 0 {
		return nil
	}

	index := make(map[string]int)
	var out []model.LabelSummary
	for _, p := range predictions {
		if i, ok := index[p.Label]; ok {
			out[i].Count++
			continue
		}
		index[p.Label] = len(out)
		out = append(out, model.LabelSummary{Label: p.Label, Count: 1, Sample: p.Message})
	}
	return out
}

// Ticket renders the copyable summary for a confirmed line-level defect.
func Ticket(c model.Confirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Detected Defect: %s\n", c.Label)
	fmt.Fprintf(&b, "Assigned Team: %s\n", c.AssignedTeam)
	fmt.Fprintf(&b, "Log Count: %d\n", c.LogCount)
	fmt.Fprintf(&b, "Example Log: %s\n", c.SampleMessage)
	fmt.Fprintf(&b, "Analysis Time: %s", c.Timestamp.Format(TimeLayout))
	return b.String()
}

// SequenceTicket renders the copyable summary for a whole-file prediction.
func SequenceTicket(label, sourceFile string, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Detected Defect: %s\n", label)
	b.WriteString("Assigned By: ML Sequence Classifier\n")
	fmt.Fprintf(&b, "Source File: %s\n", sourceFile)
	fmt.Fprintf(&b, "Analysis Time: %s", at.Format(TimeLayout))
	return b.String()
}

// Preview truncates text to at most maxLen bytes, appending "..." when cut.
// The cut never splits a UTF-8 sequence.
func Preview(text string, maxLen int) string {
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}
	cut := maxLen
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
