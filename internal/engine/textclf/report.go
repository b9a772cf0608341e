package textclf

import (
	"fmt"
	"sort"
	"strings"
)

// ClassMetrics holds evaluation scores for one label, or an average row.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report summarises a classifier's performance on the held-out split. It is an
// operator diagnostic and is not consumed by analysis runs.
type Report struct {
	Kind        string         `json:"kind"`
	TrainSize   int            `json:"train_size"`
	TestSize    int            `json:"test_size"`
	Features    int            `json:"features"`
	Iterations  int            `json:"iterations"`
	Classes     []ClassMetrics `json:"classes"`
	Accuracy    float64        `json:"accuracy"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
}

// Evaluate computes per-label precision, recall and F1 for paired true and
// predicted labels. Labels from both sides are reported in lexical order.
// Undefined ratios (no predictions or no support) are reported as 0.
func Evaluate(yTrue, yPred []string) Report {
	var r Report
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return r
	}

	seen := make(map[string]bool)
	for _, l := range yTrue {
		seen[l] = true
	}
	for _, l := range yPred {
		seen[l] = true
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	tp := make(map[string]int)
	predicted := make(map[string]int)
	support := make(map[string]int)
	correct := 0
	for i := range yTrue {
		support[yTrue[i]]++
		predicted[yPred[i]]++
		if yTrue[i] == yPred[i] {
			tp[yTrue[i]]++
			correct++
		}
	}

	total := len(yTrue)
	r.Accuracy = float64(correct) / float64(total)
	r.MacroAvg = ClassMetrics{Label: "macro avg", Support: total}
	r.WeightedAvg = ClassMetrics{Label: "weighted avg", Support: total}

	for _, l := range labels {
		m := ClassMetrics{
			Label:     l,
			Precision: ratio(tp[l], predicted[l]),
			Recall:    ratio(tp[l], support[l]),
			Support:   support[l],
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes = append(r.Classes, m)

		r.MacroAvg.Precision += m.Precision
		r.MacroAvg.Recall += m.Recall
		r.MacroAvg.F1 += m.F1

		w := float64(m.Support) / float64(total)
		r.WeightedAvg.Precision += w * m.Precision
		r.WeightedAvg.Recall += w * m.Recall
		r.WeightedAvg.F1 += w * m.F1
	}

	k := float64(len(labels))
	r.MacroAvg.Precision /= k
	r.MacroAvg.Recall /= k
	r.MacroAvg.F1 /= k
	return r
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// String renders the report as a fixed-width table.
func (r Report) String() string {
	if len(r.Classes) == 0 {
		return fmt.Sprintf("%s classifier: trained on %d examples, no evaluation split\n", r.Kind, r.TrainSize)
	}

	width := len("weighted avg")
	for _, c := range r.Classes {
		width = max(width, len(c.Label))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s %10s %10s %10s %10s\n\n", width, "", "precision", "recall", "f1-score", "support")
	row := func(c ClassMetrics) {
		fmt.Fprintf(&b, "%*s %10.2f %10.2f %10.2f %10d\n", width, c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	for _, c := range r.Classes {
		row(c)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s %10s %10s %10.2f %10d\n", width, "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	row(r.MacroAvg)
	row(r.WeightedAvg)
	return b.String()
}
