package triage

import (
	"time"

	"github.com/hejijunhao/triage/internal/model"
)

// Defect is a known defect signature. Every token in Pattern must appear,
// case-insensitively, in some log message for the defect to match.
type Defect struct {
	ID          string   `json:"defect_id"`
	Description string   `json:"description"`
	Team        string   `json:"team"`
	Pattern     []string `json:"pattern"`
}

// Match is a catalog defect found in an analysed log.
type Match struct {
	DefectID    string   `json:"defect_id"`
	Description string   `json:"description"`
	Team        string   `json:"team"`
	Pattern     []string `json:"pattern"`
}

// Prediction is the line classifier's label for one log message.
type Prediction struct {
	Label      string  `json:"label"`
	Message    string  `json:"message"`
	Confidence float64 `json:"confidence,omitempty"`
}

// LabelSummary counts the predictions sharing a label, in first-seen order.
type LabelSummary struct {
	Label  string `json:"label"`
	Count  int    `json:"log_count"`
	Sample string `json:"sample_message"`
}

// Report is the result of analysing one log file.
// This is the stable public type; internal representations may change
// without breaking consumers.
type Report struct {
	RunID         string         `json:"run_id"`
	SourceFile    string         `json:"source_file"`
	AnalyzedAt    time.Time      `json:"analyzed_at"`
	Records       int            `json:"records"`
	Structured    int            `json:"structured"`
	Matches       []Match        `json:"matches"`
	Predictions   []Prediction   `json:"predictions"`
	Summary       []LabelSummary `json:"summary"`
	SequenceLabel string         `json:"sequence_label,omitempty"`
	Preview       string         `json:"preview,omitempty"`
}

func reportFromModel(r model.Report) Report {
	out := Report{
		RunID:         r.RunID,
		SourceFile:    r.SourceFile,
		AnalyzedAt:    r.AnalyzedAt,
		Records:       r.Records.Total,
		Structured:    r.Records.Structured,
		SequenceLabel: r.SequenceLabel,
		Preview:       r.Preview,
	}
	for _, m := range r.Matches {
		out.Matches = append(out.Matches, Match(m))
	}
	for _, p := range r.Predictions {
		out.Predictions = append(out.Predictions, Prediction(p))
	}
	for _, s := range r.Summary {
		out.Summary = append(out.Summary, LabelSummary(s))
	}
	return out
}

func defectToModel(d Defect) model.DefectPattern {
	return model.DefectPattern{ID: d.ID, Description: d.Description, Team: d.Team, Pattern: d.Pattern}
}

func defectFromModel(d model.DefectPattern) Defect {
	return Defect{ID: d.ID, Description: d.Description, Team: d.Team, Pattern: d.Pattern}
}
