package model

import "time"

// Report is the result of analysing one uploaded log file.
type Report struct {
	RunID         string         `json:"run_id"`
	SourceFile    string         `json:"source_file"`
	AnalyzedAt    time.Time      `json:"analyzed_at"`
	Records       RecordCounts   `json:"records"`
	Matches       []MatchResult  `json:"matches"`
	Predictions   []Prediction   `json:"predictions"`
	Summary       []LabelSummary `json:"summary"`
	SequenceLabel string         `json:"sequence_label,omitempty"`
	Preview       string         `json:"preview,omitempty"`
}
