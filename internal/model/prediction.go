package model

// Prediction is the line classifier's label for one log message.
type Prediction struct {
	Label      string  `json:"label"`
	Message    string  `json:"message"`
	Confidence float64 `json:"confidence,omitempty"`
}

// LabelSummary aggregates the line predictions that share a label.
type LabelSummary struct {
	Label  string `json:"label"`
	Count  int    `json:"log_count"`
	Sample string `json:"sample_message"` // first message predicted with this label
}
