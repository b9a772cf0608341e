package model

// LogRecord is one parsed line of a diagnostic log. A record is either
// structured (timestamp, ECU, context, severity and message captured from the
// line grammar) or unstructured (only Raw is set), never both.
type LogRecord struct {
	Timestamp string `json:"timestamp,omitempty"`
	ECU       string `json:"ecu,omitempty"`
	Context   string `json:"context,omitempty"`
	Severity  string `json:"severity,omitempty"`
	Message   string `json:"message,omitempty"`
	Raw       string `json:"raw,omitempty"`

	structured bool
}

// Structured builds a structured record from the captured line segments.
func Structured(timestamp, ecu, context, severity, message string) LogRecord {
	return LogRecord{
		Timestamp:  timestamp,
		ECU:        ecu,
		Context:    context,
		Severity:   severity,
		Message:    message,
		structured: true,
	}
}

// Unstructured builds the fallback record for a line outside the grammar.
func Unstructured(raw string) LogRecord {
	return LogRecord{Raw: raw}
}

// IsStructured reports whether the record carries parsed fields.
func (r LogRecord) IsStructured() bool {
	return r.structured
}

// HasMessage reports whether the record is structured with a non-empty message.
// Only such records take part in matching and line classification.
func (r LogRecord) HasMessage() bool {
	return r.structured && r.Message != ""
}

// RecordCounts tallies the records of one analysis run.
type RecordCounts struct {
	Total        int `json:"total"`
	Structured   int `json:"structured"`
	Unstructured int `json:"unstructured"`
}

// CountRecords tallies structured and unstructured records.
func CountRecords(records []LogRecord) RecordCounts {
	c := RecordCounts{Total: len(records)}
	for _, r := range records {
		if r.structured {
			c.Structured++
		} else {
			c.Unstructured++
		}
	}
	return c
}
