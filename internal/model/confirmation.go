package model

import "time"

// Confirmation records an operator confirming a predicted defect and
// assigning it to a team.
type Confirmation struct {
	Label         string    `json:"label"`
	LogCount      int       `json:"log_count"`
	SampleMessage string    `json:"sample_message"`
	AssignedTeam  string    `json:"assigned_team"`
	Timestamp     time.Time `json:"timestamp"`
	SourceFile    string    `json:"source_file"`
}
