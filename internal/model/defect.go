package model

// DefectPattern is a known defect signature from the catalog. Every token in
// Pattern must appear in some log message of a batch for the defect to match.
type DefectPattern struct {
	ID          string   `json:"defect_id" yaml:"defect_id"`
	Description string   `json:"description" yaml:"description"`
	Team        string   `json:"team" yaml:"team"`
	Pattern     []string `json:"pattern" yaml:"pattern"`
}

// MatchResult is a catalog defect whose full pattern was found in a batch.
type MatchResult struct {
	DefectID    string   `json:"defect_id"`
	Description string   `json:"description"`
	Team        string   `json:"team"`
	Pattern     []string `json:"pattern"`
}
