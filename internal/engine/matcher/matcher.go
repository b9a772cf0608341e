package matcher

import (
	"strings"

	"github.com/hejijunhao/triage/internal/model"
)

// DetectDefects returns the catalog defects whose pattern is fully present in
// the batch, in catalog order. A pattern is present when every token occurs,
// case-insensitively, in the message of at least one structured record. The
// tokens may be spread over different records and appear in any order.
// Unstructured records never contribute.
func DetectDefects(records []model.LogRecord, defects []model.DefectPattern) []model.MatchResult {
	matched := make([]model.MatchResult, 0)
	if len(defects) == 0 {
		return matched
	}

	messages := lowerMessages(records)
	for _, d := range defects {
		if !allTokensFound(messages, d.Pattern) {
			continue
		}
		matched = append(matched, model.MatchResult{
			DefectID:    d.ID,
			Description: d.Description,
			Team:        d.Team,
			Pattern:     d.Pattern,
		})
	}
	return matched
}

// lowerMessages collects the lowercased messages of structured records.
func lowerMessages(records []model.LogRecord) []string {
	messages := make([]string, 0, len(records))
	for _, r := range records {
		if !r.IsStructured() {
			continue
		}
		messages = append(messages, strings.ToLower(r.Message))
	}
	return messages
}

// allTokensFound reports whether each token is a substring of some message.
// An empty token list is vacuously found; the catalog rejects such entries.
func allTokensFound(messages []string, pattern []string) bool {
	for _, tok := range pattern {
		if !anyContains(messages, strings.ToLower(tok)) {
			return false
		}
	}
	return true
}

func anyContains(messages []string, token string) bool {
	for _, m := range messages {
		if strings.Contains(m, token) {
			return true
		}
	}
	return false
}
