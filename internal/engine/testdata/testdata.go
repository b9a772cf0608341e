// Package testdata embeds a small automotive log corpus shared by tests:
// a defect catalog, labeled line and sequence training sets, and a sample log.
package testdata

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hejijunhao/triage/internal/engine/classifier"
	"github.com/hejijunhao/triage/internal/engine/textclf"
)

// File names of the embedded corpus.
const (
	CatalogFile   = "defects.json"
	LinesFile     = "labeled_logs.csv"
	SequencesFile = "log_sequences.csv"
	SampleLogFile = "sample_log.txt"
)

//go:embed defects.json labeled_logs.csv log_sequences.csv sample_log.txt
var corpus embed.FS

func mustRead(name string) []byte {
	b, err := corpus.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("testdata: %v", err))
	}
	return b
}

// CatalogJSON returns the raw defect catalog.
func CatalogJSON() []byte { return mustRead(CatalogFile) }

// SampleLog returns the sample log file text.
func SampleLog() string { return string(mustRead(SampleLogFile)) }

// LineExamples parses the labeled line corpus.
func LineExamples() ([]textclf.Example, error) {
	return classifier.ReadExamples(bytes.NewReader(mustRead(LinesFile)), "log", "log_text")
}

// SequenceExamples parses the labeled sequence corpus.
func SequenceExamples() ([]textclf.Example, error) {
	return classifier.ReadExamples(bytes.NewReader(mustRead(SequencesFile)), "log_text", "log")
}

// WriteAll copies the corpus into dir and returns the path of each file
// keyed by name.
func WriteAll(dir string) (map[string]string, error) {
	paths := make(map[string]string, 4)
	for _, name := range []string{CatalogFile, LinesFile, SequencesFile, SampleLogFile} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, mustRead(name), 0o644); err != nil {
			return nil, fmt.Errorf("testdata: write %s: %w", name, err)
		}
		paths[name] = p
	}
	return paths, nil
}
