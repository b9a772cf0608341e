package classifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hejijunhao/triage/internal/engine/textclf"
)

// Column names accepted for the text of a training example, in order of
// preference per model kind.
var (
	lineTextColumns     = []string{"log", "log_text"}
	sequenceTextColumns = []string{"log_text", "log"}
)

const labelColumn = "label"

// LoadLineExamples reads labeled log lines from a CSV file with a header row
// containing "log" (or "log_text") and "label".
func LoadLineExamples(path string) ([]textclf.Example, error) {
	return loadExamplesFile(path, lineTextColumns)
}

// LoadSequenceExamples reads labeled whole-file texts from a CSV file with a
// header row containing "log_text" (or "log") and "label".
func LoadSequenceExamples(path string) ([]textclf.Example, error) {
	return loadExamplesFile(path, sequenceTextColumns)
}

func loadExamplesFile(path string, textColumns []string) ([]textclf.Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	defer f.Close()

	examples, err := ReadExamples(f, textColumns...)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return examples, nil
}

// ReadExamples parses CSV training data. The first of textColumns present in
// the header supplies the text; the "label" column supplies the label. Any
// missing column, ragged row or empty label fails the whole read.
func ReadExamples(r io.Reader, textColumns ...string) ([]textclf.Example, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrSchema)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	textIdx, labelIdx := -1, -1
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	for _, c := range textColumns {
		if i, ok := cols[c]; ok {
			textIdx = i
			break
		}
	}
	if i, ok := cols[labelColumn]; ok {
		labelIdx = i
	}
	if textIdx < 0 {
		return nil, fmt.Errorf("%w: missing text column (one of %s)", ErrSchema, strings.Join(textColumns, ", "))
	}
	if labelIdx < 0 {
		return nil, fmt.Errorf("%w: missing %q column", ErrSchema, labelColumn)
	}

	var examples []textclf.Example
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchema, err)
		}
		label := strings.TrimSpace(rec[labelIdx])
		if label == "" {
			return nil, fmt.Errorf("%w: row %d has an empty label", ErrSchema, row)
		}
		examples = append(examples, textclf.Example{Text: rec[textIdx], Label: label})
	}
	return examples, nil
}
