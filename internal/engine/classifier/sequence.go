package classifier

import (
	"fmt"

	"github.com/hejijunhao/triage/internal/engine/textclf"
)

// SequenceModel classifies an entire log file's text into one defect
// category. It has its own vocabulary and artifact and is never
// interchangeable with a LineModel. A nil *SequenceModel reports
// ErrModelUnavailable on use.
type SequenceModel struct {
	p *textclf.Pipeline
}

// TrainSequence fits a sequence model on labeled whole-file texts.
func TrainSequence(examples []textclf.Example, cfg textclf.Config) (*SequenceModel, textclf.Report, error) {
	p, report, err := textclf.Train(KindSequence, examples, cfg)
	if err != nil {
		return nil, report, fmt.Errorf("classifier: train sequence model: %w", err)
	}
	return &SequenceModel{p: p}, report, nil
}

// LoadSequence loads a persisted sequence model. If no artifact exists at
// path the error wraps ErrModelUnavailable.
func LoadSequence(path string) (*SequenceModel, error) {
	p, err := load(path, KindSequence)
	if err != nil {
		return nil, err
	}
	return &SequenceModel{p: p}, nil
}

// Predict returns the defect label for the full raw text of a log file.
func (m *SequenceModel) Predict(fullText string) (string, error) {
	res, err := m.Classify(fullText)
	if err != nil {
		return "", err
	}
	return res.Label, nil
}

// Classify returns the label for a log file's text with its probability.
func (m *SequenceModel) Classify(fullText string) (textclf.Result, error) {
	if m == nil || m.p == nil {
		return textclf.Result{}, ErrModelUnavailable
	}
	return m.p.Predict(fullText), nil
}

// Labels returns the labels the model was trained on.
func (m *SequenceModel) Labels() []string {
	if m == nil || m.p == nil {
		return nil
	}
	return m.p.Labels()
}

// Save persists the model to path.
func (m *SequenceModel) Save(path string) error {
	if m == nil || m.p == nil {
		return ErrModelUnavailable
	}
	return m.p.Save(path)
}
