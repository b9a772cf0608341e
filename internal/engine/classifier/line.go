package classifier

import (
	"fmt"

	"github.com/hejijunhao/triage/internal/engine/textclf"
)

// LineModel classifies single log messages into defect categories.
// A nil *LineModel is valid and reports ErrModelUnavailable on use.
type LineModel struct {
	p *textclf.Pipeline
}

// TrainLine fits a line model on labeled messages.
func TrainLine(examples []textclf.Example, cfg textclf.Config) (*LineModel, textclf.Report, error) {
	p, report, err := textclf.Train(KindLine, examples, cfg)
	if err != nil {
		return nil, report, fmt.Errorf("classifier: train line model: %w", err)
	}
	return &LineModel{p: p}, report, nil
}

// LoadLine loads a persisted line model. If no artifact exists at path the
// error wraps ErrModelUnavailable.
func LoadLine(path string) (*LineModel, error) {
	p, err := load(path, KindLine)
	if err != nil {
		return nil, err
	}
	return &LineModel{p: p}, nil
}

// Predict returns the defect label for a log message.
func (m *LineModel) Predict(message string) (string, error) {
	res, err := m.Classify(message)
	if err != nil {
		return "", err
	}
	return res.Label, nil
}

// Classify returns the label for a log message with its probability.
func (m *LineModel) Classify(message string) (textclf.Result, error) {
	if m == nil || m.p == nil {
		return textclf.Result{}, ErrModelUnavailable
	}
	return m.p.Predict(message), nil
}

// Labels returns the labels the model was trained on.
func (m *LineModel) Labels() []string {
	if m == nil || m.p == nil {
		return nil
	}
	return m.p.Labels()
}

// Save persists the model to path.
func (m *LineModel) Save(path string) error {
	if m == nil || m.p == nil {
		return ErrModelUnavailable
	}
	return m.p.Save(path)
}
