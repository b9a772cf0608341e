package textclf

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// artifactFormat is bumped whenever the serialised layout changes. Artifacts
// of another format are rejected rather than migrated.
const artifactFormat = 1

var (
	// ErrKindMismatch is returned when an artifact was trained for a
	// different kind of model than the caller asked for.
	ErrKindMismatch = errors.New("textclf: artifact kind mismatch")

	// ErrCorruptArtifact is returned when an artifact decodes but its
	// dimensions are inconsistent or its format is unknown.
	ErrCorruptArtifact = errors.New("textclf: corrupt artifact")
)

// artifact is the on-disk form of a Pipeline: zstd-compressed JSON.
type artifact struct {
	Format    int         `json:"format"`
	Kind      string      `json:"kind"`
	TrainedAt time.Time   `json:"trained_at"`
	Terms     []string    `json:"terms"`
	IDF       []float64   `json:"idf"`
	Classes   []string    `json:"classes"`
	Weights   [][]float64 `json:"weights"`
	Bias      []float64   `json:"bias"`
}

// Save writes the pipeline to path, creating parent directories. The file is
// written to a temporary name and renamed into place.
func (p *Pipeline) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("textclf: save: %w", err)
	}
	f, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("textclf: save: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op after a successful rename

	if err := p.Encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("textclf: save: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("textclf: save: %w", err)
	}
	return nil
}

// Encode writes the compressed artifact to w.
func (p *Pipeline) Encode(w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("textclf: encode: %w", err)
	}
	a := artifact{
		Format:    artifactFormat,
		Kind:      p.kind,
		TrainedAt: p.trainedAt,
		Terms:     p.vectorizer.terms,
		IDF:       p.vectorizer.idf,
		Classes:   p.classes,
		Weights:   p.model.weights,
		Bias:      p.model.bias,
	}
	if err := json.NewEncoder(zw).Encode(a); err != nil {
		zw.Close()
		return fmt.Errorf("textclf: encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("textclf: encode: %w", err)
	}
	return nil
}

// Load reads a pipeline artifact and checks that it was trained as kind.
// A missing file is reported with an error wrapping os.ErrNotExist.
func Load(path, kind string) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("textclf: load: %w", err)
	}
	defer f.Close()

	p, err := Decode(f, kind)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return p, nil
}

// Decode reads a compressed artifact from r and checks its kind.
func Decode(r io.Reader, kind string) (*Pipeline, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("textclf: decode: %w", err)
	}
	defer zr.Close()

	var a artifact
	if err := json.NewDecoder(zr).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if a.Format != artifactFormat {
		return nil, fmt.Errorf("%w: format %d, want %d", ErrCorruptArtifact, a.Format, artifactFormat)
	}
	if a.Kind != kind {
		return nil, fmt.Errorf("%w: artifact is %q, want %q", ErrKindMismatch, a.Kind, kind)
	}
	if err := a.check(); err != nil {
		return nil, err
	}

	return &Pipeline{
		kind:       a.Kind,
		vectorizer: newVectorizer(a.Terms, a.IDF),
		model:      &logisticRegression{weights: a.Weights, bias: a.Bias},
		classes:    a.Classes,
		trainedAt:  a.TrainedAt,
	}, nil
}

func (a *artifact) check() error {
	switch {
	case len(a.Classes) < 2:
		return fmt.Errorf("%w: %d classes", ErrCorruptArtifact, len(a.Classes))
	case len(a.IDF) != len(a.Terms):
		return fmt.Errorf("%w: %d idf weights for %d terms", ErrCorruptArtifact, len(a.IDF), len(a.Terms))
	case len(a.Weights) != len(a.Classes) || len(a.Bias) != len(a.Classes):
		return fmt.Errorf("%w: parameter rows do not match %d classes", ErrCorruptArtifact, len(a.Classes))
	}
	for k, row := range a.Weights {
		if len(row) != len(a.Terms) {
			return fmt.Errorf("%w: class %q has %d weights for %d terms", ErrCorruptArtifact, a.Classes[k], len(row), len(a.Terms))
		}
	}
	return nil
}
