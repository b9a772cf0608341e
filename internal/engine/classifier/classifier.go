package classifier

import (
	"errors"
	"fmt"
	"os"

	"github.com/hejijunhao/triage/internal/engine/textclf"
)

// Model kinds, stored in each artifact so that a line model can never be
// loaded where a sequence model is expected and vice versa.
const (
	KindLine     = "line"
	KindSequence = "sequence"
)

var (
	// ErrModelUnavailable is returned when prediction is requested but no
	// trained artifact has been loaded. It is never reported as a label.
	ErrModelUnavailable = errors.New("classifier: model unavailable")

	// ErrSchema is returned when training data lacks the expected columns
	// or contains rows that cannot be used.
	ErrSchema = errors.New("classifier: training data schema violation")

	// ErrKindMismatch is returned when loading an artifact of the other kind.
	ErrKindMismatch = textclf.ErrKindMismatch
)

// load reads an artifact of the given kind. A missing file means no model has
// been trained yet and is reported as ErrModelUnavailable.
func load(path, kind string) (*textclf.Pipeline, error) {
	p, err := textclf.Load(path, kind)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no %s model at %s", ErrModelUnavailable, kind, path)
	}
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	return p, nil
}
