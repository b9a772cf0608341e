package output

import (
	"context"

	"github.com/hejijunhao/triage/internal/model"
)

// Output defines the interface for analysis report destinations.
type Output interface {
	Write(ctx context.Context, report model.Report) error
	Close() error
}
