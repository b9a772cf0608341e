package file

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hejijunhao/triage/internal/model"
	"github.com/hejijunhao/triage/internal/output"
)

// Option configures a file Output.
type Option func(*Output)

// WithMaxSizeMB sets the file size in megabytes at which rotation triggers.
// Default: 100.
func WithMaxSizeMB(mb int) Option {
	return func(o *Output) { o.lj.MaxSize = mb }
}

// WithMaxBackups limits how many rotated files are kept. 0 keeps all.
func WithMaxBackups(n int) Option {
	return func(o *Output) { o.lj.MaxBackups = n }
}

// WithCompress gzips rotated files.
func WithCompress() Option {
	return func(o *Output) { o.lj.Compress = true }
}

// Output appends reports as NDJSON to a file, rotating it by size. Each
// report is written with a single call so a line never spans two files.
type Output struct {
	mu     sync.Mutex
	lj     *lumberjack.Logger
	detail output.Detail
}

// New creates a file output that writes NDJSON to the given path. The file is
// opened lazily on the first write.
func New(path string, detail output.Detail, opts ...Option) *Output {
	o := &Output{
		lj:     &lumberjack.Logger{Filename: path},
		detail: detail,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Write JSON-encodes the report and appends it as a line to the file.
func (o *Output) Write(_ context.Context, report model.Report) error {
	data, err := json.Marshal(output.FormatReport(report, o.detail))
	if err != nil {
		return fmt.Errorf("file output: marshal: %w", err)
	}
	data = append(data, '\n')

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.lj.Write(data); err != nil {
		return fmt.Errorf("file output: write %s: %w", o.lj.Filename, err)
	}
	return nil
}

// Close closes the current file.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lj.Close()
}
