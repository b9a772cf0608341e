package triage

import "path/filepath"

// Default artifact names inside a model directory.
const (
	LineModelFile     = "line_classifier.model"
	SequenceModelFile = "sequence_classifier.model"
)

type options struct {
	catalogPath  string
	defects      []Defect
	modelDir     string
	linePath     string
	sequencePath string
	filter       string
	previewLen   int
}

// Option configures a Triage instance.
type Option func(*options)

// WithCatalogFile loads the defect catalog from a JSON or YAML file.
func WithCatalogFile(path string) Option {
	return func(o *options) {
		o.catalogPath = path
	}
}

// WithDefects uses an in-memory catalog. Order is preserved in reports.
// It takes precedence over WithCatalogFile.
func WithDefects(defects []Defect) Option {
	return func(o *options) {
		o.defects = defects
	}
}

// WithModelDir sets the directory holding line_classifier.model and
// sequence_classifier.model. Default: "models".
func WithModelDir(dir string) Option {
	return func(o *options) {
		o.modelDir = dir
	}
}

// WithModelPaths sets explicit artifact paths, overriding WithModelDir.
func WithModelPaths(line, sequence string) Option {
	return func(o *options) {
		o.linePath = line
		o.sequencePath = sequence
	}
}

// WithFilter keeps only records matching an expression such as
// `severity == "ERROR"` before matching and line classification.
func WithFilter(expr string) Option {
	return func(o *options) {
		o.filter = expr
	}
}

// WithPreviewLen sets the report preview length in bytes. Default: 300.
func WithPreviewLen(n int) Option {
	return func(o *options) {
		o.previewLen = n
	}
}

func defaultOptions() options {
	return options{
		catalogPath: filepath.Join("data", "defects.json"),
		modelDir:    "models",
		previewLen:  300,
	}
}

// resolvePaths returns the artifact paths. Explicit paths take precedence
// over the model directory.
func resolvePaths(o options) (line, sequence string) {
	line, sequence = o.linePath, o.sequencePath
	if line == "" {
		line = filepath.Join(o.modelDir, LineModelFile)
	}
	if sequence == "" {
		sequence = filepath.Join(o.modelDir, SequenceModelFile)
	}
	return line, sequence
}
