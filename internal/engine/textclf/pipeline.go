package textclf

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

var (
	// ErrInsufficientData is returned when the examples cannot support a
	// train/evaluation split with at least two labels to learn.
	ErrInsufficientData = errors.New("textclf: insufficient training data")

	// ErrInvalidConfig is returned for out-of-range training parameters.
	ErrInvalidConfig = errors.New("textclf: invalid training config")
)

// Example is one labeled training text.
type Example struct {
	Text  string
	Label string
}

// Config controls training.
type Config struct {
	TestSize     float64 // fraction held out for evaluation, in [0, 1)
	Seed         uint64  // shuffle seed for the split
	MaxIter      int
	C            float64 // inverse L2 regularisation strength
	LearningRate float64
	Tol          float64
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		TestSize:     0.2,
		Seed:         42,
		MaxIter:      1000,
		C:            1.0,
		LearningRate: 1.0,
		Tol:          1e-4,
	}
}

func (c Config) validate() error {
	switch {
	case c.TestSize < 0 || c.TestSize >= 1:
		return fmt.Errorf("%w: test size %v must be in [0, 1)", ErrInvalidConfig, c.TestSize)
	case c.MaxIter <= 0:
		return fmt.Errorf("%w: max iterations must be positive", ErrInvalidConfig)
	case c.C <= 0:
		return fmt.Errorf("%w: C must be positive", ErrInvalidConfig)
	case c.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate must be positive", ErrInvalidConfig)
	case c.Tol < 0:
		return fmt.Errorf("%w: tolerance must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Result is the outcome of classifying one text.
type Result struct {
	Label      string
	Confidence float64 // probability of Label under the model
}

// Pipeline is a fitted TF-IDF vectorizer composed with a logistic regression
// classifier. A Pipeline is immutable once trained or loaded and safe for
// concurrent use.
type Pipeline struct {
	kind       string
	vectorizer *vectorizer
	model      *logisticRegression
	classes    []string
	trainedAt  time.Time
}

// Train fits a pipeline of the given kind. The examples are split into train
// and test sets according to cfg; the returned report scores the test set.
func Train(kind string, examples []Example, cfg Config) (*Pipeline, Report, error) {
	if err := cfg.validate(); err != nil {
		return nil, Report{}, err
	}
	train, test, err := splitExamples(examples, cfg.TestSize, cfg.Seed)
	if err != nil {
		return nil, Report{}, err
	}

	classes := uniqueLabels(train)
	if len(classes) < 2 {
		return nil, Report{}, fmt.Errorf("%w: training split has %d distinct label(s), need at least 2",
			ErrInsufficientData, len(classes))
	}
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	docs := make([]string, len(train))
	for i, ex := range train {
		docs[i] = ex.Text
	}
	vec := fitVectorizer(docs)

	xs := make([]sparseVector, len(train))
	ys := make([]int, len(train))
	for i, ex := range train {
		xs[i] = vec.transform(ex.Text)
		ys[i] = classIndex[ex.Label]
	}

	lr, iters := fitLogistic(xs, ys, len(classes), vec.size(), fitParams{
		maxIter:      cfg.MaxIter,
		c:            cfg.C,
		learningRate: cfg.LearningRate,
		tol:          cfg.Tol,
	})

	p := &Pipeline{
		kind:       kind,
		vectorizer: vec,
		model:      lr,
		classes:    classes,
		trainedAt:  time.Now().UTC(),
	}

	yTrue := make([]string, len(test))
	yPred := make([]string, len(test))
	for i, ex := range test {
		yTrue[i] = ex.Label
		yPred[i] = p.Predict(ex.Text).Label
	}
	report := Evaluate(yTrue, yPred)
	report.Kind = kind
	report.TrainSize = len(train)
	report.TestSize = len(test)
	report.Features = vec.size()
	report.Iterations = iters

	slog.Info("classifier trained",
		"kind", kind,
		"train", len(train),
		"test", len(test),
		"classes", len(classes),
		"features", vec.size(),
		"iterations", iters,
		"accuracy", report.Accuracy,
	)
	return p, report, nil
}

// Predict returns the most probable label for text. Terms unseen during
// training are ignored; text with no known terms is classified by the
// intercepts alone.
func (p *Pipeline) Predict(text string) Result {
	k, prob := p.model.predict(p.vectorizer.transform(text))
	return Result{Label: p.classes[k], Confidence: prob}
}

// Kind returns the tag the pipeline was trained or loaded with.
func (p *Pipeline) Kind() string { return p.kind }

// Labels returns the closed set of labels the pipeline can predict.
func (p *Pipeline) Labels() []string {
	return append([]string(nil), p.classes...)
}

// Features returns the vocabulary size.
func (p *Pipeline) Features() int { return p.vectorizer.size() }

// TrainedAt returns the time training finished.
func (p *Pipeline) TrainedAt() time.Time { return p.trainedAt }

func uniqueLabels(examples []Example) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, ex := range examples {
		if !seen[ex.Label] {
			seen[ex.Label] = true
			labels = append(labels, ex.Label)
		}
	}
	sort.Strings(labels)
	return labels
}
