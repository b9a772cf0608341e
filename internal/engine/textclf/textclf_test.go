package textclf

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Bus load > 90% on CAN1", []string{"bus", "load", "90", "on", "can1"}},
		{"ECU-1 [NAV] x_y", []string{"ecu", "nav", "x_y"}},
		{"Café  Résumé\tnaïve", []string{"cafe", "resume", "naive"}},
		{"a b c", nil},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, analyze(tt.text), "analyze(%q)", tt.text)
	}
}

func TestFitVectorizer(t *testing.T) {
	v := fitVectorizer([]string{"a bb cc", "bb dd"})
	require.Equal(t, []string{"bb", "cc", "dd"}, v.terms)
	assert.InDelta(t, 1.0, v.idf[0], 1e-12)
	assert.InDelta(t, math.Log(1.5)+1, v.idf[1], 1e-12)

	x := v.transform("cc cc bb unknown")
	require.Equal(t, []int{0, 1}, x.idx)
	var norm float64
	for _, w := range x.val {
		norm += w * w
	}
	assert.InDelta(t, 1.0, norm, 1e-12)
	assert.Greater(t, x.val[1], x.val[0])

	empty := v.transform("nothing known here")
	assert.Empty(t, empty.idx)
}

func TestEvaluate(t *testing.T) {
	r := Evaluate([]string{"a", "a", "b", "b"}, []string{"a", "b", "b", "b"})
	require.Len(t, r.Classes, 2)

	a, b := r.Classes[0], r.Classes[1]
	assert.Equal(t, "a", a.Label)
	assert.InDelta(t, 1.0, a.Precision, 1e-9)
	assert.InDelta(t, 0.5, a.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, a.F1, 1e-9)
	assert.Equal(t, 2, a.Support)

	assert.InDelta(t, 2.0/3.0, b.Precision, 1e-9)
	assert.InDelta(t, 1.0, b.Recall, 1e-9)
	assert.InDelta(t, 0.8, b.F1, 1e-9)

	assert.InDelta(t, 0.75, r.Accuracy, 1e-9)
	assert.InDelta(t, (1.0+2.0/3.0)/2, r.MacroAvg.Precision, 1e-9)
	assert.Equal(t, 4, r.WeightedAvg.Support)

	out := r.String()
	assert.Contains(t, out, "precision")
	assert.Contains(t, out, "weighted avg")
	assert.Contains(t, out, "accuracy")
}

func TestEvaluatePredictedOnlyLabel(t *testing.T) {
	r := Evaluate([]string{"a"}, []string{"c"})
	require.Len(t, r.Classes, 2)
	assert.Equal(t, "c", r.Classes[1].Label)
	assert.Equal(t, 0, r.Classes[1].Support)
	assert.Zero(t, r.Classes[1].Precision)
}

func TestSplitExamples(t *testing.T) {
	examples := make([]Example, 10)
	for i := range examples {
		examples[i] = Example{Text: fmt.Sprint(i), Label: "x"}
	}

	train, test, err := splitExamples(examples, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)

	train2, test2, err := splitExamples(examples, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	seen := make(map[string]bool)
	for _, ex := range append(train, test...) {
		seen[ex.Text] = true
	}
	assert.Len(t, seen, 10)

	_, _, err = splitExamples(examples[:1], 0.2, 42)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

// corpus returns two clearly separable defect classes.
func corpus() []Example {
	var out []Example
	for i := 0; i < 10; i++ {
		out = append(out,
			Example{Text: fmt.Sprintf("[ERROR] Bus load > %d%% on CAN1 frame dropped", 80+i), Label: "can_overload"},
			Example{Text: fmt.Sprintf("[WARN] Route recalculation %d triggered gps signal lost", i), Label: "nav_reroute"},
		)
	}
	return out
}

func trainCorpus(t *testing.T, kind string) (*Pipeline, Report) {
	t.Helper()
	p, r, err := Train(kind, corpus(), DefaultConfig())
	require.NoError(t, err)
	return p, r
}

func TestTrainAndPredict(t *testing.T) {
	p, r := trainCorpus(t, "line")

	assert.Equal(t, "line", p.Kind())
	assert.Equal(t, []string{"can_overload", "nav_reroute"}, p.Labels())
	assert.Positive(t, p.Features())
	assert.False(t, p.TrainedAt().IsZero())

	assert.Equal(t, 16, r.TrainSize)
	assert.Equal(t, 4, r.TestSize)
	assert.InDelta(t, 1.0, r.Accuracy, 1e-9)

	res := p.Predict("bus load exceeded on can1")
	assert.Equal(t, "can_overload", res.Label)
	assert.Greater(t, res.Confidence, 0.5)

	assert.Equal(t, "nav_reroute", p.Predict("gps route recalculation").Label)
}

func TestPredictDeterministic(t *testing.T) {
	p, _ := trainCorpus(t, "line")
	for _, text := range []string{"bus load", "route", "completely unknown words", ""} {
		first := p.Predict(text)
		second := p.Predict(text)
		assert.Equal(t, first, second, "text %q", text)
		assert.Contains(t, p.Labels(), first.Label)
	}

	q, _ := trainCorpus(t, "line")
	assert.Equal(t, p.Predict("bus load gps").Label, q.Predict("bus load gps").Label)
}

func TestTrainSingleLabel(t *testing.T) {
	examples := []Example{
		{Text: "a b", Label: "x"}, {Text: "cc dd", Label: "x"},
		{Text: "ee ff", Label: "x"}, {Text: "gg", Label: "x"},
	}
	_, _, err := Train("line", examples, DefaultConfig())
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestTrainInvalidConfig(t *testing.T) {
	for _, mutate := range []func(*Config){
		func(c *Config) { c.TestSize = 1 },
		func(c *Config) { c.TestSize = -0.1 },
		func(c *Config) { c.MaxIter = 0 },
		func(c *Config) { c.C = 0 },
		func(c *Config) { c.LearningRate = 0 },
	} {
		cfg := DefaultConfig()
		mutate(&cfg)
		_, _, err := Train("line", corpus(), cfg)
		assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
	}
}

func TestTrainWithoutEvaluation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TestSize = 0
	_, r, err := Train("sequence", corpus(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 20, r.TrainSize)
	assert.Empty(t, r.Classes)
	assert.Contains(t, r.String(), "no evaluation split")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p, _ := trainCorpus(t, "sequence")
	path := filepath.Join(t.TempDir(), "models", "seq.model")
	require.NoError(t, p.Save(path))

	q, err := Load(path, "sequence")
	require.NoError(t, err)
	assert.Equal(t, p.Labels(), q.Labels())
	assert.Equal(t, p.Features(), q.Features())
	assert.True(t, p.TrainedAt().Equal(q.TrainedAt()))
	for _, text := range []string{"bus load on can1", "route recalculation", "unseen tokens only"} {
		assert.Equal(t, p.Predict(text), q.Predict(text), "text %q", text)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestLoadKindMismatch(t *testing.T) {
	p, _ := trainCorpus(t, "line")
	var buf bytes.Buffer
	require.NoError(t, p.Encode(&buf))

	_, err := Decode(bytes.NewReader(buf.Bytes()), "sequence")
	assert.True(t, errors.Is(err, ErrKindMismatch))

	q, err := Decode(bytes.NewReader(buf.Bytes()), "line")
	require.NoError(t, err)
	assert.Equal(t, "line", q.Kind())
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "absent.model"), "line")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.model")
	require.NoError(t, os.WriteFile(bad, []byte("not an artifact"), 0644))
	_, err = Load(bad, "line")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "bad.model"))
}
