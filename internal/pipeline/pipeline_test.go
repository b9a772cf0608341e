package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hejijunhao/triage/internal/engine/classifier"
	"github.com/hejijunhao/triage/internal/engine/parser"
	"github.com/hejijunhao/triage/internal/model"
)

// --- mocks ---

// mockAnalyzer reports the first line of the text as the sequence label.
// Texts containing "partial" yield ErrModelUnavailable, "fail" a plain error.
type mockAnalyzer struct {
	delay  time.Duration
	active atomic.Int64
	peak   atomic.Int64
}

func (m *mockAnalyzer) Analyze(_ context.Context, source, text string) (model.Report, error) {
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(m.delay)

	r := model.Report{SourceFile: source, SequenceLabel: strings.SplitN(text, "\n", 2)[0]}
	switch {
	case strings.Contains(text, "partial"):
		return r, fmt.Errorf("engine: %w", classifier.ErrModelUnavailable)
	case strings.Contains(text, "fail"):
		return r, errors.New("analysis failed")
	}
	return r, nil
}

type mockOutput struct {
	mu      sync.Mutex
	reports []model.Report
	err     error
	closed  bool
}

func (m *mockOutput) Write(_ context.Context, r model.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.reports = append(m.reports, r)
	return nil
}

func (m *mockOutput) Close() error {
	m.closed = true
	return nil
}

func (m *mockOutput) sources() []string {
	var out []string
	for _, r := range m.reports {
		out = append(out, r.SourceFile)
	}
	return out
}

// --- tests ---

func TestRunWritesReportsInOrder(t *testing.T) {
	out := &mockOutput{}
	p := New(&mockAnalyzer{delay: time.Millisecond}, out, WithWorkers(4))

	var sources []Source
	for i := 0; i < 10; i++ {
		sources = append(sources, BytesSource(fmt.Sprintf("log%d.txt", i), []byte("ok")))
	}
	stats, err := p.Run(context.Background(), sources)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.Analyzed != 10 || stats.Files != 10 {
		t.Fatalf("stats = %+v", stats)
	}
	for i, name := range out.sources() {
		if want := fmt.Sprintf("log%d.txt", i); name != want {
			t.Errorf("report %d is %s, want %s", i, name, want)
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	a := &mockAnalyzer{delay: 20 * time.Millisecond}
	p := New(a, &mockOutput{}, WithWorkers(2))

	var sources []Source
	for i := 0; i < 8; i++ {
		sources = append(sources, BytesSource("x", []byte("ok")))
	}
	if _, err := p.Run(context.Background(), sources); err != nil {
		t.Fatal(err)
	}
	if peak := a.peak.Load(); peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestRunSkipsBadFiles(t *testing.T) {
	out := &mockOutput{}
	p := New(&mockAnalyzer{}, out)

	sources := []Source{
		BytesSource("good.txt", []byte("ok")),
		BytesSource("binary.bin", []byte{0xff, 0xfe, 0x00}),
		FileSource(filepath.Join(t.TempDir(), "missing.txt")),
		BytesSource("broken.txt", []byte("fail")),
		BytesSource("partial.txt", []byte("partial")),
	}
	stats, err := p.Run(context.Background(), sources)

	if !errors.Is(err, parser.ErrInvalidEncoding) {
		t.Errorf("expected joined error to include ErrInvalidEncoding, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected joined error to include ErrNotExist, got %v", err)
	}
	if errors.Is(err, classifier.ErrModelUnavailable) {
		t.Error("partial reports should not be reported as failures")
	}
	if stats.Analyzed != 2 || stats.Partial != 1 || stats.Failed != 3 {
		t.Errorf("stats = %+v, want 2 analyzed, 1 partial, 3 failed", stats)
	}
	if got := out.sources(); len(got) != 2 || got[0] != "good.txt" || got[1] != "partial.txt" {
		t.Errorf("written reports = %v", got)
	}
}

func TestRunOutputErrorStops(t *testing.T) {
	p := New(&mockAnalyzer{}, &mockOutput{err: errors.New("disk full")})
	_, err := p.Run(context.Background(), []Source{BytesSource("a", []byte("ok"))})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected output error, got %v", err)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := &mockOutput{}
	p := New(&mockAnalyzer{}, out)

	_, err := p.Run(ctx, []Source{BytesSource("a", []byte("ok"))})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(out.reports) != 0 {
		t.Error("no reports should be written after cancellation")
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log1.txt")
	if err := os.WriteFile(path, []byte("\ufeffhello\nworld"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := &mockOutput{}
	if _, err := New(&mockAnalyzer{}, out).Run(context.Background(), []Source{FileSource(path)}); err != nil {
		t.Fatal(err)
	}
	if out.reports[0].SourceFile != "log1.txt" {
		t.Errorf("SourceFile = %q, want base name", out.reports[0].SourceFile)
	}
	if out.reports[0].SequenceLabel != "hello" {
		t.Errorf("BOM should be stripped before analysis, got %q", out.reports[0].SequenceLabel)
	}
}

func TestClose(t *testing.T) {
	out := &mockOutput{}
	if err := New(&mockAnalyzer{}, out).Close(); err != nil {
		t.Fatal(err)
	}
	if !out.closed {
		t.Error("Close should close the output")
	}
}
