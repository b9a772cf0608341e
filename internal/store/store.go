// Package store persists operator confirmations to an append-only CSV file.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hejijunhao/triage/internal/engine/summary"
	"github.com/hejijunhao/triage/internal/model"
)

var (
	// ErrUnknownTeam is returned when a confirmation names a team outside
	// the configured list.
	ErrUnknownTeam = errors.New("store: unknown team")
	// ErrInvalid is returned for confirmations missing required fields.
	ErrInvalid = errors.New("store: invalid confirmation")
)

// Header is the first row of every confirmations file.
var Header = []string{"Defect Label", "Log Count", "Sample Message", "Assigned Team", "Timestamp", "Source Log File"}

// Store appends confirmations to a CSV file. The header is written once,
// when the file is created or empty. Appends are serialised, so one Store
// may be shared by concurrent requests in a process.
type Store struct {
	mu    sync.Mutex
	path  string
	teams []string
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used when a confirmation has no
// timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store writing to path. teams is the closed set of assignable
// teams and must not be empty.
func New(path string, teams []string, opts ...Option) (*Store, error) {
	if len(teams) == 0 {
		return nil, errors.New("store: no teams configured")
	}
	s := &Store{
		path:  path,
		teams: slices.Clone(teams),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the CSV file path.
func (s *Store) Path() string { return s.path }

// Teams returns the assignable teams in configured order.
func (s *Store) Teams() []string { return slices.Clone(s.teams) }

// Append validates c and appends it as one row. A zero Timestamp is set to
// the current time. The stored confirmation is returned.
func (s *Store) Append(c model.Confirmation) (model.Confirmation, error) {
	c.Label = strings.TrimSpace(c.Label)
	c.AssignedTeam = strings.TrimSpace(c.AssignedTeam)
	switch {
	case c.Label == "":
		return c, fmt.Errorf("%w: label is required", ErrInvalid)
	case c.LogCount < 0:
		return c, fmt.Errorf("%w: log count %d is negative", ErrInvalid, c.LogCount)
	case !slices.Contains(s.teams, c.AssignedTeam):
		return c, fmt.Errorf("%w: %q (choose one of: %s)", ErrUnknownTeam, c.AssignedTeam, strings.Join(s.teams, ", "))
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return c, fmt.Errorf("store: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return c, fmt.Errorf("store: open %s: %w", s.path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return c, fmt.Errorf("store: stat %s: %w", s.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		w.Write(Header)
	}
	w.Write([]string{
		c.Label,
		strconv.Itoa(c.LogCount),
		c.SampleMessage,
		c.AssignedTeam,
		c.Timestamp.Format(summary.TimeLayout),
		c.SourceFile,
	})
	w.Flush()
	if err := w.Error(); err != nil {
		return c, fmt.Errorf("store: write %s: %w", s.path, err)
	}

	slog.Info("confirmation saved", "label", c.Label, "team", c.AssignedTeam, "source", c.SourceFile)
	return c, nil
}

// List reads every stored confirmation in file order. A missing file yields
// no confirmations. Timestamps are parsed in the local time zone.
func (s *Store) List() ([]model.Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read header: %w", err)
	}

	var out []model.Confirmation
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("store: read %s: %w", s.path, err)
		}
		count, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("store: log count %q: %w", rec[1], err)
		}
		ts, err := time.ParseInLocation(summary.TimeLayout, rec[4], time.Local)
		if err != nil {
			return nil, fmt.Errorf("store: timestamp %q: %w", rec[4], err)
		}
		out = append(out, model.Confirmation{
			Label:         rec[0],
			LogCount:      count,
			SampleMessage: rec[2],
			AssignedTeam:  rec[3],
			Timestamp:     ts,
			SourceFile:    rec[5],
		})
	}
}
