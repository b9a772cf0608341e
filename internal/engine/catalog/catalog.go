package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hejijunhao/triage/internal/model"
)

// ErrMalformed is wrapped by every structural problem found while loading a
// catalog. A malformed catalog is never partially loaded.
var ErrMalformed = errors.New("catalog: malformed")

// Catalog is the immutable, ordered set of known defect signatures.
// Safe for concurrent use.
type Catalog struct {
	defects []model.DefectPattern
	index   map[string]int
}

// New validates the given defects and builds a Catalog preserving their order.
func New(defects []model.DefectPattern) (*Catalog, error) {
	c := &Catalog{
		defects: make([]model.DefectPattern, 0, len(defects)),
		index:   make(map[string]int, len(defects)),
	}
	for _, d := range defects {
		if err := validate(d); err != nil {
			return nil, err
		}
		if _, dup := c.index[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate defect id %q", ErrMalformed, d.ID)
		}
		d.Pattern = append([]string(nil), d.Pattern...)
		c.index[d.ID] = len(c.defects)
		c.defects = append(c.defects, d)
	}
	return c, nil
}

// Load reads a catalog file. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	var defects []model.DefectPattern
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		defects, err = decodeYAML(data)
	default:
		defects, err = decodeJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return New(defects)
}

// ParseJSON builds a catalog from JSON document bytes.
func ParseJSON(data []byte) (*Catalog, error) {
	defects, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	return New(defects)
}

// Defects returns the catalog entries in file order. The returned slice is a
// copy; pattern slices are shared and must not be modified.
func (c *Catalog) Defects() []model.DefectPattern {
	if c == nil {
		return nil
	}
	out := make([]model.DefectPattern, len(c.defects))
	copy(out, c.defects)
	return out
}

// Get looks up a defect by id.
func (c *Catalog) Get(id string) (model.DefectPattern, bool) {
	if c == nil {
		return model.DefectPattern{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return model.DefectPattern{}, false
	}
	return c.defects[i], true
}

// Len returns the number of defects in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.defects)
}

// Teams returns the distinct owning teams in first-occurrence order.
func (c *Catalog) Teams() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]bool)
	var teams []string
	for _, d := range c.defects {
		if d.Team == "" || seen[d.Team] {
			continue
		}
		seen[d.Team] = true
		teams = append(teams, d.Team)
	}
	return teams
}

// validate rejects entries that would fail or match vacuously at detection time.
// An empty pattern would match every batch, and an empty token would match
// every message, so both are treated as malformed.
func validate(d model.DefectPattern) error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: empty defect id", ErrMalformed)
	}
	if len(d.Pattern) == 0 {
		return fmt.Errorf("%w: defect %q has an empty pattern", ErrMalformed, d.ID)
	}
	for i, tok := range d.Pattern {
		if tok == "" {
			return fmt.Errorf("%w: defect %q pattern token %d is empty", ErrMalformed, d.ID, i)
		}
	}
	return nil
}
