package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hejijunhao/triage/internal/model"
)

type yamlEntry struct {
	Description *string  `yaml:"description"`
	Team        *string  `yaml:"team"`
	Pattern     []string `yaml:"pattern"`
}

// decodeYAML parses the YAML form of the catalog. Walking the node tree keeps
// mapping keys in document order.
func decodeYAML(data []byte) ([]model.DefectPattern, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrMalformed)
	}

	defects := make([]model.DefectPattern, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		id := key.Value
		if val.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: defect %q must be a mapping (line %d)", ErrMalformed, id, val.Line)
		}
		var e yamlEntry
		if err := val.Decode(&e); err != nil {
			return nil, fmt.Errorf("%w: defect %q: %v", ErrMalformed, id, err)
		}
		switch {
		case e.Description == nil:
			return nil, fmt.Errorf("%w: defect %q is missing \"description\"", ErrMalformed, id)
		case e.Team == nil:
			return nil, fmt.Errorf("%w: defect %q is missing \"team\"", ErrMalformed, id)
		case e.Pattern == nil:
			return nil, fmt.Errorf("%w: defect %q is missing \"pattern\"", ErrMalformed, id)
		}
		defects = append(defects, model.DefectPattern{
			ID:          id,
			Description: *e.Description,
			Team:        *e.Team,
			Pattern:     e.Pattern,
		})
	}
	return defects, nil
}
