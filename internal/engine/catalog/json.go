package catalog

import (
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/hejijunhao/triage/internal/model"
)

// decodeJSON parses a catalog of the form
//
//	{"D1": {"description": "...", "team": "...", "pattern": ["a", "b"]}, ...}
//
// fastjson is used because it visits object members in document order, which
// defines the order of detection results.
func decodeJSON(data []byte) ([]model.DefectPattern, error) {
	var p fastjson.Parser
	root, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	obj, err := root.Object()
	if err != nil {
		return nil, fmt.Errorf("%w: top level must be an object: %v", ErrMalformed, err)
	}

	var (
		defects  []model.DefectPattern
		visitErr error
	)
	obj.Visit(func(key []byte, v *fastjson.Value) {
		if visitErr != nil {
			return
		}
		d, err := decodeJSONEntry(string(key), v)
		if err != nil {
			visitErr = err
			return
		}
		defects = append(defects, d)
	})
	if visitErr != nil {
		return nil, visitErr
	}
	return defects, nil
}

func decodeJSONEntry(id string, v *fastjson.Value) (model.DefectPattern, error) {
	if v.Type() != fastjson.TypeObject {
		return model.DefectPattern{}, fmt.Errorf("%w: defect %q must be an object", ErrMalformed, id)
	}
	desc, err := jsonString(id, v, "description")
	if err != nil {
		return model.DefectPattern{}, err
	}
	team, err := jsonString(id, v, "team")
	if err != nil {
		return model.DefectPattern{}, err
	}

	pv := v.Get("pattern")
	if pv == nil {
		return model.DefectPattern{}, fmt.Errorf("%w: defect %q is missing \"pattern\"", ErrMalformed, id)
	}
	items, err := pv.Array()
	if err != nil {
		return model.DefectPattern{}, fmt.Errorf("%w: defect %q \"pattern\" must be an array", ErrMalformed, id)
	}
	pattern := make([]string, 0, len(items))
	for i, item := range items {
		b, err := item.StringBytes()
		if err != nil {
			return model.DefectPattern{}, fmt.Errorf("%w: defect %q pattern token %d must be a string", ErrMalformed, id, i)
		}
		pattern = append(pattern, string(b))
	}

	return model.DefectPattern{ID: id, Description: desc, Team: team, Pattern: pattern}, nil
}

func jsonString(id string, v *fastjson.Value, field string) (string, error) {
	fv := v.Get(field)
	if fv == nil {
		return "", fmt.Errorf("%w: defect %q is missing %q", ErrMalformed, id, field)
	}
	b, err := fv.StringBytes()
	if err != nil {
		return "", fmt.Errorf("%w: defect %q field %q must be a string", ErrMalformed, id, field)
	}
	return string(b), nil
}
