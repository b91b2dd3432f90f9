package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn is returned when a required field cannot be bound to any header.
var ErrMissingColumn = errors.New("missing required column")

// Binding maps each canonical field to the literal header it was bound to.
// Unbound fields are absent.
type Binding map[Field]string

// Header returns the header bound to f.
func (b Binding) Header(f Field) (string, bool) {
	h, ok := b[f]
	return h, ok
}

// Unbound returns the fields with no header, in resolution order.
func (b Binding) Unbound() []Field {
	var out []Field
	for _, spec := range FieldSpecs {
		if _, ok := b[spec.Field]; !ok {
			out = append(out, spec.Field)
		}
	}
	return out
}

// ResolveColumns binds canonical fields to the given header row.
//
// Each field is tried in two passes: an exact match of the normalized header
// against the field's synonyms, then the first header (in file order) whose
// normalized text contains any synonym. Fields are resolved independently.
// Returns ErrMissingColumn if a required field stays unbound.
func ResolveColumns(headers []string) (Binding, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	b := make(Binding, len(FieldSpecs))
	for _, spec := range FieldSpecs {
		if h, ok := resolveField(spec, headers, normalized); ok {
			b[spec.Field] = h
			continue
		}
		if spec.Required {
			return nil, fmt.Errorf("%w %q (accepted headers: %s)",
				ErrMissingColumn, spec.Label, strings.Join(spec.Synonyms, ", "))
		}
	}
	return b, nil
}

// resolveField runs the exact pass then the substring pass for one field.
func resolveField(spec FieldSpec, headers, normalized []string) (string, bool) {
	for _, syn := range spec.Synonyms {
		for i, h := range normalized {
			if h == syn {
				return headers[i], true
			}
		}
	}

	for i, h := range normalized {
		if h == "" {
			continue
		}
		for _, syn := range spec.Synonyms {
			if strings.Contains(h, syn) {
				return headers[i], true
			}
		}
	}
	return "", false
}

// normalizeHeader lower-cases, trims and collapses runs of whitespace to one space.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
