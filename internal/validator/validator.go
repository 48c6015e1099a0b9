package validator

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Error lists every schema violation found in one document.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return strings.Join(e.Problems, ", ")
}

// Validator holds the request schemas compiled once at startup.
type Validator struct {
	schemas map[Schema]*gojsonschema.Schema
}

func New() (*Validator, error) {
	v := &Validator{schemas: make(map[Schema]*gojsonschema.Schema, len(schemaSources))}
	for name, src := range schemaSources {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = s
	}
	return v, nil
}

// ValidateJSON checks a raw request body.
func (v *Validator) ValidateJSON(name Schema, body []byte) error {
	return v.validate(name, gojsonschema.NewBytesLoader(body))
}

// ValidateValue checks a Go value (maps, structs) through its JSON form.
func (v *Validator) ValidateValue(name Schema, doc interface{}) error {
	return v.validate(name, gojsonschema.NewGoLoader(doc))
}

func (v *Validator) validate(name Schema, doc gojsonschema.JSONLoader) error {
	s, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	result, err := s.Validate(doc)
	if err != nil {
		// body is not JSON at all
		return &Error{Problems: []string{"request body must be valid JSON"}}
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		// "(root).shippingAddress.city" -> "shippingAddress.city"
		field := strings.TrimPrefix(strings.TrimPrefix(re.Context().String(), "(root)"), ".")
		if field == "" {
			problems = append(problems, re.Description())
			continue
		}
		problems = append(problems, field+": "+re.Description())
	}
	return &Error{Problems: problems}
}
