// Package manifest loads the test-suite manifest and builds the
// bidirectional mapping between requirement identifiers and tests.
package manifest

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/kabir/a2a-tck/internal/apperr"
	"github.com/kabir/a2a-tck/internal/models"
)

// Manifest is the declared test suite: an ordered list of test records.
type Manifest struct {
	Suite string        `yaml:"suite" json:"suite"`
	Tests []models.Test `yaml:"tests" json:"tests"`
}

// Load parses and validates a YAML manifest. Duplicate test identifiers
// are rejected; an empty requirements list is valid (the test is simply
// undocumented).
func Load(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse: %w", err)
	}

	seen := make(map[string]struct{}, len(m.Tests))
	for i, t := range m.Tests {
		if err := validateTest(t); err != nil {
			return nil, fmt.Errorf("manifest: test %d: %w", i, err)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("manifest: test %q: %w", t.ID, apperr.ErrDuplicate)
		}
		seen[t.ID] = struct{}{}
	}
	return &m, nil
}

func validateTest(t models.Test) error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Category, validation.Required),
		validation.Field(&t.Requirements, validation.Each(validation.Required)),
	)
}
