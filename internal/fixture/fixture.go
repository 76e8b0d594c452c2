package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/breeding-verifier/internal/dna"
	"github.com/danielpatrickdp/breeding-verifier/internal/host"
)

// #region fixture-types

// File is the top-level YAML structure of a scenario fixture.
type File struct {
	Description string     `yaml:"description"`
	Scenarios   []Scenario `yaml:"scenarios"`
}

// Agent is one trait vector in a fixture. ID is ignored on the child.
type Agent struct {
	Traits     []int  `yaml:"traits"`
	Generation uint32 `yaml:"generation"`
	ID         uint64 `yaml:"id,omitempty"`
}

// Expect is the outcome a scenario must reproduce. Mutations and Commitment are
// checked only when set.
type Expect struct {
	Valid      bool   `yaml:"valid"`
	Mutations  *uint8 `yaml:"mutations,omitempty"`
	Commitment string `yaml:"commitment,omitempty"`
}

// Scenario is a single breeding claim with its expected public outcome.
type Scenario struct {
	Name    string `yaml:"name"`
	ParentA Agent  `yaml:"parent_a"`
	ParentB Agent  `yaml:"parent_b"`
	Child   Agent  `yaml:"child"`
	Expect  Expect `yaml:"expect"`
}

// #endregion fixture-types

// #region fixture-loader

// Load reads and parses a YAML fixture file. Unknown keys are rejected.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes fixture YAML and checks every scenario converts to a request.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	if len(f.Scenarios) == 0 {
		return nil, errors.New("no scenarios")
	}
	for i, s := range f.Scenarios {
		if s.Name == "" {
			return nil, fmt.Errorf("scenario %d: missing name", i)
		}
		if _, err := s.Request(); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	return &f, nil
}

// Request converts the scenario to a host request. Parent ids pass through as-is.
func (s *Scenario) Request() (host.Request, error) {
	a, err := dna.FromInts(s.ParentA.Traits, s.ParentA.Generation)
	if err != nil {
		return host.Request{}, fmt.Errorf("parent_a: %w", err)
	}
	b, err := dna.FromInts(s.ParentB.Traits, s.ParentB.Generation)
	if err != nil {
		return host.Request{}, fmt.Errorf("parent_b: %w", err)
	}
	c, err := dna.FromInts(s.Child.Traits, s.Child.Generation)
	if err != nil {
		return host.Request{}, fmt.Errorf("child: %w", err)
	}
	return host.Request{
		ParentA:   a,
		ParentB:   b,
		Child:     c,
		ParentAID: s.ParentA.ID,
		ParentBID: s.ParentB.ID,
	}, nil
}

// #endregion fixture-loader
