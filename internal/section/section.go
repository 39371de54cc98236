package section

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed sections.yaml
var defaultData []byte

var (
	ErrUnknownSection = errors.New("unknown section")

	defaultCatalog *Catalog
	defaultErr     error
	once           sync.Once
)

// Section holds the static geometric properties of a rolled steel profile.
// Only H takes part in the opening calculation.
type Section struct {
	Name     string  `yaml:"name" json:"name"`
	Area     float64 `yaml:"area" json:"area"`
	Weight   float64 `yaml:"weight" json:"weight,omitempty"`
	H        float64 `yaml:"h" json:"h"`
	B        float64 `yaml:"b" json:"b"`
	S        float64 `yaml:"s" json:"s"`
	R        float64 `yaml:"r" json:"r,omitempty"`
	T        float64 `yaml:"t" json:"t"`
	C        float64 `yaml:"c" json:"c,omitempty"`
	HMinus2C float64 `yaml:"h_minus_2c" json:"h_minus_2c,omitempty"`
	Ix       float64 `yaml:"ix" json:"ix,omitempty"`
	Sx       float64 `yaml:"sx" json:"sx,omitempty"`
	Rx       float64 `yaml:"rx" json:"rx,omitempty"`
	Iy       float64 `yaml:"iy" json:"iy,omitempty"`
	Sy       float64 `yaml:"sy" json:"sy,omitempty"`
	Ry       float64 `yaml:"ry" json:"ry,omitempty"`
}

type lambdaBand struct {
	Lambda   float64  `yaml:"lambda"`
	Sections []string `yaml:"sections"`
}

type document struct {
	Sections    []Section    `yaml:"sections"`
	LambdaBands []lambdaBand `yaml:"lambda_bands"`
	Ratios      []float64    `yaml:"ratios"`
}

// Catalog is a read-only view of section properties, lambda constants and
// the R values the regression model was trained on.
type Catalog struct {
	sections map[string]Section
	order    []string
	lambdas  map[string]float64
	ratios   []float64
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	once.Do(func() {
		defaultCatalog, defaultErr = Parse(defaultData)
	})
	return defaultCatalog, defaultErr
}

// MustDefault is Default for callers that cannot recover from a broken
// embedded table.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from its YAML form.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse section catalog: %w", err)
	}
	return New(doc.Sections, bandMap(doc.LambdaBands), doc.Ratios)
}

func bandMap(bands []lambdaBand) map[string]float64 {
	m := make(map[string]float64)
	for _, b := range bands {
		for _, name := range b.Sections {
			m[name] = b.Lambda
		}
	}
	return m
}

// New assembles a catalog. A lambda entry may name a section that is not in
// sections and a section may lack a lambda entry; both are allowed.
func New(sections []Section, lambdas map[string]float64, ratios []float64) (*Catalog, error) {
	c := &Catalog{
		sections: make(map[string]Section, len(sections)),
		lambdas:  make(map[string]float64, len(lambdas)),
	}
	for _, s := range sections {
		if s.Name == "" {
			return nil, fmt.Errorf("section without name")
		}
		if _, dup := c.sections[s.Name]; dup {
			return nil, fmt.Errorf("duplicate section %q", s.Name)
		}
		c.sections[s.Name] = s
		c.order = append(c.order, s.Name)
	}
	for name, v := range lambdas {
		c.lambdas[name] = v
	}
	if len(ratios) == 0 {
		return nil, fmt.Errorf("catalog has no allowed ratios")
	}
	c.ratios = append([]float64(nil), ratios...)
	sort.Float64s(c.ratios)
	return c, nil
}

// Lookup returns the section named name or ErrUnknownSection.
func (c *Catalog) Lookup(name string) (Section, error) {
	s, ok := c.sections[name]
	if !ok {
		return Section{}, fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	return s, nil
}

// Lambda returns the calibration constant for name, or 0 when the table has
// no entry for it.
func (c *Catalog) Lambda(name string) float64 {
	return c.lambdas[name]
}

const ratioTolerance = 1e-9

// RatioAllowed reports whether r is one of the catalog's discrete ratios.
func (c *Catalog) RatioAllowed(r float64) bool {
	for _, v := range c.ratios {
		if math.Abs(v-r) <= ratioTolerance {
			return true
		}
	}
	return false
}

// Ratios returns the allowed R values in ascending order.
func (c *Catalog) Ratios() []float64 {
	return append([]float64(nil), c.ratios...)
}

// Names returns section names in catalog order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Sections returns all sections in catalog order.
func (c *Catalog) Sections() []Section {
	out := make([]Section, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.sections[name])
	}
	return out
}
