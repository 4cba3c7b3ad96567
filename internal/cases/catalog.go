// Package cases holds the read-only clinical case catalog.
package cases

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var catalogYAML []byte

// ErrNoMatch is returned by Pick when the catalog is empty.
var ErrNoMatch = errors.New("cases: no case matches filter")

// SupportedMajor is the catalog schema major version this build understands.
const SupportedMajor = "v1"

type catalogFile struct {
	Version string  `yaml:"version"`
	Cases   []*Case `yaml:"cases"`
}

// Catalog is an immutable, ordered set of cases indexed by id.
type Catalog struct {
	version string
	cases   []*Case
	byID    map[string]*Case
}

// Filter narrows Pick. Zero values mean "any".
type Filter struct {
	Specialty  string
	Level      int
	Difficulty Difficulty
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return Parse(catalogYAML)
})

// Default returns the embedded catalog, parsed once per process.
func Default() (*Catalog, error) {
	return loadDefault()
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	v := "v" + f.Version
	if !semver.IsValid(v) {
		return nil, fmt.Errorf("catalog version %q is not semver", f.Version)
	}
	if semver.Major(v) != SupportedMajor {
		return nil, fmt.Errorf("catalog version %s unsupported (want %s.x)", f.Version, SupportedMajor)
	}
	return New(f.Version, f.Cases)
}

// New builds a catalog from already-decoded cases.
func New(version string, list []*Case) (*Catalog, error) {
	c := &Catalog{
		version: version,
		cases:   list,
		byID:    make(map[string]*Case, len(list)),
	}
	for _, cs := range list {
		if err := cs.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[cs.ID]; dup {
			return nil, fmt.Errorf("duplicate case id %q", cs.ID)
		}
		c.byID[cs.ID] = cs
	}
	return c, nil
}

// Version returns the catalog's semantic version.
func (c *Catalog) Version() string { return c.version }

// All returns every case in catalog order. The slice is a copy; the cases
// are shared and must not be modified.
func (c *Catalog) All() []*Case { return slices.Clone(c.cases) }

// Len returns the number of cases.
func (c *Catalog) Len() int { return len(c.cases) }

// Get looks up a case by id. The case is shared and must not be modified.
func (c *Catalog) Get(id string) (*Case, bool) {
	cs, ok := c.byID[id]
	return cs, ok
}

// Specialties returns the distinct specialties, sorted.
func (c *Catalog) Specialties() []string {
	var out []string
	for _, cs := range c.cases {
		if !slices.Contains(out, cs.Specialty) {
			out = append(out, cs.Specialty)
		}
	}
	slices.Sort(out)
	return out
}

// Levels returns the distinct levels available in a specialty, sorted.
func (c *Catalog) Levels(specialty string) []int {
	var out []int
	for _, cs := range c.cases {
		if cs.Specialty == specialty && !slices.Contains(out, cs.Level) {
			out = append(out, cs.Level)
		}
	}
	slices.Sort(out)
	return out
}

// Pick chooses a case at random under f. An exact level match wins, then a
// difficulty match within the specialty, then any case in the specialty. If
// the specialty filter leaves nothing, the whole catalog is used.
func (c *Catalog) Pick(f Filter, r *rand.Rand) (*Case, error) {
	if len(c.cases) == 0 {
		return nil, ErrNoMatch
	}
	pool := c.cases
	if f.Specialty != "" {
		pool = c.where(pool, func(cs *Case) bool { return cs.Specialty == f.Specialty })
	}
	if f.Level > 0 {
		if exact := c.where(pool, func(cs *Case) bool { return cs.Level == f.Level }); len(exact) > 0 {
			return choose(exact, r), nil
		}
	}
	if f.Difficulty != "" {
		if match := c.where(pool, func(cs *Case) bool { return cs.Difficulty == f.Difficulty }); len(match) > 0 {
			return choose(match, r), nil
		}
	}
	if len(pool) == 0 {
		pool = c.cases
	}
	return choose(pool, r), nil
}

func (c *Catalog) where(in []*Case, keep func(*Case) bool) []*Case {
	var out []*Case
	for _, cs := range in {
		if keep(cs) {
			out = append(out, cs)
		}
	}
	return out
}

func choose(pool []*Case, r *rand.Rand) *Case {
	if r == nil {
		return pool[rand.IntN(len(pool))]
	}
	return pool[r.IntN(len(pool))]
}
