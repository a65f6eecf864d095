// Package catalog holds the read-only set of tests served to clients.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"timedquiz/internal/model"
)

// Catalog is the read-only view of tests the session store works against
type Catalog interface {
	Find(id string) (*model.Test, bool)
	All() []model.Test
}

type memoryCatalog struct {
	tests []model.Test
	byID  map[string]int
}

// New indexes the given tests. Later duplicates of an id are rejected.
func New(tests []model.Test) (Catalog, error) {
	c := &memoryCatalog{
		tests: make([]model.Test, 0, len(tests)),
		byID:  make(map[string]int, len(tests)),
	}
	for _, t := range tests {
		if t.ID == "" {
			return nil, fmt.Errorf("test %q has no id", t.Name)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate test id %q", t.ID)
		}
		if err := checkQuestions(&t); err != nil {
			return nil, err
		}
		c.byID[t.ID] = len(c.tests)
		c.tests = append(c.tests, t)
	}
	return c, nil
}

func checkQuestions(t *model.Test) error {
	seen := make(map[int]bool, len(t.Questions))
	for _, q := range t.Questions {
		if seen[q.ID] {
			return fmt.Errorf("test %q: duplicate question id %d", t.ID, q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}

func (c *memoryCatalog) Find(id string) (*model.Test, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return &c.tests[i], true
}

func (c *memoryCatalog) All() []model.Test {
	return c.tests
}

// LoadFile reads a catalog from a .json, .yaml or .yml file
func LoadFile(path string) (Catalog, error) {
	tests, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(tests)
}

// ReadFile decodes the tests in a catalog file without indexing them
func ReadFile(path string) ([]model.Test, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var tests []model.Test
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &tests)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &tests)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return tests, nil
}
