// Package catalog exposes the fixed set of artwork categories accepted by the
// marketplace. The set ships as embedded YAML and is parsed on first access.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// All is the sentinel category that matches every artwork.
const All = "All"

//go:embed categories.yaml
var categoriesRawData []byte

// Category describes one marketplace category.
type Category struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// categoriesFile is the top-level structure of the embedded YAML.
type categoriesFile struct {
	Categories []Category `yaml:"categories"`
}

// Catalog provides lazy-loaded access to the embedded category list.
type Catalog struct {
	once       sync.Once
	categories []Category
	index      map[string]struct{}
	err        error
}

// NewCatalog creates a new Catalog that will parse the embedded YAML on first access.
func NewCatalog() *Catalog {
	return &Catalog{}
}

var defaultCatalog = NewCatalog()

// Default returns the process-wide catalog.
func Default() *Catalog {
	return defaultCatalog
}

// Categories returns a copy of all categories in display order.
func (c *Catalog) Categories() ([]Category, error) {
	c.once.Do(c.load)
	if c.err != nil {
		return nil, c.err
	}
	cp := make([]Category, len(c.categories))
	copy(cp, c.categories)
	return cp, nil
}

// Names returns category names in display order, without the All sentinel.
func (c *Catalog) Names() ([]string, error) {
	cats, err := c.Categories()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cats))
	for i := range cats {
		names[i] = cats[i].Name
	}
	return names, nil
}

// Valid reports whether name is a known category. Matching is exact and
// case-sensitive. The All sentinel is not a valid category for a listing.
func (c *Catalog) Valid(name string) bool {
	c.once.Do(c.load)
	if c.err != nil {
		return false
	}
	_, ok := c.index[name]
	return ok
}

// ValidFilter reports whether name may be used as a category filter: either
// a known category or the All sentinel.
func (c *Catalog) ValidFilter(name string) bool {
	return name == All || c.Valid(name)
}

// load parses the embedded YAML category data.
func (c *Catalog) load() {
	var f categoriesFile
	if err := yaml.Unmarshal(categoriesRawData, &f); err != nil {
		c.err = fmt.Errorf("catalog: parse yaml: %w", err)
		return
	}
	c.categories = f.Categories
	c.index = make(map[string]struct{}, len(f.Categories))
	for i := range f.Categories {
		c.index[f.Categories[i].Name] = struct{}{}
	}
}
