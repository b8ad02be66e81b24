// Package catalog holds the known CS topics grouped by category.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jeonjuho23/claude-daily/internal/domain/model"
)

//go:embed topics.yaml
var topicsYAML []byte

type categoryEntry struct {
	ID     model.Category `yaml:"id"`
	Ko     string         `yaml:"ko"`
	En     string         `yaml:"en"`
	Topics []string       `yaml:"topics"`
}

type file struct {
	Categories []categoryEntry `yaml:"categories"`
}

// Entry pairs a topic with its category.
type Entry struct {
	Category model.Category
	Topic    string
}

type Catalog struct {
	order []model.Category
	byCat map[model.Category]categoryEntry
	total int
}

// Parse builds a catalog from yaml bytes. Unknown category ids are rejected.
func Parse(b []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse topic catalog: %w", err)
	}
	c := &Catalog{byCat: make(map[model.Category]categoryEntry, len(f.Categories))}
	for _, e := range f.Categories {
		if !e.ID.Valid() {
			return nil, fmt.Errorf("unknown category %q in topic catalog", e.ID)
		}
		if _, dup := c.byCat[e.ID]; dup {
			return nil, fmt.Errorf("duplicate category %q in topic catalog", e.ID)
		}
		c.order = append(c.order, e.ID)
		c.byCat[e.ID] = e
		c.total += len(e.Topics)
	}
	return c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog. It panics if the embedded file is broken,
// which can only happen at build time.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(topicsYAML)
		if err != nil {
			panic(err)
		}
		defaultCat = c
	})
	return defaultCat
}

func (c *Catalog) Categories() []model.Category {
	out := make([]model.Category, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Catalog) Topics(cat model.Category) []string {
	e, ok := c.byCat[cat]
	if !ok {
		return nil
	}
	out := make([]string, len(e.Topics))
	copy(out, e.Topics)
	return out
}

func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, c.total)
	for _, cat := range c.order {
		for _, t := range c.byCat[cat].Topics {
			out = append(out, Entry{Category: cat, Topic: t})
		}
	}
	return out
}

func (c *Catalog) Total() int { return c.total }

// DisplayName returns the localized category name, falling back to the id.
func (c *Catalog) DisplayName(cat model.Category, lang string) string {
	e, ok := c.byCat[cat]
	if !ok {
		return string(cat)
	}
	switch lang {
	case "en":
		if e.En != "" {
			return e.En
		}
	default:
		if e.Ko != "" {
			return e.Ko
		}
	}
	return string(cat)
}

// InferCategory matches topic against the catalog: exact (case and surrounding
// whitespace insensitive) first, then substring in either direction.
func (c *Catalog) InferCategory(topic string) (model.Category, bool) {
	needle := strings.ToLower(strings.TrimSpace(topic))
	if needle == "" {
		return "", false
	}
	for _, cat := range c.order {
		for _, known := range c.byCat[cat].Topics {
			if strings.ToLower(known) == needle {
				return cat, true
			}
		}
	}
	for _, cat := range c.order {
		for _, known := range c.byCat[cat].Topics {
			k := strings.ToLower(known)
			if strings.Contains(k, needle) || strings.Contains(needle, k) {
				return cat, true
			}
		}
	}
	return "", false
}
