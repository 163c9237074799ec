// Package activity samples the focused application and turns focus time into
// activity samples with a productivity weight and category.
package activity

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/j-veylop/omnicoach/internal/models"
)

const (
	// DefaultWeight is assigned to applications missing from the weight table.
	DefaultWeight = 60.0

	// EmptyNameWeight is assigned when the application name is empty.
	EmptyNameWeight = 50.0

	classifierCacheSize = 512
)

// WeightEntry is one row of the productivity weight table.
type WeightEntry struct {
	Name   string
	Weight float64
}

// CategoryRule maps name keywords to a category.
type CategoryRule struct {
	Category models.Category
	Keywords []string
}

// DefaultWeights is the built-in weight table. Substring matching walks it in order.
var DefaultWeights = []WeightEntry{
	{"code", 95},
	{"vs code", 95},
	{"visual studio code", 95},
	{"intellij", 95},
	{"pycharm", 95},
	{"sublime", 90},
	{"atom", 90},
	{"notepad++", 85},
	{"notion", 85},
	{"obsidian", 85},
	{"word", 75},
	{"excel", 80},
	{"powerpoint", 70},
	{"chrome", 60},
	{"firefox", 60},
	{"edge", 60},
	{"safari", 60},
	{"slack", 70},
	{"teams", 70},
	{"zoom", 65},
	{"discord", 40},
	{"steam", 20},
	{"netflix", 10},
	{"youtube", 30},
	{"twitter", 25},
	{"facebook", 25},
	{"instagram", 20},
	{"reddit", 30},
	{"spotify", 50},
	{"music", 50},
}

// DefaultCategories is the built-in category table, checked in order.
var DefaultCategories = []CategoryRule{
	{models.CategoryDevelopment, []string{"code", "intellij", "pycharm", "sublime"}},
	{models.CategoryBrowsing, []string{"chrome", "firefox", "safari", "edge"}},
	{models.CategoryCommunication, []string{"slack", "teams", "zoom", "discord"}},
	{models.CategoryDocumentation, []string{"notion", "obsidian", "word", "excel"}},
	{models.CategoryEntertainment, []string{"spotify", "music", "netflix", "youtube"}},
}

// Classification is the weight and category resolved for an application name.
type Classification struct {
	Category models.Category
	Weight   float64
}

// Classifier resolves application names against the weight and category
// tables. Lookups are matched case-insensitively: exact name first, then a
// substring match in either direction.
type Classifier struct {
	mu         sync.RWMutex
	weights    []WeightEntry
	categories []CategoryRule
	cache      *lru.Cache[string, Classification]
}

// NewClassifier creates a classifier seeded with the built-in tables.
func NewClassifier() *Classifier {
	cache, err := lru.New[string, Classification](classifierCacheSize)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}

	c := &Classifier{
		weights:    make([]WeightEntry, len(DefaultWeights)),
		categories: make([]CategoryRule, len(DefaultCategories)),
		cache:      cache,
	}
	copy(c.weights, DefaultWeights)
	copy(c.categories, DefaultCategories)
	return c
}

// Classify returns the weight and category for an application name.
func (c *Classifier) Classify(appName string) Classification {
	name := strings.ToLower(strings.TrimSpace(appName))
	if name == "" {
		return Classification{Category: models.CategoryOther, Weight: EmptyNameWeight}
	}

	if cached, ok := c.cache.Get(name); ok {
		return cached
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	result := Classification{
		Weight:   c.weightLocked(name),
		Category: c.categoryLocked(name),
	}
	c.cache.Add(name, result)
	return result
}

// Weight returns the productivity weight for an application name.
func (c *Classifier) Weight(appName string) float64 {
	return c.Classify(appName).Weight
}

// Category returns the category for an application name.
func (c *Classifier) Category(appName string) models.Category {
	return c.Classify(appName).Category
}

func (c *Classifier) weightLocked(name string) float64 {
	for _, e := range c.weights {
		if e.Name == name {
			return e.Weight
		}
	}
	for _, e := range c.weights {
		if strings.Contains(name, e.Name) || strings.Contains(e.Name, name) {
			return e.Weight
		}
	}
	return DefaultWeight
}

func (c *Classifier) categoryLocked(name string) models.Category {
	for _, rule := range c.categories {
		for _, kw := range rule.Keywords {
			if kw == name {
				return rule.Category
			}
		}
	}
	for _, rule := range c.categories {
		for _, kw := range rule.Keywords {
			if strings.Contains(name, kw) || strings.Contains(kw, name) {
				return rule.Category
			}
		}
	}
	return models.CategoryOther
}

// SetWeight sets the weight of an application name, clamped to [0,100].
// Existing entries keep their position in the table; new ones are appended.
func (c *Classifier) SetWeight(appName string, weight float64) float64 {
	name := strings.ToLower(strings.TrimSpace(appName))
	weight = clampWeight(weight)
	if name == "" {
		return weight
	}

	c.mu.Lock()
	c.setWeightLocked(name, weight)
	c.cache.Purge()
	c.mu.Unlock()

	return weight
}

func (c *Classifier) setWeightLocked(name string, weight float64) {
	for i := range c.weights {
		if c.weights[i].Name == name {
			c.weights[i].Weight = weight
			return
		}
	}
	c.weights = append(c.weights, WeightEntry{Name: name, Weight: weight})
}

// ApplyOverrides resets the tables to the built-ins and layers the given
// weight overrides and extra category keywords on top.
func (c *Classifier) ApplyOverrides(weights map[string]float64, categories map[models.Category][]string) {
	c.mu.Lock()
	c.weights = append(c.weights[:0], DefaultWeights...)
	for name, w := range weights {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		c.setWeightLocked(name, clampWeight(w))
	}

	c.categories = make([]CategoryRule, 0, len(DefaultCategories)+len(categories))
	for _, rule := range DefaultCategories {
		kws := append([]string(nil), rule.Keywords...)
		for _, extra := range categories[rule.Category] {
			if extra = strings.ToLower(strings.TrimSpace(extra)); extra != "" {
				kws = append(kws, extra)
			}
		}
		c.categories = append(c.categories, CategoryRule{Category: rule.Category, Keywords: kws})
	}
	c.cache.Purge()
	c.mu.Unlock()
}

// Weights returns a copy of the current weight table.
func (c *Classifier) Weights() []WeightEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]WeightEntry, len(c.weights))
	copy(out, c.weights)
	return out
}

func clampWeight(w float64) float64 {
	switch {
	case w < 0:
		return 0
	case w > 100:
		return 100
	}
	return w
}
