// Package budget scores request complexity and turns it into a bounded
// generation budget for the upstream call.
package budget

import (
	"math"

	"github.com/pario-ai/promptsmith/pkg/models"
)

// DefaultMinimum is the smallest budget ever granted.
const DefaultMinimum = 60

// DefaultBase is used for (language, category) pairs missing from the table.
const DefaultBase = 500

// maxAdjust is the largest relative change complexity can apply to a base.
const maxAdjust = 0.125

// Table maps language and category to a base budget.
type Table map[models.Language]map[models.Category]int

// DefaultTable returns the built-in base budgets. Arabic gets more room for
// prose since it tokenizes into more pieces.
func DefaultTable() Table {
	return Table{
		models.LanguageEnglish: {
			models.CategoryText:  500,
			models.CategoryImage: 300,
			models.CategoryVideo: 350,
			models.CategoryCode:  800,
		},
		models.LanguageArabic: {
			models.CategoryText:  600,
			models.CategoryImage: 350,
			models.CategoryVideo: 400,
			models.CategoryCode:  800,
		},
	}
}

// Allocator maps complexity to a budget.
type Allocator struct {
	table   Table
	minimum int
}

// New creates an Allocator. Entries in overrides replace the defaults;
// minimum <= 0 selects DefaultMinimum.
func New(overrides Table, minimum int) *Allocator {
	table := DefaultTable()
	for lang, cats := range overrides {
		if table[lang] == nil {
			table[lang] = make(map[models.Category]int)
		}
		for cat, n := range cats {
			if n > 0 {
				table[lang][cat] = n
			}
		}
	}
	if minimum <= 0 {
		minimum = DefaultMinimum
	}
	return &Allocator{table: table, minimum: minimum}
}

// Base returns the base budget for a language and category.
func (a *Allocator) Base(lang models.Language, cat models.Category) int {
	if n, ok := a.table[lang][cat]; ok {
		return n
	}
	return DefaultBase
}

// Minimum returns the floor applied to every allocation.
func (a *Allocator) Minimum() int {
	return a.minimum
}

// Allocate returns the budget for raw text.
func (a *Allocator) Allocate(lang models.Language, cat models.Category, raw string) int {
	return a.ForComplexity(lang, cat, Estimate(raw))
}

// ForComplexity applies a signed adjustment of up to ±12.5% of the base,
// linear in (c - 0.5), and floors the result at the minimum.
func (a *Allocator) ForComplexity(lang models.Language, cat models.Category, c float64) int {
	c = clamp(c, 0, 1)
	base := float64(a.Base(lang, cat))
	n := int(math.Floor(base + base*2*maxAdjust*(c-0.5)))
	if n < a.minimum {
		return a.minimum
	}
	return n
}

// Temperature returns the sampling temperature for a category.
func Temperature(cat models.Category) float64 {
	switch cat {
	case models.CategoryCode:
		return 0.2
	case models.CategoryImage, models.CategoryVideo:
		return 0.8
	default:
		return 0.7
	}
}
