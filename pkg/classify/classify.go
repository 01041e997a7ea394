// Package classify assigns followers to a category from the text of their
// display name and bio.
package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"xfollowers/pkg/models"
)

// Result is the outcome of scoring one follower
type Result struct {
	Category     models.Category `json:"category"`
	TechScore    int             `json:"tech_score"`
	MedicalScore int             `json:"medical_score"`
}

// Overrides maps a username to a manually chosen category
type Overrides map[string]models.Category

// Engine scores text against keyword tables. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	tables Tables
}

// New returns an Engine over tables. Terms are lowercased once here.
func New(tables Tables) *Engine {
	lower := cases.Lower(language.Und)
	norm := func(terms []string) []string {
		out := make([]string, 0, len(terms))
		for _, t := range terms {
			if t = strings.TrimSpace(lower.String(t)); t != "" {
				out = append(out, t)
			}
		}
		return out
	}
	return &Engine{tables: Tables{
		Tech:    Keywords{Strong: norm(tables.Tech.Strong), Weak: norm(tables.Tech.Weak)},
		Medical: Keywords{Strong: norm(tables.Medical.Strong), Weak: norm(tables.Medical.Weak)},
	}}
}

// Default returns an Engine over DefaultTables
func Default() *Engine {
	return New(DefaultTables())
}

// Classify scores name and bio. Both zero is Other, a tie goes to Tech/VC.
func (e *Engine) Classify(name, bio string) Result {
	// cases.Caser keeps state between calls, one per call
	text := cases.Lower(language.Und).String(name + " " + bio)

	res := Result{
		TechScore:    score(text, e.tables.Tech),
		MedicalScore: score(text, e.tables.Medical),
	}
	switch {
	case res.TechScore == 0 && res.MedicalScore == 0:
		res.Category = models.CategoryOther
	case res.TechScore >= res.MedicalScore:
		res.Category = models.CategoryTechVC
	default:
		res.Category = models.CategoryMedical
	}
	return res
}

// Resolve returns the override for f when one exists, otherwise the
// computed category.
func (e *Engine) Resolve(f models.Follower, overrides Overrides) models.Category {
	if f.Username != "" {
		if cat, ok := overrides[f.Username]; ok && cat.Valid() {
			return cat
		}
	}
	return e.Classify(f.Name, f.Bio).Category
}

// ClassifyAll sets Category on every follower and returns the totals
func (e *Engine) ClassifyAll(followers []models.Follower, overrides Overrides) models.Counts {
	var counts models.Counts
	for i := range followers {
		followers[i].Category = e.Resolve(followers[i], overrides)
		counts.Add(followers[i].Category)
	}
	return counts
}

func score(text string, kw Keywords) int {
	total := 0
	for _, term := range kw.Strong {
		if strings.Contains(text, term) {
			total += StrongWeight
		}
	}
	for _, term := range kw.Weak {
		if strings.Contains(text, term) {
			total += WeakWeight
		}
	}
	return total
}
