package domain

import "strings"

// Category is a content label assigned to each chunk at ingestion
// time. The label set is closed: classification only ever produces
// one of the configured categories or CategoryGeneral.
type Category string

// CategoryGeneral is the fallback for text matching no keyword.
const CategoryGeneral Category = "general"

// CategoryRule pairs a category with the keywords that trigger it.
type CategoryRule struct {
	// Category is the label assigned on a keyword match.
	Category Category

	// Keywords are matched case-insensitively as substrings.
	Keywords []string
}

// DefaultCategoryRules returns the built-in HR label set.
// Order matters: earlier rules win when several match.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Category: "benefits", Keywords: []string{"benefit", "insurance", "pension", "retirement", "401k", "healthcare"}},
		{Category: "leave", Keywords: []string{"leave", "vacation", "holiday", "sick day", "absence", "pto", "parental"}},
		{Category: "conduct", Keywords: []string{"conduct", "harassment", "discipline", "ethics", "grievance", "complaint"}},
		{Category: "compensation", Keywords: []string{"salary", "compensation", "payroll", "bonus", "overtime", "expense"}},
		{Category: "recruiting", Keywords: []string{"hiring", "recruitment", "onboarding", "offboarding", "interview", "probation"}},
	}
}

// Classifier assigns categories to chunk text using keyword rules.
// A zero-keyword rule set classifies everything as general.
type Classifier struct {
	rules []CategoryRule
}

// NewClassifier creates a classifier over the given rules.
// Keywords are lowercased once at construction.
func NewClassifier(rules []CategoryRule) *Classifier {
	lowered := make([]CategoryRule, len(rules))
	for i, r := range rules {
		kws := make([]string, len(r.Keywords))
		for j, kw := range r.Keywords {
			kws[j] = strings.ToLower(kw)
		}
		lowered[i] = CategoryRule{Category: r.Category, Keywords: kws}
	}
	return &Classifier{rules: lowered}
}

// Classify returns the first category whose keywords appear in the
// text, or CategoryGeneral when none match. The function is pure:
// identical input always yields the identical label.
func (c *Classifier) Classify(text string) Category {
	lower := strings.ToLower(text)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return CategoryGeneral
}
