package service

import "strings"

// Categorizer assigns a compliance category to circular text. Implementations
// can be swapped for smarter classifiers without touching the service layer.
type Categorizer interface {
	Categorize(title, description string) string
}

// KeywordCategorizer classifies circulars by keyword lookup over the title
// and description. First matching category wins; unmatched text falls back
// to General.
type KeywordCategorizer struct{}

// NewKeywordCategorizer constructs the default classifier.
func NewKeywordCategorizer() *KeywordCategorizer {
	return &KeywordCategorizer{}
}

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"Curriculum", []string{"curriculum", "syllabus", "course", "credit"}},
	{"Examination", []string{"exam", "examination", "evaluation", "assessment", "marks"}},
	{"Faculty Development", []string{"fdp", "faculty development", "training", "workshop", "orientation"}},
	{"Research", []string{"research", "publication", "patent", "journal", "phd"}},
	{"Infrastructure", []string{"infrastructure", "laboratory", "lab", "building", "equipment", "library"}},
	{"Student Welfare", []string{"student welfare", "scholarship", "grievance", "ragging", "placement"}},
	{"Accreditation", []string{"naac", "nba", "accreditation", "ranking", "nirf", "criteria"}},
	{"Administration", []string{"administration", "audit", "governance", "budget", "committee"}},
}

// Categorize returns the category for the given circular text.
func (c *KeywordCategorizer) Categorize(title, description string) string {
	text := strings.ToLower(title + " " + description)
	for _, entry := range categoryKeywords {
		for _, word := range entry.words {
			if strings.Contains(text, word) {
				return entry.category
			}
		}
	}
	return "General"
}
