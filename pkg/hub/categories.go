package hub

import "strings"

// Well-known session categories.
const (
	CategoryGeneral = "GENERAL"
	CategoryMeeting = "MEETING"
	CategoryBug     = "BUG"
)

// categoryKeywords maps a category to the content keywords that select it.
// Rules are checked in order and the first match wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{CategoryMeeting, []string{"meeting", "회의"}},
	{CategoryBug, []string{"bug", "오류"}},
}

// DeriveCategories classifies session content by keyword. Matching is
// case-insensitive and first-match; content with no keyword falls back to
// GENERAL.
func DeriveCategories(content string) []string {
	lowered := strings.ToLower(content)

	for _, rule := range categoryKeywords {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return []string{rule.category}
			}
		}
	}

	return []string{CategoryGeneral}
}
