package search

import "strings"

// maxSuggestions caps the suggestion list returned per request.
const maxSuggestions = 8

// suggestionPhrases are curated starter queries shown in the search box.
var suggestionPhrases = []string{
	"romantic dinner with a view",
	"best sushi in Sea Point",
	"family friendly pizza",
	"wood-fired pizza in the city centre",
	"seafood on the Atlantic seaboard",
	"vegan breakfast spots",
	"cheap eats near Long Street",
	"fine dining tasting menu",
	"steakhouse with good wine list",
	"brunch with outdoor seating",
	"traditional South African food",
	"tapas and cocktails",
	"late night burgers",
	"coffee and pastries in Gardens",
	"halaal friendly restaurants",
	"date night in the Waterfront",
}

// Suggestions returns curated phrases matching the partial input. An empty
// input returns the head of the curated list.
func (s *Service) Suggestions(text string) []string {
	text = strings.ToLower(strings.TrimSpace(text))

	out := make([]string, 0, maxSuggestions)
	for _, phrase := range suggestionPhrases {
		if text != "" && !strings.Contains(strings.ToLower(phrase), text) {
			continue
		}
		out = append(out, phrase)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
