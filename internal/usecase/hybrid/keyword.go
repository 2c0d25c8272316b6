package hybrid

import (
	"strings"

	"github.com/chowgpt/chowgpt/internal/domain"
)

// Field weights for token matches. A token is credited once, at the
// highest-priority field any of its morphological variants hits.
const (
	weightName        = 10
	weightCuisine     = 8
	weightDescription = 5
	weightOther       = 2

	keywordScale = 3.5
)

// KeywordScore scores a candidate against the original query text on a
// 0-100 scale. Tokenization is whitespace splitting on the lowercased
// query; each token contributes at most one field weight.
func KeywordScore(c domain.Candidate, query string) float64 {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return 0
	}

	name := strings.ToLower(c.Name)
	cuisine := strings.ToLower(strings.Join(c.Cuisines, " "))
	description := strings.ToLower(c.Description)
	other := strings.ToLower(c.Location + " " + c.Price + " " + strings.Join(c.Features, " "))

	sum := 0.0
	for _, token := range tokens {
		sum += tokenWeight(token, name, cuisine, description, other)
	}

	score := sum * keywordScale
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

func tokenWeight(token, name, cuisine, description, other string) float64 {
	for _, v := range variants(token) {
		switch {
		case strings.Contains(name, v):
			return weightName
		case strings.Contains(cuisine, v):
			return weightCuisine
		case strings.Contains(description, v):
			return weightDescription
		case strings.Contains(other, v):
			return weightOther
		}
	}
	return 0
}

// variants returns the token plus simple English morphological variants:
// plural added, trailing "s" stripped, "ies" to "y", trailing "es" stripped.
func variants(token string) []string {
	out := []string{token, token + "s"}
	if strings.HasSuffix(token, "ies") {
		out = append(out, strings.TrimSuffix(token, "ies")+"y")
	}
	if strings.HasSuffix(token, "es") {
		out = append(out, strings.TrimSuffix(token, "es"))
	}
	if strings.HasSuffix(token, "s") {
		out = append(out, strings.TrimSuffix(token, "s"))
	}
	return out
}

// EnhanceKeywordScore boosts a finalist's keyword score using the full
// candidate record: +20 when the whole query appears verbatim, plus up to
// +15 scaled by the fraction of query terms present anywhere in the
// candidate's searchable text. Result stays clamped to 100.
func EnhanceKeywordScore(c domain.Candidate, query string) float64 {
	text := searchableText(c)
	q := strings.ToLower(strings.TrimSpace(query))

	score := c.KeywordScore
	if q != "" && strings.Contains(text, q) {
		score += 20
	}

	terms := strings.Fields(q)
	if len(terms) > 0 {
		present := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				present++
			}
		}
		score += 15 * float64(present) / float64(len(terms))
	}

	if score > 100 {
		return 100
	}
	return score
}

// searchableText flattens every textual field of an enriched candidate
// into one lowercased haystack.
func searchableText(c domain.Candidate) string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte(' ')
	b.WriteString(c.Description)
	b.WriteByte(' ')
	b.WriteString(strings.Join(c.Cuisines, " "))
	b.WriteByte(' ')
	b.WriteString(c.Location)
	b.WriteByte(' ')
	b.WriteString(c.Price)
	b.WriteByte(' ')
	b.WriteString(strings.Join(c.Features, " "))
	b.WriteByte(' ')
	b.WriteString(c.HoursText)
	b.WriteByte(' ')
	b.WriteString(c.ParkingText)
	for _, r := range c.Reviews {
		b.WriteByte(' ')
		b.WriteString(r.Text)
	}
	return strings.ToLower(b.String())
}
