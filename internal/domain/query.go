package domain

import (
	"fmt"
	"strings"
)

// Query limits.
const (
	MaxQueryLen  = 500
	MinLimit     = 1
	MaxLimit     = 50
	DefaultLimit = 9
)

// Filters narrows search results. Zero values impose no constraint.
type Filters struct {
	Cuisines  []string // substring match against any cuisine tag
	PriceMin  int      // price level 1-4, 0 = unset
	PriceMax  int
	Location  string // substring match against location text
	MinRating float64
	Features  []string // substring match against any feature tag
}

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	return len(f.Cuisines) == 0 && f.PriceMin == 0 && f.PriceMax == 0 &&
		f.Location == "" && f.MinRating == 0 && len(f.Features) == 0
}

// Query is a validated, immutable search input.
type Query struct {
	text    string
	filters Filters
	limit   int
}

// NewQuery validates and creates a Query. A zero limit becomes DefaultLimit.
func NewQuery(text string, filters Filters, limit int) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, fmt.Errorf("%w: query text is required", ErrInvalidQuery)
	}
	if len(text) > MaxQueryLen {
		return Query{}, fmt.Errorf("%w: query text exceeds %d characters", ErrInvalidQuery, MaxQueryLen)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < MinLimit || limit > MaxLimit {
		return Query{}, fmt.Errorf("%w: limit must be between %d and %d, got %d",
			ErrInvalidQuery, MinLimit, MaxLimit, limit)
	}
	return Query{text: text, filters: filters, limit: limit}, nil
}

// Text returns the raw query text.
func (q Query) Text() string { return q.text }

// Filters returns the optional result filters.
func (q Query) Filters() Filters { return q.filters }

// Limit returns the requested result count.
func (q Query) Limit() int { return q.limit }
