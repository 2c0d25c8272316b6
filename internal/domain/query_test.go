package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewQuery_Defaults(t *testing.T) {
	q, err := NewQuery("cheap sushi", Filters{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Limit() != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, q.Limit())
	}
	if q.Text() != "cheap sushi" {
		t.Errorf("unexpected text %q", q.Text())
	}
}

func TestNewQuery_TrimsWhitespace(t *testing.T) {
	q, err := NewQuery("  pizza  ", Filters{}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text() != "pizza" {
		t.Errorf("expected trimmed text, got %q", q.Text())
	}
}

func TestNewQuery_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		limit int
	}{
		{"empty", "", 9},
		{"blank", "   ", 9},
		{"too long", strings.Repeat("a", MaxQueryLen+1), 9},
		{"limit too small", "pizza", -1},
		{"limit too large", "pizza", MaxLimit + 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewQuery(tc.text, Filters{}, tc.limit)
			if !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("expected ErrInvalidQuery, got %v", err)
			}
		})
	}
}

func TestFilters_IsEmpty(t *testing.T) {
	if !(Filters{}).IsEmpty() {
		t.Error("zero Filters should be empty")
	}
	if (Filters{Location: "Sea Point"}).IsEmpty() {
		t.Error("Filters with location should not be empty")
	}
	if (Filters{MinRating: 4}).IsEmpty() {
		t.Error("Filters with min rating should not be empty")
	}
}
