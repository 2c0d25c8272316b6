package domain

import "strings"

// Review is a single customer review used for enrichment and AI prompting.
type Review struct {
	Text   string
	Rating float64
}

// DayHours is one weekday's opening-hours entry, e.g. {"Monday", "11 AM to 10 PM"}.
type DayHours struct {
	Day   string
	Hours string
}

// Restaurant is one restaurant row from the data store.
type Restaurant struct {
	PlaceID      string
	Title        string
	Description  string
	CategoryName string
	Categories   []string
	Neighborhood string
	Address      string
	TotalScore   float64
	ReviewsCount int
	Price        string // display string, e.g. "R 200-300"
	PriceLevel   int    // 1 (cheap) to 4 (expensive), 0 = unknown
	Phone        string
	Website      string
	OpeningHours []DayHours
	PopularTimes string
	Features     []string
	ParkingText  string
}

// Location returns the restaurant's location text (neighborhood plus address).
func (r Restaurant) Location() string {
	switch {
	case r.Neighborhood != "" && r.Address != "":
		return r.Neighborhood + ", " + r.Address
	case r.Neighborhood != "":
		return r.Neighborhood
	default:
		return r.Address
	}
}

// HoursText flattens opening hours into a single display string.
func (r Restaurant) HoursText() string {
	if len(r.OpeningHours) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.OpeningHours))
	for _, h := range r.OpeningHours {
		parts = append(parts, h.Day+" "+h.Hours)
	}
	return strings.Join(parts, "; ")
}
