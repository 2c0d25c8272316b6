package restaurant

import "github.com/chowgpt/chowgpt/internal/domain"

// restaurantDTO is the stored JSON shape of a restaurant row. Field names
// match the upstream scrape format so ingested documents load unchanged.
type restaurantDTO struct {
	PlaceID      string        `json:"placeId"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	CategoryName string        `json:"categoryName,omitempty"`
	Categories   []string      `json:"categories,omitempty"`
	Neighborhood string        `json:"neighborhood,omitempty"`
	Address      string        `json:"address,omitempty"`
	TotalScore   float64       `json:"totalScore,omitempty"`
	ReviewsCount int           `json:"reviewsCount,omitempty"`
	Price        string        `json:"price,omitempty"`
	PriceLevel   int           `json:"priceLevel,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	Website      string        `json:"website,omitempty"`
	OpeningHours []dayHoursDTO `json:"openingHours,omitempty"`
	PopularTimes string        `json:"popularTimesText,omitempty"`
	Features     []string      `json:"features,omitempty"`
	ParkingInfo  string        `json:"parkingInfo,omitempty"`
}

type dayHoursDTO struct {
	Day   string `json:"day"`
	Hours string `json:"hours"`
}

type reviewDTO struct {
	Text  string  `json:"text"`
	Stars float64 `json:"stars"`
}

func (d restaurantDTO) toDomain() domain.Restaurant {
	hours := make([]domain.DayHours, 0, len(d.OpeningHours))
	for _, h := range d.OpeningHours {
		hours = append(hours, domain.DayHours{Day: h.Day, Hours: h.Hours})
	}
	return domain.Restaurant{
		PlaceID:      d.PlaceID,
		Title:        d.Title,
		Description:  d.Description,
		CategoryName: d.CategoryName,
		Categories:   d.Categories,
		Neighborhood: d.Neighborhood,
		Address:      d.Address,
		TotalScore:   d.TotalScore,
		ReviewsCount: d.ReviewsCount,
		Price:        d.Price,
		PriceLevel:   d.PriceLevel,
		Phone:        d.Phone,
		Website:      d.Website,
		OpeningHours: hours,
		PopularTimes: d.PopularTimes,
		Features:     d.Features,
		ParkingText:  d.ParkingInfo,
	}
}

func reviewsToDomain(dtos []reviewDTO) []domain.Review {
	reviews := make([]domain.Review, 0, len(dtos))
	for _, r := range dtos {
		reviews = append(reviews, domain.Review{Text: r.Text, Rating: r.Stars})
	}
	return reviews
}
